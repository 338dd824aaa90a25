// Package process runs host commands: local side effects, scope marking of
// qubes and window inspection.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os/exec"
	"regexp"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/domain"
)

// InlineCommand runs the "command" parameter through sh -c when inline
// execution is enabled.
const InlineCommand = "shell"

// DefaultGracePeriod is how long a cancelled command gets to exit after SIGTERM.
const DefaultGracePeriod = 5 * time.Second

// EnvPrefix prefixes the environment variables carrying effect parameters.
const EnvPrefix = "GUIDEPOST_ARG_"

var ErrCommandNotRegistered = errors.New("command not registered")

var envKeySanitizer = regexp.MustCompile(`[^A-Z0-9_]`)

// Runner implements ports.ShellRunner over an allow-list of commands.
type Runner struct {
	registry    map[string]RegisteredCommand
	allowInline bool
	baseDir     string
	grace       time.Duration
	logger      *slog.Logger
}

// RegisteredCommand is an allowed command execution.
type RegisteredCommand struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithCommands populates the allow-list from a loaded config.
func WithCommands(commands map[string]CommandConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			r.registry[name] = RegisteredCommand{Command: c.Command, Args: c.Args, Env: c.Environment}
		}
	}
}

// WithInlineExecution enables the "shell" command (Dangerous).
func WithInlineExecution(allow bool) RunnerOption {
	return func(r *Runner) {
		r.allowInline = allow
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod sets how long a cancelled command may take to exit before it is killed.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredCommand),
		grace:    DefaultGracePeriod,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name, command string, args ...string) {
	r.registry[name] = RegisteredCommand{Command: command, Args: args}
}

// Commands lists the accepted names, sorted.
func (r *Runner) Commands() []string {
	names := slices.Collect(maps.Keys(r.registry))
	if r.allowInline {
		names = append(names, InlineCommand)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Run executes the named command. Parameters are never passed as flags;
// each one becomes GUIDEPOST_ARG_<KEY> in the environment.
func (r *Runner) Run(ctx context.Context, name string, params domain.Params) error {
	proc, ok := r.registry[name]
	if !ok && r.allowInline && name == InlineCommand {
		line := params.String("command")
		if line == "" {
			return fmt.Errorf("%s: missing command parameter", InlineCommand)
		}
		proc, ok = RegisteredCommand{Command: "sh", Args: []string{"-c", line}}, true
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCommandNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = append(cmd.Environ(), Environment(proc.Env, params)...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = r.grace

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running command", "name", name, "command", proc.Command)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	if out := strings.TrimSpace(stdout.String()); out != "" {
		r.logger.Debug("command output", "name", name, "output", out)
	}
	return nil
}

// Environment renders static variables and parameters as KEY=value pairs.
func Environment(static map[string]string, params domain.Params) []string {
	env := make([]string, 0, len(static)+len(params))
	for _, k := range slices.Sorted(maps.Keys(static)) {
		env = append(env, k+"="+static[k])
	}
	for _, p := range params {
		key := envKeySanitizer.ReplaceAllString(strings.ToUpper(p.Key), "_")
		env = append(env, EnvPrefix+key+"="+formatValue(p.Value))
	}
	return env
}

// formatValue prints scalars as is and structured values as JSON.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case int, int64, float64, bool:
		return fmt.Sprint(v)
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}
