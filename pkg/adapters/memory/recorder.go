// Package memory provides in-memory collaborators. They record every call
// instead of reaching other processes, for dry runs, path replay and tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/guidepost/pkg/domain"
)

// Call is one recorded collaborator call.
type Call struct {
	Target   string // "ui", "dom0" or an extension name
	Function string
	Params   domain.Params
	UI       []domain.Directive
}

func (c Call) String() string {
	return c.Target + "." + c.Function
}

// Recorder implements ports.UINotifier, ports.ExtensionClient and
// ports.ShellRunner. Safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	calls    []Call
	commands []string
	failures map[string]error
}

// NewRecorder creates a recorder whose shell runner accepts the given commands.
func NewRecorder(commands ...string) *Recorder {
	return &Recorder{
		commands: commands,
		failures: make(map[string]error),
	}
}

// FailOn makes calls to target.function return err.
func (r *Recorder) FailOn(target, function string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[target+"."+function] = err
}

// Calls returns every recorded call in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

// Names returns the recorded calls formatted as "target.function".
func (r *Recorder) Names() []string {
	var names []string
	for _, c := range r.Calls() {
		names = append(names, c.String())
	}
	return names
}

// Reset forgets recorded calls. Configured failures are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) record(ctx context.Context, c Call) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	return r.failures[c.String()]
}

// Setup records "ui.setup_ui".
func (r *Recorder) Setup(ctx context.Context, directives []domain.Directive) error {
	return r.record(ctx, Call{Target: "ui", Function: "setup_ui", UI: slices.Clone(directives)})
}

// Teardown records "ui.teardown_ui".
func (r *Recorder) Teardown(ctx context.Context) error {
	return r.record(ctx, Call{Target: "ui", Function: "teardown_ui"})
}

func (r *Recorder) EnableTutorial(ctx context.Context, component string) error {
	return r.record(ctx, Call{Target: component, Function: "enable_tutorial"})
}

func (r *Recorder) DisableTutorial(ctx context.Context, component string) error {
	return r.record(ctx, Call{Target: component, Function: "disable_tutorial"})
}

func (r *Recorder) Call(ctx context.Context, component, function string, params domain.Params) error {
	return r.record(ctx, Call{Target: component, Function: function, Params: params})
}

// Run records "dom0.<name>" for allowed commands.
func (r *Recorder) Run(ctx context.Context, name string, params domain.Params) error {
	if !slices.Contains(r.commands, name) {
		return fmt.Errorf("command %q is not allowed", name)
	}
	return r.record(ctx, Call{Target: domain.LocalComponent, Function: name, Params: params})
}

// Commands lists the allowed local commands.
func (r *Recorder) Commands() []string {
	return slices.Clone(r.commands)
}
