// Package journal follows the policy-engine log in the systemd journal and
// reports allow/deny decisions made for qubes in scope.
package journal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/bus"
	plog "github.com/aretw0/guidepost/pkg/log"
)

// DefaultCommand streams new qrexec-policy journal entries as JSON.
var DefaultCommand = []string{"journalctl", "-f", "-n", "0", "-o", "json", "_COMM=qrexec-policy"}

// Source opens the stream of journal records. The stream is closed when the
// watcher stops.
type Source func(ctx context.Context) (io.ReadCloser, error)

// CommandSource runs argv and reads its standard output.
func CommandSource(argv ...string) Source {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if len(argv) == 0 {
			return nil, errors.New("empty journal command")
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		out, err := cmd.StdoutPipe()
		if err != nil {
			return nil, err
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
		}
		return &commandStream{ReadCloser: out, cmd: cmd}, nil
	}
}

type commandStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (c *commandStream) Close() error {
	_ = c.ReadCloser.Close()
	// The process is killed through its context; reap it.
	_ = c.cmd.Wait()
	return nil
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSource replaces the journalctl process.
func WithSource(src Source) Option {
	return func(w *Watcher) {
		w.source = src
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watcher turns policy decisions initiated by qubes in scope into interactions.
type Watcher struct {
	scope  map[string]struct{}
	source Source
	logger *slog.Logger
}

// New creates a watcher reporting decisions whose source is one of scope.
func New(scope []string, opts ...Option) *Watcher {
	w := &Watcher{
		scope:  make(map[string]struct{}, len(scope)),
		source: CommandSource(DefaultCommand...),
		logger: logging.NewNop(),
	}
	for _, r := range scope {
		w.scope[r] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(plog.Watcher(w.Name()))
	return w
}

// Name identifies the watcher in logs.
func (w *Watcher) Name() string {
	return "journal"
}

// Run reads records until ctx is done or the stream ends.
func (w *Watcher) Run(ctx context.Context, sink bus.Sink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := w.source(ctx)
	if err != nil {
		return err
	}
	// Unblock the scanner on cancellation.
	stop := context.AfterFunc(ctx, func() { _ = stream.Close() })
	defer func() {
		if stop() {
			_ = stream.Close()
		}
	}()

	scanner := bufio.NewScanner(stream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		w.HandleLine(scanner.Text(), sink)
	}

	if ctx.Err() != nil {
		return nil
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("reading journal: %w", err)
	}
	w.logger.Warn("journal stream ended")
	return nil
}

// HandleLine processes one journal record. Records may be journal JSON
// objects or plain message lines.
func (w *Watcher) HandleLine(line string, sink bus.Sink) {
	msg := Message(line)
	d, err := ParseDecision(msg)
	if err != nil {
		return
	}
	if _, ok := w.scope[d.Source]; !ok {
		w.logger.Debug("ignoring decision out of scope", "source", d.Source)
		return
	}
	w.logger.Info("policy decision",
		"allowed", d.Success, "policy", d.Policy, "source", d.Source, "target", d.Target)
	sink.Push(d.Interaction())
}

// Message returns the MESSAGE field of a journal JSON record. Non-JSON input
// is returned as is. Binary messages, exported by journald as byte arrays,
// are decoded.
func Message(line string) string {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		return line
	}
	field := gjson.Get(trimmed, "MESSAGE")
	if field.IsArray() {
		var b strings.Builder
		for _, v := range field.Array() {
			b.WriteByte(byte(v.Int()))
		}
		return b.String()
	}
	return field.String()
}
