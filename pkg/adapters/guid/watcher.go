// Package guid watches the GUI daemon log of a qube and reports windows
// being created and destroyed.
package guid

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	plog "github.com/aretw0/guidepost/pkg/log"
	"github.com/aretw0/guidepost/pkg/ports"
)

const (
	DefaultLogDir       = "/var/log/qubes"
	DefaultSettleDelay  = 100 * time.Millisecond
	DefaultPollInterval = 250 * time.Millisecond
)

var windowIDPattern = regexp.MustCompile(`0x[0-9a-f]+`)

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogDir sets the directory holding guid.<qube>.log files.
func WithLogDir(dir string) Option {
	return func(w *Watcher) {
		w.dir = dir
	}
}

// WithInspector sets the window inspector used to drop invisible windows and read titles.
func WithInspector(inspector ports.WindowInspector) Option {
	return func(w *Watcher) {
		w.inspector = inspector
	}
}

// WithSettleDelay sets how long to wait after a window appears before reporting it.
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		w.settle = d
	}
}

// WithPollInterval sets the fallback polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.poll = d
		}
	}
}

// WithForcePoll disables fsnotify and relies on polling only.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watcher tails the guid log of one qube.
type Watcher struct {
	resource  string
	dir       string
	inspector ports.WindowInspector
	settle    time.Duration
	poll      time.Duration
	forcePoll bool
	logger    *slog.Logger
}

// New creates a watcher for the named qube.
func New(resource string, opts ...Option) *Watcher {
	w := &Watcher{
		resource: resource,
		dir:      DefaultLogDir,
		settle:   DefaultSettleDelay,
		poll:     DefaultPollInterval,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(plog.Watcher(w.Name()), plog.Resource(resource))
	return w
}

// Name identifies the watcher in logs, e.g. "guid:work".
func (w *Watcher) Name() string {
	return "guid:" + w.resource
}

// Path returns the log file being tailed.
func (w *Watcher) Path() string {
	return filepath.Join(w.dir, "guid."+w.resource+".log")
}

// Run tails the log from its current end until ctx is done.
func (w *Watcher) Run(ctx context.Context, sink bus.Sink) error {
	f, err := w.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	defer f.Close()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	changes, closeNotify := w.notifications()
	defer closeNotify()

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	reader := bufio.NewReader(f)
	var partial strings.Builder

	for {
		for {
			chunk, err := reader.ReadString('\n')
			offset += int64(len(chunk))
			partial.WriteString(chunk)
			if err != nil {
				break
			}
			line := partial.String()
			partial.Reset()
			w.handle(ctx, line, sink)
		}

		// A shorter file means it was rotated or truncated.
		if info, err := f.Stat(); err == nil && info.Size() < offset {
			w.logger.Debug("log truncated, rewinding")
			if _, err := f.Seek(0, io.SeekStart); err == nil {
				offset = 0
				partial.Reset()
				reader.Reset(f)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
		case <-ticker.C:
		}
	}
}

// open waits until the log exists.
func (w *Watcher) open(ctx context.Context) (*os.File, error) {
	for {
		f, err := os.Open(w.Path())
		if err == nil {
			w.logger.Info("watching log", "path", w.Path())
			return f, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.poll):
		}
	}
}

// notifications wakes the read loop on writes to the log. The channel stays
// silent when fsnotify is unavailable; polling covers that case.
func (w *Watcher) notifications() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	if w.forcePoll {
		return ch, func() {}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Debug("fsnotify unavailable, polling", plog.Error(err))
		return ch, func() {}
	}
	if err := fsw.Add(w.dir); err != nil {
		fsw.Close()
		w.logger.Debug("cannot watch log dir, polling", plog.Error(err))
		return ch, func() {}
	}

	target := filepath.Base(w.Path())
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				w.logger.Debug("fsnotify error", plog.Error(err))
			}
		}
	}()

	return ch, func() {
		close(done)
		fsw.Close()
	}
}

func (w *Watcher) handle(ctx context.Context, line string, sink bus.Sink) {
	switch {
	case strings.Contains(line, "Created 0x"):
		w.created(ctx, line, sink)
	case strings.Contains(line, "XDestroyWindow"):
		id := windowIDPattern.FindString(line)
		w.logger.Debug("window destroyed", "window", id)
		sink.Push(domain.NewInteraction(domain.KindCloseWindow, w.resource, ""))
	}
}

func (w *Watcher) created(ctx context.Context, line string, sink bus.Sink) {
	id := windowIDPattern.FindString(line)

	// Full-screen windows covering the qube's whole screen.
	if strings.Contains(line, "x/y -100/-100") {
		return
	}

	title := ""
	if w.inspector != nil {
		viewable, err := w.inspector.Viewable(ctx, w.resource, id)
		if err != nil {
			w.logger.Warn("cannot inspect window", "window", id, plog.Error(err))
			return
		}
		if !viewable {
			w.logger.Debug("ignoring window, not viewable", "window", id)
			return
		}
	}

	// Let the window finish mapping before the tutorial reacts to it.
	if w.settle > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.settle):
		}
	}

	if w.inspector != nil {
		if t, err := w.inspector.Title(ctx, w.resource, id); err == nil {
			title = t
		}
	}

	w.logger.Debug("window created", "window", id, "title", title)
	sink.Push(domain.NewInteraction(domain.KindCreateWindow, w.resource, title))
}
