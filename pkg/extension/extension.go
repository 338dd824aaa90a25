// Package extension is the side of the tutorial protocol that runs inside a
// collaborator process (a file manager, a domains widget, a settings tool).
//
// An Extension owns the tutorial mode of its component. While the mode is on,
// the controller can call the functions the component declares, and the
// component reports user actions back as interactions:
//
//	ext := extension.New("qui-domains",
//		extension.WithFunction("highlight", highlightDomain),
//		extension.WithRegistrar(registrar))
//	go http.ListenAndServe(addr, ext.Handler())
//	...
//	ext.Register("qui-domains:start-vm", vm.Name, "")
package extension

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/guidepost/internal/logging"
	plog "github.com/aretw0/guidepost/pkg/log"
	"github.com/aretw0/guidepost/pkg/ports"
)

var (
	ErrModeDisabled    = errors.New("tutorial mode is disabled")
	ErrUnknownFunction = errors.New("unknown function")
)

// Function is a tutorial hook exposed by the component.
type Function func(ctx context.Context, params map[string]any) error

// Mode is the tutorial mode flag of one component. The zero value is off.
type Mode struct {
	mu       sync.RWMutex
	enabled  bool
	onChange []func(enabled bool)
}

// Set switches the mode and reports whether it changed.
func (m *Mode) Set(enabled bool) bool {
	m.mu.Lock()
	changed := m.enabled != enabled
	m.enabled = enabled
	listeners := slices.Clone(m.onChange)
	m.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(enabled)
		}
	}
	return changed
}

// Enabled reports whether tutorial mode is on.
func (m *Mode) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// OnChange registers fn to be called after every change.
func (m *Mode) OnChange(fn func(enabled bool)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Option configures an Extension.
type Option func(*Extension)

// WithFunction declares a callable function.
func WithFunction(name string, fn Function) Option {
	return func(e *Extension) {
		e.functions[name] = fn
	}
}

// WithRegistrar sets where interactions are reported.
func WithRegistrar(r ports.InteractionRegistrar) Option {
	return func(e *Extension) {
		e.registrar = r
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) {
		e.logger = logger
	}
}

// Extension serves the tutorial protocol for one component.
type Extension struct {
	name      string
	Mode      Mode
	functions map[string]Function
	registrar ports.InteractionRegistrar
	logger    *slog.Logger
}

// New creates an extension for the named component, with tutorial mode off.
func New(name string, opts ...Option) *Extension {
	e := &Extension{
		name:      name,
		functions: make(map[string]Function),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(plog.Component(name))
	return e
}

// Name returns the component name.
func (e *Extension) Name() string {
	return e.name
}

// Functions lists the declared functions, sorted.
func (e *Extension) Functions() []string {
	return slices.Sorted(maps.Keys(e.functions))
}

// Call runs a declared function. It fails while tutorial mode is off.
func (e *Extension) Call(ctx context.Context, function string, params map[string]any) error {
	fn, ok := e.functions[function]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownFunction, e.name, function)
	}
	if !e.Mode.Enabled() {
		return fmt.Errorf("%w: %s", ErrModeDisabled, e.name)
	}
	return fn(ctx, params)
}

// Register reports a user action to the controller. Nothing is sent while
// tutorial mode is off.
func (e *Extension) Register(kind, subject, arguments string) {
	if !e.Mode.Enabled() || e.registrar == nil {
		return
	}
	e.registrar.Register(kind, subject, arguments)
}

// Handler serves enable_tutorial, disable_tutorial, call/{function} and status.
func (e *Extension) Handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/enable_tutorial", e.setMode(true))
	r.Post("/disable_tutorial", e.setMode(false))
	r.Post("/call/{function}", e.handleCall)
	r.Get("/status", e.handleStatus)
	return r
}

func (e *Extension) setMode(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if e.Mode.Set(enabled) {
			e.logger.Info("tutorial mode changed", "enabled", enabled)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (e *Extension) handleCall(w http.ResponseWriter, r *http.Request) {
	function := chi.URLParam(r, "function")

	params := map[string]any{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&params); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	err := e.Call(r.Context(), function, params)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrUnknownFunction):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrModeDisabled):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		e.logger.Error("tutorial function failed", "function", function, plog.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (e *Extension) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"component": e.name,
		"enabled":   e.Mode.Enabled(),
		"functions": e.Functions(),
	})
}
