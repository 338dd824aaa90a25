// Package registry tracks which extensions are in tutorial mode during a run
// and resolves side-effect records to the code that executes them.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/domain"
	"github.com/aretw0/guidepost/pkg/ports"
)

// DefaultCallTimeout bounds each remote call made through the registry.
const DefaultCallTimeout = 5 * time.Second

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithCallTimeout sets the deadline applied to every remote call.
// Zero or negative disables the deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.timeout = d
	}
}

// Registry is the set of extensions currently in tutorial mode.
// It is owned by a single run; reads are safe from any goroutine.
type Registry struct {
	client  ports.ExtensionClient
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.RWMutex
	enabled map[string]struct{}
}

// New creates an empty registry talking to extensions through client.
func New(client ports.ExtensionClient, opts ...Option) *Registry {
	r := &Registry{
		client:  client,
		logger:  logging.NewNop(),
		timeout: DefaultCallTimeout,
		enabled: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Enable puts the component in tutorial mode. Enabling an enabled component
// is a no-op. The component is recorded only when the remote call succeeds.
func (r *Registry) Enable(ctx context.Context, component string) error {
	if r.IsEnabled(component) {
		return nil
	}

	callCtx, cancel := r.withDeadline(ctx)
	defer cancel()

	if err := r.client.EnableTutorial(callCtx, component); err != nil {
		return fmt.Errorf("%w: couldn't enable extension %q, maybe it's not running: %v",
			domain.ErrExtensionEnable, component, err)
	}

	r.mu.Lock()
	r.enabled[component] = struct{}{}
	r.mu.Unlock()

	r.logger.Debug("extension enabled", "component", component)
	return nil
}

// Disable takes the component out of tutorial mode. The component is
// forgotten even when the remote call fails; the failure is returned.
func (r *Registry) Disable(ctx context.Context, component string) error {
	r.mu.Lock()
	delete(r.enabled, component)
	r.mu.Unlock()

	callCtx, cancel := r.withDeadline(ctx)
	defer cancel()

	if err := r.client.DisableTutorial(callCtx, component); err != nil {
		return fmt.Errorf("%w: %q: %v", domain.ErrExtensionDisable, component, err)
	}
	r.logger.Debug("extension disabled", "component", component)
	return nil
}

// DisableAll disables every enabled component in name order and returns the
// failures. The registry is empty afterwards.
func (r *Registry) DisableAll(ctx context.Context) []error {
	var errs []error
	for _, component := range r.Enabled() {
		if err := r.Disable(ctx, component); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Enabled returns the enabled components sorted by name.
func (r *Registry) Enabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.enabled))
	for name := range r.enabled {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// IsEnabled reports whether the component is in tutorial mode.
func (r *Registry) IsEnabled(component string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.enabled[component]
	return ok
}

// Call enables the component if needed and invokes one of its functions.
func (r *Registry) Call(ctx context.Context, component, function string, params domain.Params) error {
	if err := r.Enable(ctx, component); err != nil {
		return err
	}

	callCtx, cancel := r.withDeadline(ctx)
	defer cancel()

	if err := r.client.Call(callCtx, component, function, params); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("calling %s.%s: timed out after %s: %w", component, function, r.timeout, err)
		}
		return fmt.Errorf("calling %s.%s: %w", component, function, err)
	}
	return nil
}

func (r *Registry) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
