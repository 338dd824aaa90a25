// Package runtime plays a tutorial: it owns the current step and moves it
// along the graph as interactions are taken off the bus.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/guidepost/internal/logging"
	"github.com/aretw0/guidepost/pkg/bus"
	"github.com/aretw0/guidepost/pkg/domain"
	plog "github.com/aretw0/guidepost/pkg/log"
	"github.com/aretw0/guidepost/pkg/ports"
	"github.com/aretw0/guidepost/pkg/registry"
)

// ErrNotStarted is returned by Tick before Start succeeded.
var ErrNotStarted = errors.New("engine not started")

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("engine already started")

// Engine is the tutorial state machine. All methods except the snapshot
// accessors (Current, Terminated, Stats, State) must be called from one goroutine.
type Engine struct {
	graph    *domain.Graph
	bus      *bus.Bus
	ui       ports.UINotifier
	registry *registry.Registry
	caps     *registry.Capabilities

	logger       *slog.Logger
	hooks        domain.LifecycleHooks
	tickInterval time.Duration
	callTimeout  time.Duration
	runID        string
	tutorial     string

	// Owner goroutine state.
	current *domain.Step
	status  domain.RunStatus
	stats   domain.Stats

	snapshot atomic.Pointer[domain.State]
}

// NewEngine creates an engine for one run of the graph.
func NewEngine(
	g *domain.Graph,
	b *bus.Bus,
	ui ports.UINotifier,
	reg *registry.Registry,
	caps *registry.Capabilities,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		graph:        g,
		bus:          b,
		ui:           ui,
		registry:     reg,
		caps:         caps,
		logger:       logging.NewNop(),
		tickInterval: DefaultTickInterval,
		callTimeout:  DefaultCallTimeout,
		runID:        uuid.NewString(),
		status:       domain.StatusPending,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(plog.RunID(e.runID))
	e.publish()
	return e
}

// RunID identifies this run in logs and events.
func (e *Engine) RunID() string {
	return e.runID
}

// Start checks the graph and enters the start step.
func (e *Engine) Start(ctx context.Context) error {
	if e.status != domain.StatusPending {
		return ErrAlreadyStarted
	}
	if err := e.graph.CheckIntegrity(); err != nil {
		return err
	}

	e.logger.InfoContext(ctx, "starting tutorial", "tutorial", e.tutorial, "steps", e.graph.Len())
	e.status = domain.StatusActive
	if err := e.enter(ctx, e.graph.Start(), domain.Interaction{}); err != nil {
		return e.abort(ctx, err)
	}
	return nil
}

// Tick drains the bus and applies every interaction in order. It returns the
// number of interactions dequeued. After the end step is reached the rest of
// the batch, and anything drained later, is dropped.
func (e *Engine) Tick(ctx context.Context) (int, error) {
	if e.status == domain.StatusPending {
		return 0, ErrNotStarted
	}

	batch := e.bus.Drain()
	if len(batch) == 0 {
		return 0, nil
	}
	defer e.publish()

	dequeued := 0
	for i, in := range batch {
		if e.status != domain.StatusActive {
			e.stats.DroppedAfterEnd += len(batch) - i
			e.logger.DebugContext(ctx, "dropping interactions after run stopped", "count", len(batch)-i)
			break
		}
		dequeued++
		e.stats.Dequeued++
		if err := e.apply(ctx, in); err != nil {
			return dequeued, e.abort(ctx, err)
		}
	}
	return dequeued, nil
}

func (e *Engine) apply(ctx context.Context, in domain.Interaction) error {
	event := &domain.InteractionEvent{
		EventBase:   e.base(domain.EventInteraction),
		Step:        e.current.Name,
		Interaction: in,
	}
	if e.hooks.OnInteraction != nil {
		e.hooks.OnInteraction(ctx, event)
	}

	next := e.current.Next(in)
	if next == nil {
		e.stats.Discarded++
		e.logger.DebugContext(ctx, "interaction does not transition",
			plog.Step(e.current.Name), plog.Interaction(in))
		if e.hooks.OnDiscard != nil {
			event.Type = domain.EventDiscard
			e.hooks.OnDiscard(ctx, event)
		}
		return nil
	}

	e.stats.Matched++
	e.logger.InfoContext(ctx, "transition",
		"from", e.current.Name, "to", next.Name, plog.Interaction(in))

	if err := e.leave(ctx, e.current, in); err != nil {
		return err
	}
	if next.IsLast() {
		e.current = next
		e.status = domain.StatusTerminated
		e.emitStep(ctx, domain.EventStepEnter, next, in)
		e.shutdown(ctx)
		e.logger.InfoContext(ctx, "tutorial finished", "dequeued", e.stats.Dequeued)
		return nil
	}
	return e.enter(ctx, next, in)
}

// enter runs the setup contract of a step: UI first, then setup effects.
func (e *Engine) enter(ctx context.Context, step *domain.Step, trigger domain.Interaction) error {
	e.current = step
	e.publish()
	e.emitStep(ctx, domain.EventStepEnter, step, trigger)

	directives := step.UI
	if len(directives) == 0 {
		directives = domain.ClearUI()
	}
	if err := e.notify(ctx, func(ctx context.Context) error { return e.ui.Setup(ctx, directives) }); err != nil {
		return fmt.Errorf("step %q: setting up UI: %w", step.Name, err)
	}

	return e.runEffects(ctx, step, "setup", step.Setup)
}

// leave runs the teardown contract of a step: teardown effects, then UI teardown.
func (e *Engine) leave(ctx context.Context, step *domain.Step, trigger domain.Interaction) error {
	if err := e.runEffects(ctx, step, "teardown", step.Teardown); err != nil {
		return err
	}
	if err := e.notify(ctx, e.ui.Teardown); err != nil {
		return fmt.Errorf("step %q: tearing down UI: %w", step.Name, err)
	}
	e.emitStep(ctx, domain.EventStepLeave, step, trigger)
	return nil
}

func (e *Engine) runEffects(ctx context.Context, step *domain.Step, phase string, effects []domain.Effect) error {
	for _, effect := range effects {
		started := time.Now()

		binding, err := e.caps.Resolve(effect)
		if err == nil {
			err = binding.Invoke(ctx)
		}

		if e.hooks.OnEffect != nil {
			e.hooks.OnEffect(ctx, &domain.EffectEvent{
				EventBase: e.base(domain.EventEffect),
				Step:      step.Name,
				Phase:     phase,
				Effect:    effect,
				Duration:  time.Since(started),
				Err:       err,
			})
		}
		if err != nil {
			return fmt.Errorf("step %q %s %s: %w", step.Name, phase, effect, err)
		}
		e.logger.DebugContext(ctx, "side effect done",
			plog.Step(step.Name), "phase", phase, "effect", effect.String())
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, call func(context.Context) error) error {
	if e.callTimeout <= 0 {
		return call(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()
	return call(callCtx)
}

func (e *Engine) abort(ctx context.Context, cause error) error {
	e.status = domain.StatusAborted
	e.logger.ErrorContext(ctx, "tutorial aborted", plog.Error(cause))
	e.shutdown(ctx)
	e.publish()
	return fmt.Errorf("%w: %w", domain.ErrRunAborted, cause)
}

// shutdown disables every extension enabled during the run. Failures are logged only.
func (e *Engine) shutdown(ctx context.Context) {
	// Cleanup must run even when the run was cancelled.
	ctx = context.WithoutCancel(ctx)
	for _, err := range e.registry.DisableAll(ctx) {
		e.logger.WarnContext(ctx, "failed to disable extension", plog.Error(err))
	}
}

// Run starts the tutorial and ticks until the end step is reached, a side
// effect fails or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Start(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.status = domain.StatusAborted
			e.shutdown(ctx)
			e.publish()
			e.logger.InfoContext(ctx, "tutorial cancelled", plog.Step(e.current.Name))
			return ctx.Err()
		case <-ticker.C:
		case <-e.bus.Ready():
		}

		if _, err := e.Tick(ctx); err != nil {
			return err
		}
		if e.status == domain.StatusTerminated {
			return nil
		}
	}
}

// Current returns the name of the current step. Safe from any goroutine.
func (e *Engine) Current() string {
	return e.snapshot.Load().CurrentStep
}

// Terminated reports whether the end step was reached. Safe from any goroutine.
func (e *Engine) Terminated() bool {
	return e.snapshot.Load().Status == domain.StatusTerminated
}

// Stats returns the interaction counters. Safe from any goroutine.
func (e *Engine) Stats() domain.Stats {
	return e.snapshot.Load().Stats
}

// State returns a snapshot of the run. Safe from any goroutine.
func (e *Engine) State() domain.State {
	s := *e.snapshot.Load()
	s.Enabled = e.registry.Enabled()
	return s
}

func (e *Engine) publish() {
	s := &domain.State{
		RunID:    e.runID,
		Tutorial: e.tutorial,
		Status:   e.status,
		Stats:    e.stats,
	}
	if e.current != nil {
		s.CurrentStep = e.current.Name
	}
	e.snapshot.Store(s)
}

func (e *Engine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RunID: e.runID}
}

func (e *Engine) emitStep(ctx context.Context, t domain.EventType, step *domain.Step, trigger domain.Interaction) {
	hook := e.hooks.OnStepEnter
	if t == domain.EventStepLeave {
		hook = e.hooks.OnStepLeave
	}
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{EventBase: e.base(t), Step: step.Name, Trigger: trigger})
}
