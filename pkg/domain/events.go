package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter   EventType = "step_enter"
	EventStepLeave   EventType = "step_leave"
	EventInteraction EventType = "interaction"
	EventDiscard     EventType = "discard"
	EventEffect      EventType = "effect"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	Step string `json:"step"`
	// Trigger is the interaction that caused the move. Empty when entering start.
	Trigger Interaction `json:"trigger,omitempty"`
}

// InteractionEvent is emitted for every interaction taken off the bus.
type InteractionEvent struct {
	EventBase
	Step        string      `json:"step"`
	Interaction Interaction `json:"interaction"`
}

// EffectEvent represents a side effect after it ran.
type EffectEvent struct {
	EventBase
	Step     string        `json:"step"`
	Phase    string        `json:"phase"` // "setup" or "teardown"
	Effect   Effect        `json:"-"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Every field is optional.
type LifecycleHooks struct {
	OnStepEnter   func(context.Context, *StepEvent)
	OnStepLeave   func(context.Context, *StepEvent)
	OnInteraction func(context.Context, *InteractionEvent)
	OnDiscard     func(context.Context, *InteractionEvent)
	OnEffect      func(context.Context, *EffectEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter:   chain(h.OnStepEnter, other.OnStepEnter),
		OnStepLeave:   chain(h.OnStepLeave, other.OnStepLeave),
		OnInteraction: chain(h.OnInteraction, other.OnInteraction),
		OnDiscard:     chain(h.OnDiscard, other.OnDiscard),
		OnEffect:      chain(h.OnEffect, other.OnEffect),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
