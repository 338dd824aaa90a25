package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/guidepost/pkg/domain"
)

const (
	// DefaultTickInterval is how often the engine polls the bus when nothing signals it.
	DefaultTickInterval = 10 * time.Millisecond
	// DefaultCallTimeout bounds each UI relay call.
	DefaultCallTimeout = 5 * time.Second
)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithTickInterval sets the polling interval of Run.
func WithTickInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// WithCallTimeout sets the deadline of each UI relay call. Zero disables it.
func WithCallTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.callTimeout = d
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) EngineOption {
	return func(e *Engine) {
		e.runID = id
	}
}

// WithTutorialName labels the run.
func WithTutorialName(name string) EngineOption {
	return func(e *Engine) {
		e.tutorial = name
	}
}
