package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/guidepost/pkg/domain"
	plog "github.com/aretw0/guidepost/pkg/log"
)

// LoggingHooks logs engine events. Step changes are logged at info, every
// interaction at debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_enter", plog.RunID(e.RunID), plog.Step(e.Step), plog.Kind(e.Trigger.Kind))
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", plog.RunID(e.RunID), plog.Step(e.Step))
		},
		OnInteraction: func(ctx context.Context, e *domain.InteractionEvent) {
			logger.DebugContext(ctx, "interaction", plog.Step(e.Step), plog.Interaction(e.Interaction))
		},
		OnEffect: func(ctx context.Context, e *domain.EffectEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "effect_failed",
					plog.Step(e.Step), "phase", e.Phase, "effect", e.Effect.String(), plog.Error(e.Err))
				return
			}
			logger.DebugContext(ctx, "effect",
				plog.Step(e.Step), "phase", e.Phase, "effect", e.Effect.String(), "duration", e.Duration)
		},
	}
}
