package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/actbot/pkg/domain"
)

// LoggingHooks logs every engine transition at info level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAnswerAccepted: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "answer_accepted",
				"session_id", e.SessionID,
				"from", e.FromStage,
				"to", e.ToStage,
				"savings_delta", e.Delta.Savings,
				"hours_delta", e.Delta.Hours,
			)
		},
		OnAnswerRejected: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "answer_rejected",
				"session_id", e.SessionID,
				"stage", e.FromStage,
				"error", e.Err,
			)
		},
		OnBack: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "back", "session_id", e.SessionID, "from", e.FromStage, "to", e.ToStage)
		},
		OnLifecycle: func(ctx context.Context, e *domain.LifecycleEvent) {
			logger.InfoContext(ctx, "lifecycle",
				"session_id", e.SessionID,
				"state", e.State,
				"stage", e.Stage,
				"tier", e.Tier,
			)
		},
	}
}
