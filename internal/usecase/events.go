package usecase

import (
	"context"
	"log/slog"

	"StoryCurator/internal/logging"
	"StoryCurator/internal/metrics"
	"StoryCurator/internal/ports"
)

// announce publishes a pipeline event. Broker failures are logged and never
// fail the operation that produced the event.
func announce(ctx context.Context, publisher ports.EventPublisher, logger *slog.Logger, subject string, payload any) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, subject, payload); err != nil {
		metrics.EventsPublished.WithLabelValues(subject, "error").Inc()
		if logger != nil {
			logger.Warn("publish event failed", "subject", subject, "error", err)
		}
		return
	}
	metrics.EventsPublished.WithLabelValues(subject, "ok").Inc()
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return logging.Discard()
	}
	return logger
}
