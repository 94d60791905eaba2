package obs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-checkout/internal/events"
)

// MetricsNotifier mirrors bus events into Prometheus gauges. It never fails;
// metrics must not interfere with cart mutation.
type MetricsNotifier struct{}

// Notify implements events.Notifier.
func (MetricsNotifier) Notify(_ context.Context, event events.Event) error {
	switch payload := event.Payload.(type) {
	case events.CartUpdate:
		if CartLines != nil {
			CartLines.Set(float64(payload.Lines))
		}
	case events.CatalogLoad:
		if CatalogItems != nil {
			CatalogItems.WithLabelValues("products").Set(float64(payload.Products))
			CatalogItems.WithLabelValues("categories").Set(float64(payload.Categories))
		}
	}
	return nil
}

// LogNotifier debug-logs every emitted event.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements events.Notifier.
func (l LogNotifier) Notify(_ context.Context, event events.Event) error {
	l.Logger.Debug().
		Str("topic", event.Topic).
		Str("event_id", event.ID.String()).
		Time("occurred_at", event.OccurredAt).
		Msg("event emitted")
	return nil
}
