package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is an in-memory domain event. Carts are session-scoped, so events
// are fanned out synchronously and never persisted.
type Event struct {
	ID         uuid.UUID
	Topic      string
	OccurredAt time.Time
	Payload    any
}

// Notifier reacts to emitted events (metrics, logging, etc.).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Bus fans events out to subscribed notifiers in subscription order.
type Bus struct {
	mu        sync.RWMutex
	notifiers []Notifier
	logger    zerolog.Logger
	now       func() time.Time
}

// NewBus constructs a bus that logs notifier failures through the provided logger.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{logger: logger, now: time.Now}
}

// Subscribe registers a notifier for all subsequent events.
func (b *Bus) Subscribe(n Notifier) {
	if b == nil || n == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifiers = append(b.notifiers, n)
}

// Emit dispatches the event to every notifier. Notifier failures are joined
// into the returned error; callers on the mutation path log and move on.
func (b *Bus) Emit(ctx context.Context, topic string, payload any) (Event, error) {
	if b == nil {
		return Event{}, errors.New("events: bus not configured")
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Event{}, errors.New("events: topic is required")
	}
	ev := Event{
		ID:         uuid.New(),
		Topic:      topic,
		OccurredAt: b.now(),
		Payload:    payload,
	}

	b.mu.RLock()
	notifiers := make([]Notifier, len(b.notifiers))
	copy(notifiers, b.notifiers)
	b.mu.RUnlock()

	var joined error
	for _, notifier := range notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, ev); err != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", err))
		}
	}
	if joined != nil {
		b.logger.Warn().Err(joined).Str("topic", topic).Msg("event notifier failure")
	}
	return ev, joined
}
