// Package events carries domain events between modules without direct
// imports: the leads module never calls the notifier, it publishes.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type; subscriptions key on it.
	EventName() string
	// OccurredAt returns when the event happened.
	OccurredAt() time.Time
}

// BaseEvent supplies the timestamp so event structs only declare payload.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to subscribed handlers.
type Bus interface {
	// Publish dispatches asynchronously; the caller never waits and
	// never sees handler errors.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches inline and returns the first handler error.
	// The outbox dispatcher uses it so a failed delivery retries the task.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the named event type.
	Subscribe(eventName string, handler Handler)
}
