package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"educrm_backend/platform/logger"
)

type stubEvent struct {
	BaseEvent
	name string
}

func (e stubEvent) EventName() string { return e.name }

func TestPublishSyncStopsAtFirstHandlerError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	var calls []string
	bus.Subscribe("lead.created", HandlerFunc(func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("smtp down")
	}))
	bus.Subscribe("lead.created", HandlerFunc(func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	}))

	err := bus.PublishSync(context.Background(), stubEvent{NewBaseEvent(), "lead.created"})
	if err == nil || err.Error() != "smtp down" {
		t.Fatalf("err = %v", err)
	}
	if len(calls) != 1 || calls[0] != "first" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestPublishReachesAllSubscribersForTheEventType(t *testing.T) {
	bus := NewInMemoryBus(logger.New("test"))

	got := make(chan string, 2)
	bus.Subscribe("registration.created", HandlerFunc(func(_ context.Context, e Event) error {
		got <- e.EventName()
		return nil
	}))
	bus.Subscribe("registration.created", HandlerFunc(func(_ context.Context, e Event) error {
		got <- e.EventName()
		return nil
	}))
	bus.Subscribe("registration.cancelled", HandlerFunc(func(context.Context, Event) error {
		t.Error("handler for another event type was called")
		return nil
	}))

	bus.Publish(context.Background(), stubEvent{NewBaseEvent(), "registration.created"})

	for i := 0; i < 2; i++ {
		select {
		case name := <-got:
			if name != "registration.created" {
				t.Fatalf("event name = %q", name)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("handler was not invoked")
		}
	}
}
