package scheduler

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
)

func TestLeadAutoAssignPayloadRoundTrip(t *testing.T) {
	leadID := uuid.New()
	task, err := NewLeadAutoAssignTask(LeadAutoAssignPayload{LeadID: leadID.String()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskLeadAutoAssign {
		t.Fatalf("task type = %q", task.Type())
	}

	payload, err := ParseLeadAutoAssignPayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.LeadID != leadID.String() {
		t.Fatalf("lead id = %q", payload.LeadID)
	}
}

func TestNotificationOutboxDuePayloadRoundTrip(t *testing.T) {
	task, err := NewNotificationOutboxDueTask(NotificationOutboxDuePayload{OutboxID: "42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Type() != TaskNotificationOutboxDue {
		t.Fatalf("task type = %q", task.Type())
	}

	payload, err := ParseNotificationOutboxDuePayload(task)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.OutboxID != "42" {
		t.Fatalf("outbox id = %q", payload.OutboxID)
	}
}

type stubSchedulerConfig struct {
	redisURL string
	queue    string
}

func (c stubSchedulerConfig) GetRedisURL() string      { return c.redisURL }
func (c stubSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c stubSchedulerConfig) GetAsynqQueueName() string { return c.queue }
func (c stubSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestNewClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(stubSchedulerConfig{}); err == nil {
		t.Fatal("expected error without redis url")
	}
}

func TestNilClientEnqueueIsNoOp(t *testing.T) {
	var client *Client
	if err := client.EnqueueLeadAutoAssign(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClientEnqueueLeadAutoAssign(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(stubSchedulerConfig{redisURL: "redis://" + srv.Addr(), queue: "crm"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueLeadAutoAssign(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var pending bool
	for _, key := range srv.Keys() {
		if strings.Contains(key, "crm") && strings.Contains(key, "pending") {
			pending = true
		}
	}
	if !pending {
		t.Fatalf("task not visible in queue, keys: %v", srv.Keys())
	}
}
