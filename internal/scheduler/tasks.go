// Package scheduler wires asynq: task definitions, the enqueue client used
// by the API process, and the worker consumed by cmd/worker.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// TaskLeadAutoAssign asks the worker to run the assignment engine for one
// lead.
const TaskLeadAutoAssign = "leads.auto_assign"

// TaskNotificationOutboxDue asks the worker to deliver one claimed outbox
// record.
const TaskNotificationOutboxDue = "notification.outbox.due"

type LeadAutoAssignPayload struct {
	LeadID string `json:"leadId"`
}

type NotificationOutboxDuePayload struct {
	OutboxID string `json:"outboxId"`
}

func NewLeadAutoAssignTask(payload LeadAutoAssignPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadAutoAssign, data), nil
}

func ParseLeadAutoAssignPayload(task *asynq.Task) (LeadAutoAssignPayload, error) {
	var payload LeadAutoAssignPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadAutoAssignPayload{}, err
	}
	return payload, nil
}

func NewNotificationOutboxDueTask(payload NotificationOutboxDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationOutboxDue, data), nil
}

func ParseNotificationOutboxDuePayload(task *asynq.Task) (NotificationOutboxDuePayload, error) {
	var payload NotificationOutboxDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return NotificationOutboxDuePayload{}, err
	}
	return payload, nil
}
