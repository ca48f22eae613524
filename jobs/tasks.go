package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/workbridge/workbridge/internal/platform/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeAuditPrune removes audit log rows past the retention window.
	TaskTypeAuditPrune = "audit:prune"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Message converts the payload back into a mail message.
func (p SendEmailPayload) Message() mail.Message {
	return mail.Message{To: p.To, Subject: p.Subject, Body: p.Body}
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	if payload.To == "" {
		return nil, fmt.Errorf("jobs: %s requires a recipient", TaskTypeSendEmail)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5)), nil
}

// NewAuditPruneTask constructs the periodic retention task. It carries no
// payload; the worker owns the retention window.
func NewAuditPruneTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAuditPrune, nil, asynq.MaxRetry(1), asynq.Queue(QueueDefault))
}
