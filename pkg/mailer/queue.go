package mailer

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is the slice of the RabbitMQ client the queue transport needs.
type Publisher interface {
	PublishEmailTask(ctx context.Context, task interface{}, priority int) error
}

// QueueMailer hands messages to the mailer worker instead of talking SMTP itself.
type QueueMailer struct {
	publisher Publisher
}

func NewQueueMailer(publisher Publisher) *QueueMailer {
	return &QueueMailer{publisher: publisher}
}

func (m *QueueMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	return m.publisher.PublishEmailTask(ctx, msg, priorityOf(msg))
}

func priorityOf(msg Message) int {
	if msg.Template == TemplateForgotPassword {
		return 5
	}
	return 1
}

// Relay decodes a queued message and sends it through next. The mailer worker uses it
// as its consume handler.
func Relay(next Mailer) func(ctx context.Context, body []byte) error {
	return func(ctx context.Context, body []byte) error {
		var msg Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("failed to decode email task: %w", err)
		}
		return next.Send(ctx, msg)
	}
}
