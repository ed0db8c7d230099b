package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/valetflow-backend/pkg/events"
)

// topicPublisher is the slice of the pubsub publisher handle we consume.
type topicPublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) *pubsub.PublishResult
}

// Publisher pushes domain events onto the notification topic. The worker
// consumer on the other end fans them out to driver notification rows.
type Publisher struct {
	topic topicPublisher
}

// NewPublisher builds an event publisher with the required dependencies.
func NewPublisher(topic topicPublisher) (*Publisher, error) {
	if topic == nil {
		return nil, fmt.Errorf("notification topic publisher required")
	}
	return &Publisher{topic: topic}, nil
}

// Publish wraps the payload in a typed envelope, stamps the event_type
// attribute, and waits for the server ack.
func (p *Publisher) Publish(ctx context.Context, eventType events.Type, payload any) error {
	envelope, err := events.NewEnvelope(eventType, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", eventType, err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			events.AttrEventType: string(eventType),
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}
