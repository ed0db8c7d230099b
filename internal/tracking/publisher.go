package tracking

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/angelmondragon/valetflow-backend/pkg/events"
)

// channelPublisher is the slice of the redis client the tracker consumes.
type channelPublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Publisher fans driver coordinates out over redis pub/sub. Locations are
// ephemeral; nothing is persisted.
type Publisher struct {
	redis  channelPublisher
	prefix string
}

// NewPublisher builds a location publisher with the required dependencies.
func NewPublisher(redis channelPublisher, channelPrefix string) (*Publisher, error) {
	if redis == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	if channelPrefix == "" {
		channelPrefix = "driver_location"
	}
	return &Publisher{redis: redis, prefix: channelPrefix}, nil
}

// SendDriverLocation publishes the event on both the customer and dealership
// channels so either side of the engagement can follow the run live.
func (p *Publisher) SendDriverLocation(ctx context.Context, event events.DriverLocationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal location event: %w", err)
	}

	channels := []string{
		fmt.Sprintf("%s:%s", p.prefix, event.CustomerID),
		fmt.Sprintf("%s:%s", p.prefix, event.DealershipID),
	}
	for _, channel := range channels {
		if err := p.redis.Publish(ctx, channel, payload); err != nil {
			return fmt.Errorf("publish location to %s: %w", channel, err)
		}
	}
	return nil
}
