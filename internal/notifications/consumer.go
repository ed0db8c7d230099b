package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/angelmondragon/valetflow-backend/pkg/events"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
)

const (
	consumerScope  = "driver-notifications"
	processedTTL   = 7 * 24 * time.Hour
	processedValue = "1"
)

// driverResolver filters candidate recipients down to actual driver accounts.
type driverResolver interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// processedStore guards against redelivered messages.
type processedStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	Del(ctx context.Context, keys ...string) error
}

// Consumer watches the notification topic and turns driver-facing events
// into notification rows. Events without a driver recipient are acked and
// dropped.
type Consumer struct {
	repo         Repository
	users        driverResolver
	subscription *pubsub.Subscriber
	processed    processedStore
	logg         *logger.Logger
}

// NewConsumer builds the driver notification consumer.
func NewConsumer(repo Repository, users driverResolver, subscription *pubsub.Subscriber, processed processedStore, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if processed == nil {
		return nil, fmt.Errorf("processed store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		users:        users,
		subscription: subscription,
		processed:    processed,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes[events.AttrEventType]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	var envelope events.Envelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	key := c.processed.IdempotencyKey(consumerScope, envelope.ID.String())
	fresh, err := c.processed.SetNX(ctx, key, processedValue, processedTTL)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handleEnvelope(ctx, envelope, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.processed.Del(ctx, key)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handleEnvelope(ctx context.Context, envelope events.Envelope, logCtx context.Context) error {
	switch envelope.Type {
	case events.TypeOrderAssigned:
		var payload events.OrderAssignedEvent
		if err := envelope.Decode(&payload); err != nil {
			return err
		}
		title := "New order assignment"
		message := fmt.Sprintf("You have been assigned order %s", payload.OrderID)
		if payload.AssignType == enums.AssignTypeReturn {
			title = "New return assignment"
			message = fmt.Sprintf("You have been assigned the return leg of order %s", payload.OrderID)
		}
		return c.notifyDrivers(ctx, payload.DriverIDs, enums.NotificationTypeOrderAssigned, title, message, payload.OrderID)

	case events.TypeOrderAccepted:
		var payload events.OrderAcceptedEvent
		if err := envelope.Decode(&payload); err != nil {
			return err
		}
		message := fmt.Sprintf("You accepted order %s", payload.OrderID)
		return c.notifyDrivers(ctx, []uuid.UUID{payload.DriverID}, enums.NotificationTypeOrderAccepted, "Assignment accepted", message, payload.OrderID)

	case events.TypeValetStateChanged:
		var payload events.ValetStateChangedEvent
		if err := envelope.Decode(&payload); err != nil {
			return err
		}
		message := fmt.Sprintf("Valet for order %s moved to %s", payload.OrderID, payload.To)
		return c.notifyDrivers(ctx, []uuid.UUID{payload.DriverID}, enums.NotificationTypeValetStateChanged, "Valet update", message, payload.OrderID)

	default:
		c.logg.Info(logCtx, "skipping event without driver recipients")
		return nil
	}
}

func (c *Consumer) notifyDrivers(ctx context.Context, candidateIDs []uuid.UUID, notifType enums.NotificationType, title, message string, orderID uuid.UUID) error {
	found, err := c.users.FindByIDs(ctx, candidateIDs)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}

	for _, user := range found {
		if user.AccountType != enums.AccountTypeDriver {
			continue
		}
		row := &models.Notification{
			RecipientID: user.ID,
			Type:        notifType,
			Title:       title,
			Message:     message,
			OrderID:     &orderID,
		}
		if err := c.repo.Create(ctx, row); err != nil {
			return fmt.Errorf("persist notification: %w", err)
		}
	}
	return nil
}
