package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
)

// Type discriminates envelope payloads on the notification channel.
type Type string

const (
	TypeOrderAssigned     Type = "order.assigned"
	TypeOrderAccepted     Type = "order.accepted"
	TypeOrderRejected     Type = "order.rejected"
	TypeValetStateChanged Type = "valet.state_changed"
	TypeDriverLocation    Type = "driver.location"
)

// AttrEventType is the message attribute carrying the envelope type.
const AttrEventType = "event_type"

// Envelope wraps one event for transport.
type Envelope struct {
	ID         uuid.UUID       `json:"id"`
	Type       Type            `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// OrderAssignedEvent is published when a manager hands an order to drivers.
type OrderAssignedEvent struct {
	AssignID     uuid.UUID          `json:"assign_id"`
	OrderID      uuid.UUID          `json:"order_id"`
	CustomerID   uuid.UUID          `json:"customer_id"`
	DealershipID uuid.UUID          `json:"dealership_id"`
	DriverIDs    []uuid.UUID        `json:"driver_ids"`
	AssignType   enums.AssignType   `json:"assign_type"`
	Status       enums.AssignStatus `json:"status"`
}

// OrderAcceptedEvent is published when a driver claims an assignment.
type OrderAcceptedEvent struct {
	AssignID   uuid.UUID          `json:"assign_id"`
	OrderID    uuid.UUID          `json:"order_id"`
	DriverID   uuid.UUID          `json:"driver_id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	Status     enums.AssignStatus `json:"status"`
}

// OrderRejectedEvent is published when a driver declines an assignment.
type OrderRejectedEvent struct {
	AssignID   uuid.UUID `json:"assign_id"`
	OrderID    uuid.UUID `json:"order_id"`
	DriverID   uuid.UUID `json:"driver_id"`
	CustomerID uuid.UUID `json:"customer_id"`
}

// ValetStateChangedEvent is published on every valet transition.
type ValetStateChangedEvent struct {
	ValetID      uuid.UUID         `json:"valet_id"`
	OrderID      uuid.UUID         `json:"order_id"`
	DriverID     uuid.UUID         `json:"driver_id"`
	CustomerID   uuid.UUID         `json:"customer_id"`
	DealershipID uuid.UUID         `json:"dealership_id"`
	From         enums.ValetStatus `json:"from"`
	To           enums.ValetStatus `json:"to"`
}

// DriverLocationEvent carries live tracking coordinates. It rides the redis
// channel, not the durable notification topic.
type DriverLocationEvent struct {
	ValetID      uuid.UUID `json:"valet_id"`
	DriverID     uuid.UUID `json:"driver_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	DealershipID uuid.UUID `json:"dealership_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// NewEnvelope serializes the payload into a transport envelope.
func NewEnvelope(eventType Type, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    raw,
	}, nil
}

// Decode unmarshals the payload into out.
func (e Envelope) Decode(out any) error {
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}
