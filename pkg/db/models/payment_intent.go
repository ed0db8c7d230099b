package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/pkg/enums"
)

// PaymentIntent records a gateway payment intent linked to an order. Created
// only for return assignments that require payment.
type PaymentIntent struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID           `gorm:"column:order_id;type:uuid;not null"`
	CustomerID       uuid.UUID           `gorm:"column:customer_id;type:uuid;not null"`
	AmountCents      int64               `gorm:"column:amount_cents;not null"`
	Currency         string              `gorm:"column:currency;type:text;not null;default:'usd'"`
	Status           enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	GatewayRef       string              `gorm:"column:gateway_ref;type:text;not null"`
	ClientSecret     string              `gorm:"column:client_secret;type:text;not null"`
	PaymentMethodRef *string             `gorm:"column:payment_method_ref"`
	FailureReason    *string             `gorm:"column:failure_reason"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
