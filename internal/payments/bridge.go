package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	stripesdk "github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
)

// Gateway is the slice of the stripe wrapper the bridge consumes.
type Gateway interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, currency string) (*stripesdk.PaymentIntent, error)
	Currency() string
}

// IntentResult is the gateway outcome handed back to the assignment engine.
type IntentResult struct {
	GatewayRef       string
	ClientSecret     string
	Status           enums.PaymentStatus
	AmountCents      int64
	Currency         string
	PaymentMethodRef *string
}

// Bridge requests payment intents from the gateway and persists the record.
// Only the assignment engine calls it, and only for return assignments that
// require payment.
type Bridge interface {
	RequestIntent(ctx context.Context, amountMinorUnits int64) (IntentResult, error)
	Record(ctx context.Context, tx *gorm.DB, result IntentResult, customerID, orderID uuid.UUID) (*models.PaymentIntent, error)
}

type bridge struct {
	gateway Gateway
	db      *gorm.DB
}

// NewBridge builds the payment bridge with the required dependencies.
func NewBridge(gateway Gateway, db *gorm.DB) (Bridge, error) {
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &bridge{gateway: gateway, db: db}, nil
}

func (b *bridge) RequestIntent(ctx context.Context, amountMinorUnits int64) (IntentResult, error) {
	if amountMinorUnits <= 0 {
		return IntentResult{}, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	currency := b.gateway.Currency()
	intent, err := b.gateway.CreateIntent(ctx, amountMinorUnits, currency)
	if err != nil {
		return IntentResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	result := IntentResult{
		GatewayRef:   intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       mapIntentStatus(intent.Status),
		AmountCents:  intent.Amount,
		Currency:     string(intent.Currency),
	}
	if intent.PaymentMethod != nil && intent.PaymentMethod.ID != "" {
		ref := intent.PaymentMethod.ID
		result.PaymentMethodRef = &ref
	}
	return result, nil
}

func (b *bridge) Record(ctx context.Context, tx *gorm.DB, result IntentResult, customerID, orderID uuid.UUID) (*models.PaymentIntent, error) {
	conn := b.db
	if tx != nil {
		conn = tx
	}

	record := &models.PaymentIntent{
		OrderID:          orderID,
		CustomerID:       customerID,
		AmountCents:      result.AmountCents,
		Currency:         result.Currency,
		Status:           result.Status,
		GatewayRef:       result.GatewayRef,
		ClientSecret:     result.ClientSecret,
		PaymentMethodRef: result.PaymentMethodRef,
	}
	if err := conn.WithContext(ctx).Create(record).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment intent")
	}
	return record, nil
}

func mapIntentStatus(status stripesdk.PaymentIntentStatus) enums.PaymentStatus {
	switch status {
	case stripesdk.PaymentIntentStatusRequiresPaymentMethod:
		return enums.PaymentStatusRequiresPaymentMethod
	case stripesdk.PaymentIntentStatusRequiresConfirmation, stripesdk.PaymentIntentStatusRequiresAction:
		return enums.PaymentStatusRequiresConfirmation
	case stripesdk.PaymentIntentStatusProcessing:
		return enums.PaymentStatusProcessing
	case stripesdk.PaymentIntentStatusSucceeded:
		return enums.PaymentStatusSucceeded
	case stripesdk.PaymentIntentStatusCanceled:
		return enums.PaymentStatusCancelled
	default:
		return enums.PaymentStatusRequiresPaymentMethod
	}
}
