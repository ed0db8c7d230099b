package assignments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/internal/payments"
	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/angelmondragon/valetflow-backend/pkg/events"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
)

// Repository is the assignment store.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, assign *models.AssignedOrder) (*models.AssignedOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.AssignedOrder, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.AssignedOrder, error)
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.AssignedOrder, error)
	ExistsByOrderWithStatus(ctx context.Context, orderID uuid.UUID, statuses []enums.AssignStatus) (bool, error)
	Update(ctx context.Context, assign *models.AssignedOrder) error
	ReplaceDrivers(ctx context.Context, assignID uuid.UUID, driverIDs []uuid.UUID) error
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*AssignedOrderList, error)
}

// ListFilters narrows assignment listings to the requesting actor's slice.
type ListFilters struct {
	CustomerID   *uuid.UUID
	DriverID     *uuid.UUID
	DealershipID *uuid.UUID
	Statuses     []enums.AssignStatus
}

// AssignedOrderList is one page of assignments plus the unpaged total.
type AssignedOrderList struct {
	Items   []models.AssignedOrder
	Total   int64
	Page    int
	PerPage int
}

// txRunner runs a function inside one database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// userDirectory resolves drivers and customers.
type userDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
}

// dealershipDirectory resolves the dealership an assignment belongs to.
type dealershipDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dealership, error)
}

// orderStore reads and writes the owned order inside engine transactions.
type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// vehicleRegistry resolves loaners and toggles their availability.
type vehicleRegistry interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error)
	SetAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available bool) error
}

// paymentBridge obtains and records gateway payment intents.
type paymentBridge interface {
	RequestIntent(ctx context.Context, amountMinorUnits int64) (payments.IntentResult, error)
	Record(ctx context.Context, tx *gorm.DB, result payments.IntentResult, customerID, orderID uuid.UUID) (*models.PaymentIntent, error)
}

// eventPublisher pushes domain events onto the notification channel.
type eventPublisher interface {
	Publish(ctx context.Context, eventType events.Type, payload any) error
}
