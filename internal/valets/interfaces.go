package valets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/internal/assignments"
	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/angelmondragon/valetflow-backend/pkg/events"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
)

// Repository is the valet store, including captured vehicle checks.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, valet *models.Valet) (*models.Valet, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Valet, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Valet, error)
	ExistsByOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	FindByCustomerWithStatus(ctx context.Context, customerID uuid.UUID, statuses []enums.ValetStatus) (*models.Valet, error)
	ListByDriverWithStatus(ctx context.Context, driverID uuid.UUID, statuses []enums.ValetStatus) ([]models.Valet, error)
	List(ctx context.Context, params pagination.Params) (*ValetList, error)
	Update(ctx context.Context, valet *models.Valet) error
	CreateCheck(ctx context.Context, check *models.VehicleCheck) (*models.VehicleCheck, error)
}

// ValetList is one page of valets plus the unpaged total.
type ValetList struct {
	Items   []models.Valet
	Total   int64
	Page    int
	PerPage int
}

// txRunner runs a function inside one database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// driverDirectory resolves drivers and flips their on-service flag.
type driverDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetOnService(ctx context.Context, tx *gorm.DB, id uuid.UUID, onService bool) error
}

// dealershipDirectory resolves the dealership a valet runs for.
type dealershipDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dealership, error)
}

// orderStore reads and writes the owned order inside engine transactions.
type orderStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Save(ctx context.Context, tx *gorm.DB, order *models.Order) error
}

// vehicleRegistry releases loaners back into the pool.
type vehicleRegistry interface {
	SetAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available bool) error
}

// assignmentStore is the slice of the assignment repository the valet engine
// uses to reconcile the owning assignment. Satisfied by
// assignments.Repository.
type assignmentStore interface {
	WithTx(tx *gorm.DB) assignments.Repository
	FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.AssignedOrder, error)
	Update(ctx context.Context, assign *models.AssignedOrder) error
}

// eventPublisher pushes domain events onto the notification channel.
type eventPublisher interface {
	Publish(ctx context.Context, eventType events.Type, payload any) error
}

// locationPublisher fans live driver coordinates out to trackers.
type locationPublisher interface {
	SendDriverLocation(ctx context.Context, event events.DriverLocationEvent) error
}
