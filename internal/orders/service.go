package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
)

// Service exposes the customer-facing order surface. Status mutation lives in
// the assignment and valet engines, not here.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, actor types.Actor, params pagination.Params) (*OrderList, error)
}

// CreateOrderInput carries a customer's new order request.
type CreateOrderInput struct {
	Actor               types.Actor
	VehicleID           uuid.UUID
	ServicePackageID    uuid.UUID
	DealershipID        uuid.UUID
	DeliveryDate        time.Time
	PickupLocation      string
	Notes               *string
	ValetVehicleRequest bool
}

type service struct {
	repo Repository
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.VehicleID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle id required")
	}
	if input.ServicePackageID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service package id required")
	}
	if input.DealershipID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealership id required")
	}
	if input.DeliveryDate.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery date required")
	}
	if input.PickupLocation == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pickup location required")
	}

	order := &models.Order{
		CustomerID:          input.Actor.UserID,
		VehicleID:           input.VehicleID,
		ServicePackageID:    input.ServicePackageID,
		DealershipID:        input.DealershipID,
		DeliveryDate:        input.DeliveryDate,
		PickupLocation:      input.PickupLocation,
		Notes:               input.Notes,
		ValetVehicleRequest: input.ValetVehicleRequest,
	}
	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !canReadOrder(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to requester")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, actor types.Actor, params pagination.Params) (*OrderList, error) {
	var filters ListFilters
	switch {
	case actor.IsStaff():
		// staff see their dealership slice via query filters upstream
	case actor.IsDriver():
		filters.DriverID = &actor.UserID
	default:
		filters.CustomerID = &actor.UserID
	}

	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func canReadOrder(actor types.Actor, order *models.Order) bool {
	if actor.IsStaff() {
		return true
	}
	if order.CustomerID == actor.UserID {
		return true
	}
	return order.DriverID != nil && *order.DriverID == actor.UserID
}
