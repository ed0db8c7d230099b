package assignments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/internal/payments"
	"github.com/angelmondragon/valetflow-backend/pkg/db"
	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/events"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
)

// unconfirmedStatuses are assignments handed out but not yet claimed.
var unconfirmedStatuses = []enums.AssignStatus{
	enums.AssignStatusAssigned,
	enums.AssignStatusReturnAssigned,
}

// confirmedStatuses are assignments a driver has claimed and not yet closed.
var confirmedStatuses = []enums.AssignStatus{
	enums.AssignStatusAccepted,
	enums.AssignStatusStarted,
	enums.AssignStatusReturnAccepted,
	enums.AssignStatusReturnStarted,
}

// Service is the assignment engine. It owns every AssignedOrder status write
// and keeps the owned order's status in lockstep.
type Service interface {
	Assign(ctx context.Context, input AssignOrderInput) (*models.AssignedOrder, error)
	Accept(ctx context.Context, input AcceptOrderInput) (*models.AssignedOrder, error)
	Reject(ctx context.Context, input RejectOrderInput) (*models.AssignedOrder, error)
	Get(ctx context.Context, actor types.Actor, assignID uuid.UUID) (*models.AssignedOrder, error)
	GetByOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.AssignedOrder, error)
	List(ctx context.Context, actor types.Actor, statuses []enums.AssignStatus, params pagination.Params) (*AssignedOrderList, error)
	ListUnconfirmed(ctx context.Context, actor types.Actor, params pagination.Params) (*AssignedOrderList, error)
	ListConfirmed(ctx context.Context, actor types.Actor, params pagination.Params) (*AssignedOrderList, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	users       userDirectory
	dealerships dealershipDirectory
	orders      orderStore
	vehicles    vehicleRegistry
	payments    paymentBridge
	publisher   eventPublisher
	logg        *logger.Logger
}

// NewService builds the assignment engine with the required dependencies.
func NewService(repo Repository, tx txRunner, users userDirectory, dealerships dealershipDirectory, orders orderStore, vehicles vehicleRegistry, payments paymentBridge, publisher eventPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("assignments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if dealerships == nil {
		return nil, fmt.Errorf("dealership directory required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if vehicles == nil {
		return nil, fmt.Errorf("vehicle registry required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment bridge required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		users:       users,
		dealerships: dealerships,
		orders:      orders,
		vehicles:    vehicles,
		payments:    payments,
		publisher:   publisher,
		logg:        logg,
	}, nil
}

func (s *service) Assign(ctx context.Context, input AssignOrderInput) (*models.AssignedOrder, error) {
	if !input.Actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager role required")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.DriverIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one driver required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.DealershipID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "dealership id required")
	}
	if !input.AssignType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid assign type %q", input.AssignType))
	}

	isReturn := input.AssignType == enums.AssignTypeReturn
	if isReturn && input.PaymentRequired {
		if input.PaymentAmountCents == nil || *input.PaymentAmountCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount required for return assignment")
		}
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if isReturn && order.Status == enums.OrderStatusInitiated {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has not completed its initial delivery")
	}
	if order.Status == enums.OrderStatusAccepted || order.Status == enums.OrderStatusReturnAccepted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has already been accepted")
	}

	drivers, err := s.users.FindByIDs(ctx, input.DriverIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve drivers")
	}
	if len(drivers) != len(dedupe(input.DriverIDs)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
	}
	for _, driver := range drivers {
		if driver.AccountType != enums.AccountTypeDriver {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("user %s is not a driver", driver.ID))
		}
	}

	if _, err := s.dealerships.FindByID(ctx, input.DealershipID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dealership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve dealership")
	}
	if _, err := s.users.FindByID(ctx, input.CustomerID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve customer")
	}

	needsLoaner := !isReturn && order.ValetVehicleRequest
	if needsLoaner {
		if input.LoanerVehicleID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "loaner vehicle required for this order")
		}
		loaner, err := s.vehicles.FindByID(ctx, *input.LoanerVehicleID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "loaner vehicle not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve loaner vehicle")
		}
		if !loaner.Loaner || !loaner.Available {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "loaner vehicle unavailable")
		}
	}

	// Fast path for the single-active-assignment invariant. The partial
	// unique index on assigned_orders closes the race two managers can
	// still hit between this check and the insert.
	blocked, err := s.repo.ExistsByOrderWithStatus(ctx, input.OrderID, enums.ReassignBlockingStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing assignments")
	}
	if blocked {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "order has already been assigned")
	}

	// The gateway call happens before anything persists so a failure never
	// leaves a dangling assignment.
	var gatewayResult *payments.IntentResult
	if isReturn && input.PaymentRequired {
		result, err := s.payments.RequestIntent(ctx, *input.PaymentAmountCents)
		if err != nil {
			return nil, err
		}
		gatewayResult = &result
	}

	targetAssign := enums.AssignStatusAssigned
	targetOrder := enums.OrderStatusAssigned
	if isReturn {
		targetAssign = enums.AssignStatusReturnAssigned
		targetOrder = enums.OrderStatusReturnAssigned
	}

	candidates := make([]models.AssignmentDriver, 0, len(drivers))
	for _, driver := range drivers {
		candidates = append(candidates, models.AssignmentDriver{DriverID: driver.ID})
	}

	assign := &models.AssignedOrder{
		OrderID:       input.OrderID,
		AssignedByID:  input.Actor.UserID,
		CustomerID:    input.CustomerID,
		DealershipID:  input.DealershipID,
		AssignType:    input.AssignType,
		Status:        targetAssign,
		PaymentIssued: isReturn && input.PaymentRequired,
		AssignDate:    time.Now().UTC(),
		Drivers:       candidates,
	}
	if needsLoaner {
		assign.LoanerVehicleID = input.LoanerVehicleID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, assign)
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "order has already been assigned")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create assignment")
		}
		assign = created

		if gatewayResult != nil {
			record, err := s.payments.Record(ctx, tx, *gatewayResult, input.CustomerID, input.OrderID)
			if err != nil {
				return err
			}
			order.PaymentIntentID = &record.ID
		}

		order.Status = targetOrder
		if err := s.orders.Save(ctx, tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if needsLoaner {
			if err := s.vehicles.SetAvailability(ctx, tx, *input.LoanerVehicleID, false); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve loaner vehicle")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TypeOrderAssigned, events.OrderAssignedEvent{
		AssignID:     assign.ID,
		OrderID:      assign.OrderID,
		CustomerID:   assign.CustomerID,
		DealershipID: assign.DealershipID,
		DriverIDs:    assign.DriverIDs(),
		AssignType:   assign.AssignType,
		Status:       assign.Status,
	})
	return assign, nil
}

func (s *service) Accept(ctx context.Context, input AcceptOrderInput) (*models.AssignedOrder, error) {
	if !input.Actor.IsDriver() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver role required")
	}
	if input.AssignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}

	assign, err := s.repo.FindByID(ctx, input.AssignID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if !assign.HasDriver(input.Actor.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment not offered to driver")
	}

	var targetAssign enums.AssignStatus
	var targetOrder enums.OrderStatus
	switch assign.Status {
	case enums.AssignStatusAssigned:
		targetAssign = enums.AssignStatusAccepted
		targetOrder = enums.OrderStatusAccepted
	case enums.AssignStatusReturnAssigned:
		targetAssign = enums.AssignStatusReturnAccepted
		targetOrder = enums.OrderStatusReturnAccepted
	default:
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment cannot be accepted in current state")
	}

	order, err := s.orders.FindByID(ctx, assign.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	now := time.Now().UTC()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order.DriverID = &input.Actor.UserID
		order.CustomerID = assign.CustomerID
		order.Status = targetOrder
		if err := s.orders.Save(ctx, tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		assign.Status = targetAssign
		assign.AcceptedByID = &input.Actor.UserID
		assign.AcceptDate = &now
		if err := repo.Update(ctx, assign); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
		}
		// Claiming narrows the candidate set to the accepting driver.
		if err := repo.ReplaceDrivers(ctx, assign.ID, []uuid.UUID{input.Actor.UserID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "narrow candidate drivers")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	assign.Drivers = []models.AssignmentDriver{{AssignID: assign.ID, DriverID: input.Actor.UserID}}

	s.publish(ctx, events.TypeOrderAccepted, events.OrderAcceptedEvent{
		AssignID:   assign.ID,
		OrderID:    assign.OrderID,
		DriverID:   input.Actor.UserID,
		CustomerID: assign.CustomerID,
		Status:     assign.Status,
	})
	return assign, nil
}

func (s *service) Reject(ctx context.Context, input RejectOrderInput) (*models.AssignedOrder, error) {
	if !input.Actor.IsDriver() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver role required")
	}
	if input.AssignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}

	assign, err := s.repo.FindByID(ctx, input.AssignID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if !assign.HasDriver(input.Actor.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment not offered to driver")
	}
	if assign.Status != enums.AssignStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "assignment cannot be rejected in current state")
	}
	if assign.RejectedByIDs.Contains(input.Actor.UserID) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "assignment already rejected by driver")
	}

	now := time.Now().UTC()
	assign.RejectedByIDs = append(assign.RejectedByIDs, input.Actor.UserID)
	assign.RejectDate = &now
	if err := s.repo.Update(ctx, assign); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment")
	}

	// Soft decline only: the candidate set and status stay put, rejection is
	// tracked for audit. Re-assignment after a full decline is a manual call.
	if len(assign.RejectedByIDs) >= len(assign.Drivers) {
		s.logg.Warn(s.logg.WithField(ctx, "assign_id", assign.ID.String()), "all candidate drivers rejected assignment")
	}

	s.publish(ctx, events.TypeOrderRejected, events.OrderRejectedEvent{
		AssignID:   assign.ID,
		OrderID:    assign.OrderID,
		DriverID:   input.Actor.UserID,
		CustomerID: assign.CustomerID,
	})
	return assign, nil
}

func (s *service) Get(ctx context.Context, actor types.Actor, assignID uuid.UUID) (*models.AssignedOrder, error) {
	assign, err := s.repo.FindByID(ctx, assignID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if !canReadAssignment(actor, assign) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment does not belong to requester")
	}
	return assign, nil
}

func (s *service) GetByOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.AssignedOrder, error) {
	assign, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}
	if !canReadAssignment(actor, assign) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "assignment does not belong to requester")
	}
	return assign, nil
}

func (s *service) List(ctx context.Context, actor types.Actor, statuses []enums.AssignStatus, params pagination.Params) (*AssignedOrderList, error) {
	filters := filtersForActor(actor)
	filters.Statuses = statuses
	list, err := s.repo.List(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assignments")
	}
	return list, nil
}

func (s *service) ListUnconfirmed(ctx context.Context, actor types.Actor, params pagination.Params) (*AssignedOrderList, error) {
	return s.List(ctx, actor, unconfirmedStatuses, params)
}

func (s *service) ListConfirmed(ctx context.Context, actor types.Actor, params pagination.Params) (*AssignedOrderList, error) {
	return s.List(ctx, actor, confirmedStatuses, params)
}

// publish is fire-and-forget: the transaction already committed, a dropped
// notification must not fail the operation.
func (s *service) publish(ctx context.Context, eventType events.Type, payload any) {
	if err := s.publisher.Publish(ctx, eventType, payload); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "event_type", string(eventType)), "event publish failed")
	}
}

func canReadAssignment(actor types.Actor, assign *models.AssignedOrder) bool {
	if actor.IsStaff() {
		return true
	}
	if actor.IsDriver() {
		if assign.HasDriver(actor.UserID) {
			return true
		}
		return assign.AcceptedByID != nil && *assign.AcceptedByID == actor.UserID
	}
	return assign.CustomerID == actor.UserID
}

func filtersForActor(actor types.Actor) ListFilters {
	var filters ListFilters
	switch {
	case actor.IsStaff():
	case actor.IsDriver():
		filters.DriverID = &actor.UserID
	default:
		filters.CustomerID = &actor.UserID
	}
	return filters
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
