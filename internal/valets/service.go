package valets

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/events"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
)

// customerBlockingStatuses are valet states that block a customer from
// opening another run.
var customerBlockingStatuses = []enums.ValetStatus{
	enums.ValetStatusCompleted,
	enums.ValetStatusCancelled,
	enums.ValetStatusInProgress,
	enums.ValetStatusReturnInProgress,
}

// Service is the valet workflow engine. It owns every Valet status write and
// the driver/loaner resource locks that hang off them.
type Service interface {
	Create(ctx context.Context, input CreateValetInput) (*models.Valet, error)
	Update(ctx context.Context, input UpdateValetInput) (*models.Valet, error)
	Exists(ctx context.Context, orderID uuid.UUID) (bool, error)
	GetByOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.Valet, error)
	ListStartedForDriver(ctx context.Context, actor types.Actor) ([]models.Valet, error)
	List(ctx context.Context, actor types.Actor, params pagination.Params) (*ValetList, error)
	SendDriverLocation(ctx context.Context, input SendLocationInput) error
}

type service struct {
	repo        Repository
	tx          txRunner
	drivers     driverDirectory
	dealerships dealershipDirectory
	orders      orderStore
	vehicles    vehicleRegistry
	assigns     assignmentStore
	publisher   eventPublisher
	tracker     locationPublisher
	logg        *logger.Logger
}

// NewService builds the valet workflow engine with the required dependencies.
func NewService(repo Repository, tx txRunner, drivers driverDirectory, dealerships dealershipDirectory, orders orderStore, vehicles vehicleRegistry, assigns assignmentStore, publisher eventPublisher, tracker locationPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("valets repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if drivers == nil {
		return nil, fmt.Errorf("driver directory required")
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
	if assigns == nil {
		return nil, fmt.Errorf("assignment store required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("event publisher required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("location publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        repo,
		tx:          tx,
		drivers:     drivers,
		dealerships: dealerships,
		orders:      orders,
		vehicles:    vehicles,
		assigns:     assigns,
		publisher:   publisher,
		tracker:     tracker,
		logg:        logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateValetInput) (*models.Valet, error) {
	if !input.Actor.IsDriver() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver role required")
	}
	if input.DriverID == uuid.Nil {
		input.DriverID = input.Actor.UserID
	}
	if input.DriverID != input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver may only start their own valet")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if err := input.Check.validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByCustomerWithStatus(ctx, input.CustomerID, customerBlockingStatuses)
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check customer valets")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("customer already has a valet in state %s", existing.Status))
	}

	driver, err := s.drivers.FindByID(ctx, input.DriverID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "driver not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve driver")
	}
	if driver.IsOnService {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "driver is already on service")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if _, err := s.dealerships.FindByID(ctx, order.DealershipID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "dealership not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve dealership")
	}

	taken, err := s.repo.ExistsByOrder(ctx, input.OrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing valet")
	}
	if taken {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "valet already exists for order")
	}

	assign, err := s.assigns.FindActiveByOrder(ctx, input.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no active assignment")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}

	valet := &models.Valet{
		DriverID:     input.DriverID,
		CustomerID:   input.CustomerID,
		DealershipID: order.DealershipID,
		OrderID:      input.OrderID,
		Status:       enums.ValetStatusValetVehiclePickUp,
		Comments:     input.Comments,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		created, err := repo.Create(ctx, valet)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create valet")
		}
		valet = created

		order.Status = enums.OrderStatusInProgress
		if err := s.orders.Save(ctx, tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		if err := s.drivers.SetOnService(ctx, tx, input.DriverID, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark driver on service")
		}

		if order.ValetVehicleRequest {
			check, err := repo.CreateCheck(ctx, buildCheck(valet.ID, enums.AccountTypeDriver, input.Check))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capture loaner check")
			}
			now := time.Now().UTC()
			valet.ValetVehicleCheckID = &check.ID
			valet.ValetPickUpTime = &now
		}

		assign.Status = enums.AssignStatusPending
		if err := s.assigns.WithTx(tx).Update(ctx, assign); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "hand assignment to valet workflow")
		}

		return repo.Update(ctx, valet)
	})
	if err != nil {
		return nil, err
	}

	s.publishStateChange(ctx, valet, enums.ValetStatusNotStarted, valet.Status)
	return valet, nil
}

func (s *service) Update(ctx context.Context, input UpdateValetInput) (*models.Valet, error) {
	if !input.Actor.IsDriver() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver role required")
	}
	if input.ValetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valet id required")
	}
	if !input.Target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid valet status %q", input.Target))
	}

	valet, err := s.repo.FindByID(ctx, input.ValetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "valet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load valet")
	}
	if valet.DriverID != input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "valet does not belong to driver")
	}
	if valet.Status == input.Target {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("valet already in state %s", input.Target))
	}
	if !CanTransition(valet.Status, input.Target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("transition %s -> %s not allowed", valet.Status, input.Target))
	}
	if input.Target == enums.ValetStatusCustomerVehiclePickUp {
		if input.Check == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vehicle check required for customer pickup")
		}
		if err := input.Check.validate(); err != nil {
			return nil, err
		}
	}

	from := valet.Status
	now := time.Now().UTC()

	// The closing targets touch the assignment, order, and loaner; resolve
	// them up front so the transaction only writes.
	var assign *models.AssignedOrder
	var order *models.Order
	if input.Target == enums.ValetStatusCustomerReturnCompleted || input.Target == enums.ValetStatusCancelled {
		assign, err = s.assigns.FindActiveByOrder(ctx, valet.OrderID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
		}
		if assign == nil && input.Target == enums.ValetStatusCustomerReturnCompleted {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no active assignment")
		}
		order, err = s.orders.FindByID(ctx, valet.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		switch input.Target {
		case enums.ValetStatusCustomerVehiclePickUp:
			check, err := repo.CreateCheck(ctx, buildCheck(valet.ID, enums.AccountTypeCustomer, *input.Check))
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capture customer check")
			}
			valet.CustomerVehicleCheckID = &check.ID
			valet.CustomerPickUpTime = &now
		case enums.ValetStatusDealershipToCustomerStarted:
			valet.ValetPickUpTime = &now
		case enums.ValetStatusDealershipToCustomerCompleted:
			valet.ValetDropOffTime = &now
		case enums.ValetStatusCustomerToDealershipCompleted:
			valet.CustomerDropOffTime = &now
		case enums.ValetStatusCustomerReturnStarted:
			valet.ReturnStartTime = &now
		case enums.ValetStatusCustomerReturnCompleted:
			valet.ReturnEndTime = &now
			if err := s.reconcileCompletion(ctx, tx, assign, order); err != nil {
				return err
			}
		case enums.ValetStatusCancelled:
			if err := s.releaseCancelled(ctx, tx, valet, assign, order); err != nil {
				return err
			}
		}

		if input.Target.FreesDriver() {
			if err := s.drivers.SetOnService(ctx, tx, valet.DriverID, false); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "free driver")
			}
		}

		valet.Status = input.Target
		return repo.Update(ctx, valet)
	})
	if err != nil {
		return nil, err
	}

	s.publishStateChange(ctx, valet, from, valet.Status)
	return valet, nil
}

// reconcileCompletion closes the assignment and order and returns the loaner
// to the pool once the customer's vehicle is back with them.
func (s *service) reconcileCompletion(ctx context.Context, tx *gorm.DB, assign *models.AssignedOrder, order *models.Order) error {
	assign.Status = enums.AssignStatusCompleted
	if err := s.assigns.WithTx(tx).Update(ctx, assign); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close assignment")
	}

	order.Status = enums.OrderStatusCompleted
	if err := s.orders.Save(ctx, tx, order); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
	}

	if order.ValetVehicleRequest && assign.LoanerVehicleID != nil {
		if err := s.vehicles.SetAvailability(ctx, tx, *assign.LoanerVehicleID, true); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release loaner vehicle")
		}
	}
	return nil
}

// releaseCancelled unwinds the resource locks when a run is aborted. The
// driver is freed even when no active assignment remains.
func (s *service) releaseCancelled(ctx context.Context, tx *gorm.DB, valet *models.Valet, assign *models.AssignedOrder, order *models.Order) error {
	if assign != nil {
		target := enums.AssignStatusCancelled
		orderTarget := enums.OrderStatusCancelled
		if assign.AssignType == enums.AssignTypeReturn {
			target = enums.AssignStatusReturnCancelled
			orderTarget = enums.OrderStatusReturnCancelled
		}
		assign.Status = target
		if err := s.assigns.WithTx(tx).Update(ctx, assign); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel assignment")
		}

		order.Status = orderTarget
		if err := s.orders.Save(ctx, tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		if assign.LoanerVehicleID != nil {
			if err := s.vehicles.SetAvailability(ctx, tx, *assign.LoanerVehicleID, true); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release loaner vehicle")
			}
		}
	}
	return s.drivers.SetOnService(ctx, tx, valet.DriverID, false)
}

func (s *service) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	exists, err := s.repo.ExistsByOrder(ctx, orderID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check valet")
	}
	return exists, nil
}

func (s *service) GetByOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.Valet, error) {
	valet, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "valet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load valet")
	}
	if !canReadValet(actor, valet) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "valet does not belong to requester")
	}
	return valet, nil
}

func (s *service) ListStartedForDriver(ctx context.Context, actor types.Actor) ([]models.Valet, error) {
	if !actor.IsDriver() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "driver role required")
	}
	valets, err := s.repo.ListByDriverWithStatus(ctx, actor.UserID, enums.StartedValetStatuses)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list started valets")
	}
	return valets, nil
}

func (s *service) List(ctx context.Context, actor types.Actor, params pagination.Params) (*ValetList, error) {
	if !actor.IsStaff() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "manager role required")
	}
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list valets")
	}
	return list, nil
}

func (s *service) SendDriverLocation(ctx context.Context, input SendLocationInput) error {
	if !input.Actor.IsDriver() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "driver role required")
	}
	valet, err := s.repo.FindByID(ctx, input.ValetID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "valet not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load valet")
	}
	if valet.DriverID != input.Actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "valet does not belong to driver")
	}

	event := events.DriverLocationEvent{
		ValetID:      valet.ID,
		DriverID:     valet.DriverID,
		CustomerID:   valet.CustomerID,
		DealershipID: valet.DealershipID,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		RecordedAt:   time.Now().UTC(),
	}
	if err := s.tracker.SendDriverLocation(ctx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish driver location")
	}
	return nil
}

func (s *service) publishStateChange(ctx context.Context, valet *models.Valet, from, to enums.ValetStatus) {
	event := events.ValetStateChangedEvent{
		ValetID:      valet.ID,
		OrderID:      valet.OrderID,
		DriverID:     valet.DriverID,
		CustomerID:   valet.CustomerID,
		DealershipID: valet.DealershipID,
		From:         from,
		To:           to,
	}
	if err := s.publisher.Publish(ctx, events.TypeValetStateChanged, event); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "valet_id", valet.ID.String()), "event publish failed")
	}
}

func canReadValet(actor types.Actor, valet *models.Valet) bool {
	if actor.IsStaff() {
		return true
	}
	return valet.DriverID == actor.UserID || valet.CustomerID == actor.UserID
}

func buildCheck(valetID uuid.UUID, owner enums.AccountType, input CheckInput) *models.VehicleCheck {
	return &models.VehicleCheck{
		ValetID:    valetID,
		Owner:      owner,
		FrontImage: input.FrontImage,
		BackImage:  input.BackImage,
		LeftImage:  input.LeftImage,
		RightImage: input.RightImage,
		Mileage:    *input.Mileage,
		GasLevel:   *input.GasLevel,
	}
}
