package assignments

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/internal/payments"
	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/events"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
)

type stubAssignRepo struct {
	assign        *models.AssignedOrder
	created       *models.AssignedOrder
	createErr     error
	updated       *models.AssignedOrder
	replacedWith  []uuid.UUID
	existsBlocked bool
}

func (s *stubAssignRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubAssignRepo) Create(ctx context.Context, assign *models.AssignedOrder) (*models.AssignedOrder, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if assign.ID == uuid.Nil {
		assign.ID = uuid.New()
	}
	for i := range assign.Drivers {
		assign.Drivers[i].AssignID = assign.ID
	}
	s.created = assign
	return assign, nil
}

func (s *stubAssignRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.AssignedOrder, error) {
	if s.assign == nil || s.assign.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.assign, nil
}

func (s *stubAssignRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.AssignedOrder, error) {
	if s.assign == nil || s.assign.OrderID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.assign, nil
}

func (s *stubAssignRepo) FindActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.AssignedOrder, error) {
	if s.assign == nil || s.assign.OrderID != orderID || !s.assign.Status.IsActive() {
		return nil, gorm.ErrRecordNotFound
	}
	return s.assign, nil
}

func (s *stubAssignRepo) ExistsByOrderWithStatus(ctx context.Context, orderID uuid.UUID, statuses []enums.AssignStatus) (bool, error) {
	return s.existsBlocked, nil
}

func (s *stubAssignRepo) Update(ctx context.Context, assign *models.AssignedOrder) error {
	s.updated = assign
	return nil
}

func (s *stubAssignRepo) ReplaceDrivers(ctx context.Context, assignID uuid.UUID, driverIDs []uuid.UUID) error {
	s.replacedWith = driverIDs
	return nil
}

func (s *stubAssignRepo) List(ctx context.Context, filters ListFilters, params pagination.Params) (*AssignedOrderList, error) {
	return &AssignedOrderList{}, nil
}

type stubUserDirectory struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserDirectory) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserDirectory) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	out := make([]models.User, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if user, ok := s.users[id]; ok {
			out = append(out, *user)
		}
	}
	return out, nil
}

type stubDealershipDirectory struct {
	dealership *models.Dealership
}

func (s *stubDealershipDirectory) FindByID(ctx context.Context, id uuid.UUID) (*models.Dealership, error) {
	if s.dealership == nil || s.dealership.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.dealership, nil
}

type stubOrderStore struct {
	order     *models.Order
	saveCalls int
	saveErr   error
}

func (s *stubOrderStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderStore) Save(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveCalls++
	s.order = order
	return nil
}

type availabilityCall struct {
	vehicleID uuid.UUID
	available bool
}

type stubVehicleRegistry struct {
	vehicle *models.Vehicle
	calls   []availabilityCall
}

func (s *stubVehicleRegistry) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	if s.vehicle == nil || s.vehicle.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.vehicle, nil
}

func (s *stubVehicleRegistry) SetAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available bool) error {
	s.calls = append(s.calls, availabilityCall{vehicleID: id, available: available})
	return nil
}

type stubPaymentBridge struct {
	result       payments.IntentResult
	requestErr   error
	requestCalls int
	recordCalls  int
}

func (s *stubPaymentBridge) RequestIntent(ctx context.Context, amountMinorUnits int64) (payments.IntentResult, error) {
	s.requestCalls++
	if s.requestErr != nil {
		return payments.IntentResult{}, s.requestErr
	}
	return s.result, nil
}

func (s *stubPaymentBridge) Record(ctx context.Context, tx *gorm.DB, result payments.IntentResult, customerID, orderID uuid.UUID) (*models.PaymentIntent, error) {
	s.recordCalls++
	return &models.PaymentIntent{
		ID:         uuid.New(),
		OrderID:    orderID,
		CustomerID: customerID,
		GatewayRef: result.GatewayRef,
		Status:     result.Status,
	}, nil
}

type stubEventPublisher struct {
	published []events.Type
	err       error
}

func (s *stubEventPublisher) Publish(ctx context.Context, eventType events.Type, payload any) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, eventType)
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type engineFixture struct {
	repo      *stubAssignRepo
	users     *stubUserDirectory
	orders    *stubOrderStore
	vehicles  *stubVehicleRegistry
	payments  *stubPaymentBridge
	publisher *stubEventPublisher

	manager  types.Actor
	driver   types.Actor
	customer *models.User
	order    *models.Order
	loaner   *models.Vehicle
}

func newEngineFixture(t *testing.T) (*engineFixture, Service) {
	t.Helper()

	driverID := uuid.New()
	customerID := uuid.New()
	dealershipID := uuid.New()

	f := &engineFixture{
		repo: &stubAssignRepo{},
		users: &stubUserDirectory{users: map[uuid.UUID]*models.User{
			driverID:   {ID: driverID, AccountType: enums.AccountTypeDriver},
			customerID: {ID: customerID, AccountType: enums.AccountTypeCustomer},
		}},
		orders:    &stubOrderStore{},
		vehicles:  &stubVehicleRegistry{},
		payments:  &stubPaymentBridge{},
		publisher: &stubEventPublisher{},
		manager:   types.Actor{UserID: uuid.New(), Role: enums.AccountTypeManager},
		driver:    types.Actor{UserID: driverID, Role: enums.AccountTypeDriver},
	}
	f.customer = f.users.users[customerID]
	f.order = &models.Order{
		ID:           uuid.New(),
		CustomerID:   customerID,
		DealershipID: dealershipID,
		Status:       enums.OrderStatusInitiated,
	}
	f.orders.order = f.order
	f.loaner = &models.Vehicle{ID: uuid.New(), DealershipID: &dealershipID, Loaner: true, Available: true}
	f.vehicles.vehicle = f.loaner

	dealerships := &stubDealershipDirectory{dealership: &models.Dealership{ID: dealershipID}}
	svc, err := NewService(f.repo, stubTxRunner{}, f.users, dealerships, f.orders, f.vehicles, f.payments, f.publisher, testLogger())
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return f, svc
}

func (f *engineFixture) assignInput() AssignOrderInput {
	return AssignOrderInput{
		Actor:        f.manager,
		OrderID:      f.order.ID,
		DriverIDs:    []uuid.UUID{f.driver.UserID},
		CustomerID:   f.order.CustomerID,
		DealershipID: f.order.DealershipID,
		AssignType:   enums.AssignTypeInitial,
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}

func TestAssignRequiresStaff(t *testing.T) {
	f, svc := newEngineFixture(t)
	input := f.assignInput()
	input.Actor = f.driver

	_, err := svc.Assign(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestAssignCreatesAssignmentAndUpdatesOrder(t *testing.T) {
	f, svc := newEngineFixture(t)

	assign, err := svc.Assign(context.Background(), f.assignInput())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if assign.Status != enums.AssignStatusAssigned {
		t.Fatalf("expected ASSIGNED got %s", assign.Status)
	}
	if f.order.Status != enums.OrderStatusAssigned {
		t.Fatalf("expected order ASSIGNED got %s", f.order.Status)
	}
	if f.orders.saveCalls != 1 {
		t.Fatalf("expected one order save, got %d", f.orders.saveCalls)
	}
	if len(assign.Drivers) != 1 || assign.Drivers[0].DriverID != f.driver.UserID {
		t.Fatalf("unexpected candidate set %v", assign.Drivers)
	}
	if f.payments.requestCalls != 0 {
		t.Fatal("unexpected gateway call on unpaid assignment")
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0] != events.TypeOrderAssigned {
		t.Fatalf("unexpected events %v", f.publisher.published)
	}
}

func TestAssignReservesLoanerVehicle(t *testing.T) {
	f, svc := newEngineFixture(t)
	f.order.ValetVehicleRequest = true
	input := f.assignInput()
	input.LoanerVehicleID = &f.loaner.ID

	assign, err := svc.Assign(context.Background(), input)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if assign.LoanerVehicleID == nil || *assign.LoanerVehicleID != f.loaner.ID {
		t.Fatal("expected loaner attached to assignment")
	}
	if len(f.vehicles.calls) != 1 || f.vehicles.calls[0].available {
		t.Fatalf("expected loaner reserved, got %v", f.vehicles.calls)
	}
}

func TestAssignLoanerRequiredWhenRequested(t *testing.T) {
	f, svc := newEngineFixture(t)
	f.order.ValetVehicleRequest = true

	_, err := svc.Assign(context.Background(), f.assignInput())
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestAssignUnavailableLoanerConflicts(t *testing.T) {
	f, svc := newEngineFixture(t)
	f.order.ValetVehicleRequest = true
	f.loaner.Available = false
	input := f.assignInput()
	input.LoanerVehicleID = &f.loaner.ID

	_, err := svc.Assign(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestAssignBlockedByActiveAssignment(t *testing.T) {
	f, svc := newEngineFixture(t)
	f.repo.existsBlocked = true

	_, err := svc.Assign(context.Background(), f.assignInput())
	assertCode(t, err, pkgerrors.CodeConflict)
	if f.repo.created != nil {
		t.Fatal("assignment must not be created when order is already assigned")
	}
}

func TestAssignMapsUniqueViolationToConflict(t *testing.T) {
	f, svc := newEngineFixture(t)
	f.repo.createErr = errors.New(`duplicate key value violates unique constraint "uniq_active_assignment_per_order"`)

	_, err := svc.Assign(context.Background(), f.assignInput())
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestAssignReturnRequiresPaymentAmount(t *testing.T) {
	f, svc := newEngineFixture(t)
	f.order.Status = enums.OrderStatusCompleted
	input := f.assignInput()
	input.AssignType = enums.AssignTypeReturn
	input.PaymentRequired = true

	_, err := svc.Assign(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeValidation)
}

func TestAssignReturnBeforeDeliveryConflicts(t *testing.T) {
	f, svc := newEngineFixture(t)
	input := f.assignInput()
	input.AssignType = enums.AssignTypeReturn

	_, err := svc.Assign(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestAssignGatewayFailureLeavesNothingBehind(t *testing.T) {
	f, svc := newEngineFixture(t)
	f.order.Status = enums.OrderStatusCompleted
	f.payments.requestErr = pkgerrors.New(pkgerrors.CodeDependency, "gateway down")
	amount := int64(12500)
	input := f.assignInput()
	input.AssignType = enums.AssignTypeReturn
	input.PaymentRequired = true
	input.PaymentAmountCents = &amount

	_, err := svc.Assign(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeDependency)
	if f.repo.created != nil {
		t.Fatal("assignment must not be created when the gateway call fails")
	}
	if f.orders.saveCalls != 0 {
		t.Fatal("order must not be written when the gateway call fails")
	}
}

func TestAssignReturnRecordsPaymentIntent(t *testing.T) {
	f, svc := newEngineFixture(t)
	f.order.Status = enums.OrderStatusCompleted
	f.payments.result = payments.IntentResult{
		GatewayRef:  "pi_123",
		AmountCents: 12500,
		Status:      enums.PaymentStatusRequiresPaymentMethod,
	}
	amount := int64(12500)
	input := f.assignInput()
	input.AssignType = enums.AssignTypeReturn
	input.PaymentRequired = true
	input.PaymentAmountCents = &amount

	assign, err := svc.Assign(context.Background(), input)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if assign.Status != enums.AssignStatusReturnAssigned {
		t.Fatalf("expected RETURN_ASSIGNED got %s", assign.Status)
	}
	if f.order.Status != enums.OrderStatusReturnAssigned {
		t.Fatalf("expected order RETURN_ASSIGNED got %s", f.order.Status)
	}
	if !assign.PaymentIssued {
		t.Fatal("expected payment issued flag")
	}
	if f.payments.requestCalls != 1 || f.payments.recordCalls != 1 {
		t.Fatalf("unexpected bridge calls: request=%d record=%d", f.payments.requestCalls, f.payments.recordCalls)
	}
	if f.order.PaymentIntentID == nil {
		t.Fatal("expected payment intent linked to order")
	}
}

func TestAcceptClaimsAssignment(t *testing.T) {
	f, svc := newEngineFixture(t)
	otherDriver := uuid.New()
	assign := &models.AssignedOrder{
		ID:         uuid.New(),
		OrderID:    f.order.ID,
		CustomerID: f.order.CustomerID,
		Status:     enums.AssignStatusAssigned,
		Drivers: []models.AssignmentDriver{
			{DriverID: f.driver.UserID},
			{DriverID: otherDriver},
		},
	}
	f.repo.assign = assign

	got, err := svc.Accept(context.Background(), AcceptOrderInput{Actor: f.driver, AssignID: assign.ID})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if got.Status != enums.AssignStatusAccepted {
		t.Fatalf("expected ACCEPTED got %s", got.Status)
	}
	if got.AcceptedByID == nil || *got.AcceptedByID != f.driver.UserID {
		t.Fatal("expected accepting driver recorded")
	}
	if f.order.DriverID == nil || *f.order.DriverID != f.driver.UserID {
		t.Fatal("expected driver attached to order")
	}
	if f.order.Status != enums.OrderStatusAccepted {
		t.Fatalf("expected order ACCEPTED got %s", f.order.Status)
	}
	if len(f.repo.replacedWith) != 1 || f.repo.replacedWith[0] != f.driver.UserID {
		t.Fatalf("expected candidate set narrowed to accepting driver, got %v", f.repo.replacedWith)
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0] != events.TypeOrderAccepted {
		t.Fatalf("unexpected events %v", f.publisher.published)
	}
}

func TestAcceptNotOfferedToDriver(t *testing.T) {
	f, svc := newEngineFixture(t)
	assign := &models.AssignedOrder{
		ID:      uuid.New(),
		OrderID: f.order.ID,
		Status:  enums.AssignStatusAssigned,
		Drivers: []models.AssignmentDriver{{DriverID: uuid.New()}},
	}
	f.repo.assign = assign

	_, err := svc.Accept(context.Background(), AcceptOrderInput{Actor: f.driver, AssignID: assign.ID})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestAcceptWrongState(t *testing.T) {
	f, svc := newEngineFixture(t)
	assign := &models.AssignedOrder{
		ID:      uuid.New(),
		OrderID: f.order.ID,
		Status:  enums.AssignStatusCompleted,
		Drivers: []models.AssignmentDriver{{DriverID: f.driver.UserID}},
	}
	f.repo.assign = assign

	_, err := svc.Accept(context.Background(), AcceptOrderInput{Actor: f.driver, AssignID: assign.ID})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestRejectTracksDecliningDriver(t *testing.T) {
	f, svc := newEngineFixture(t)
	assign := &models.AssignedOrder{
		ID:      uuid.New(),
		OrderID: f.order.ID,
		Status:  enums.AssignStatusPending,
		Drivers: []models.AssignmentDriver{
			{DriverID: f.driver.UserID},
			{DriverID: uuid.New()},
		},
	}
	f.repo.assign = assign

	got, err := svc.Reject(context.Background(), RejectOrderInput{Actor: f.driver, AssignID: assign.ID})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !got.RejectedByIDs.Contains(f.driver.UserID) {
		t.Fatal("expected rejecting driver recorded")
	}
	if got.Status != enums.AssignStatusPending {
		t.Fatalf("reject must not change status, got %s", got.Status)
	}
	if got.RejectDate == nil {
		t.Fatal("expected reject date set")
	}

	_, err = svc.Reject(context.Background(), RejectOrderInput{Actor: f.driver, AssignID: assign.ID})
	assertCode(t, err, pkgerrors.CodeConflict)
}

func TestRejectWrongState(t *testing.T) {
	f, svc := newEngineFixture(t)
	assign := &models.AssignedOrder{
		ID:      uuid.New(),
		OrderID: f.order.ID,
		Status:  enums.AssignStatusAccepted,
		Drivers: []models.AssignmentDriver{{DriverID: f.driver.UserID}},
	}
	f.repo.assign = assign

	_, err := svc.Reject(context.Background(), RejectOrderInput{Actor: f.driver, AssignID: assign.ID})
	assertCode(t, err, pkgerrors.CodeStateConflict)
}

func TestGetByOrderEnforcesOwnership(t *testing.T) {
	f, svc := newEngineFixture(t)
	assign := &models.AssignedOrder{
		ID:         uuid.New(),
		OrderID:    f.order.ID,
		CustomerID: f.order.CustomerID,
		Status:     enums.AssignStatusAssigned,
		Drivers:    []models.AssignmentDriver{{DriverID: f.driver.UserID}},
	}
	f.repo.assign = assign

	if _, err := svc.GetByOrder(context.Background(), f.manager, f.order.ID); err != nil {
		t.Fatalf("staff read failed: %v", err)
	}
	if _, err := svc.GetByOrder(context.Background(), f.driver, f.order.ID); err != nil {
		t.Fatalf("candidate driver read failed: %v", err)
	}
	customer := types.Actor{UserID: f.order.CustomerID, Role: enums.AccountTypeCustomer}
	if _, err := svc.GetByOrder(context.Background(), customer, f.order.ID); err != nil {
		t.Fatalf("owning customer read failed: %v", err)
	}

	stranger := types.Actor{UserID: uuid.New(), Role: enums.AccountTypeCustomer}
	_, err := svc.GetByOrder(context.Background(), stranger, f.order.ID)
	assertCode(t, err, pkgerrors.CodeForbidden)
}
