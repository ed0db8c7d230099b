package valets

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/valetflow-backend/internal/assignments"
	"github.com/angelmondragon/valetflow-backend/internal/dealerships"
	"github.com/angelmondragon/valetflow-backend/internal/orders"
	"github.com/angelmondragon/valetflow-backend/internal/users"
	"github.com/angelmondragon/valetflow-backend/internal/vehicles"
	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
)

func driverActor(id uuid.UUID) types.Actor {
	return types.Actor{UserID: id, Role: enums.AccountTypeDriver}
}

// uuidDefault lets the sqlite schema mint ids for rows the engine inserts
// without one, matching gen_random_uuid() in the real schema.
const uuidDefault = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)),2) || '-' || substr('89ab', abs(random()) % 4 + 1, 1) || substr(hex(randomblob(2)),2) || '-' || hex(randomblob(6))))`

func setupWorkflowTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  username TEXT NOT NULL UNIQUE,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  account_type TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_on_service INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS dealerships (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  address TEXT NOT NULL,
  phone TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS vehicles (
  id TEXT PRIMARY KEY,
  dealership_id TEXT,
  owner_id TEXT,
  make TEXT NOT NULL,
  model TEXT NOT NULL,
  year INTEGER NOT NULL,
  vin TEXT NOT NULL UNIQUE,
  loaner INTEGER NOT NULL DEFAULT 0,
  available INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_id TEXT NOT NULL,
  driver_id TEXT,
  vehicle_id TEXT NOT NULL,
  service_package_id TEXT NOT NULL,
  dealership_id TEXT NOT NULL,
  delivery_date DATETIME NOT NULL,
  pickup_location TEXT NOT NULL,
  notes TEXT,
  valet_vehicle_request INTEGER NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'INITIATED',
  payment_intent_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS valets (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  driver_id TEXT NOT NULL,
  customer_id TEXT NOT NULL,
  dealership_id TEXT NOT NULL,
  order_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'NOT_STARTED',
  comments TEXT,
  customer_pick_up_time DATETIME,
  customer_drop_off_time DATETIME,
  valet_pick_up_time DATETIME,
  valet_drop_off_time DATETIME,
  return_start_time DATETIME,
  return_end_time DATETIME,
  customer_vehicle_check_id TEXT,
  valet_vehicle_check_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS vehicle_checks (
  id TEXT PRIMARY KEY DEFAULT ` + uuidDefault + `,
  valet_id TEXT NOT NULL,
  owner TEXT NOT NULL,
  front_image TEXT NOT NULL,
  back_image TEXT NOT NULL,
  left_image TEXT NOT NULL,
  right_image TEXT NOT NULL,
  mileage INTEGER NOT NULL,
  gas_level INTEGER NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS assigned_orders (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  assigned_by_id TEXT NOT NULL,
  accepted_by_id TEXT,
  customer_id TEXT NOT NULL,
  dealership_id TEXT NOT NULL,
  loaner_vehicle_id TEXT,
  assign_type TEXT NOT NULL DEFAULT 'INITIAL',
  status TEXT NOT NULL,
  rejected_by_ids TEXT NOT NULL DEFAULT '{}',
  payment_issued INTEGER NOT NULL DEFAULT 0,
  assign_date DATETIME NOT NULL,
  accept_date DATETIME,
  reject_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS assignment_drivers (
  assign_id TEXT NOT NULL,
  driver_id TEXT NOT NULL,
  PRIMARY KEY (assign_id, driver_id)
);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_active_assignment_per_order
  ON assigned_orders(order_id)
  WHERE status IN ('ASSIGNED','PENDING','ACCEPTED','STARTED','RETURN_ASSIGNED','RETURN_PENDING','RETURN_ACCEPTED','RETURN_STARTED');`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

// haltingDriverDirectory resolves drivers against the real repository but
// fails the on-service flip, so the surrounding transaction must unwind.
type haltingDriverDirectory struct {
	users.Repository
	flipErr error
}

func (h *haltingDriverDirectory) SetOnService(ctx context.Context, tx *gorm.DB, id uuid.UUID, onService bool) error {
	return h.flipErr
}

type workflowRecords struct {
	driver     *models.User
	dealership *models.Dealership
	loaner     *models.Vehicle
	order      *models.Order
	assign     *models.AssignedOrder
}

func seedWorkflowRecords(t *testing.T, db *gorm.DB) *workflowRecords {
	t.Helper()
	ctx := context.Background()

	usersRepo := users.NewRepository(db)
	dealershipsRepo := dealerships.NewRepository(db)
	vehiclesRepo := vehicles.NewRepository(db)
	ordersRepo := orders.NewRepository(db)
	assignsRepo := assignments.NewRepository(db)

	driverID := uuid.New()
	driver, err := usersRepo.Create(ctx, &models.User{
		ID:          driverID,
		Email:       fmt.Sprintf("%s@valetflow.test", driverID),
		Username:    driverID.String(),
		FirstName:   "Dana",
		LastName:    "Driver",
		AccountType: enums.AccountTypeDriver,
		IsActive:    true,
	})
	require.NoError(t, err)

	dealershipID := uuid.New()
	dealership, err := dealershipsRepo.Create(ctx, &models.Dealership{
		ID:      dealershipID,
		Name:    fmt.Sprintf("Dealer %s", dealershipID),
		Address: "100 Main St",
	})
	require.NoError(t, err)

	loanerID := uuid.New()
	loaner, err := vehiclesRepo.Create(ctx, &models.Vehicle{
		ID:           loanerID,
		DealershipID: &dealershipID,
		Make:         "Honda",
		Model:        "CR-V",
		Year:         2023,
		VIN:          loanerID.String(),
		Loaner:       true,
	})
	require.NoError(t, err)
	// Held by the customer for the duration of the order.
	require.NoError(t, vehiclesRepo.SetAvailability(ctx, nil, loanerID, false))
	loaner.Available = false

	customerID := uuid.New()
	order, err := ordersRepo.Create(ctx, &models.Order{
		ID:                  uuid.New(),
		CustomerID:          customerID,
		VehicleID:           uuid.New(),
		ServicePackageID:    uuid.New(),
		DealershipID:        dealershipID,
		DeliveryDate:        time.Now().UTC().Add(24 * time.Hour),
		PickupLocation:      "500 Oak Ave",
		ValetVehicleRequest: true,
		Status:              enums.OrderStatusAccepted,
	})
	require.NoError(t, err)

	assignID := uuid.New()
	assign, err := assignsRepo.Create(ctx, &models.AssignedOrder{
		ID:              assignID,
		OrderID:         order.ID,
		AssignedByID:    uuid.New(),
		AcceptedByID:    &driverID,
		CustomerID:      customerID,
		DealershipID:    dealershipID,
		LoanerVehicleID: &loanerID,
		AssignType:      enums.AssignTypeInitial,
		Status:          enums.AssignStatusAccepted,
		AssignDate:      time.Now().UTC(),
		Drivers:         []models.AssignmentDriver{{AssignID: assignID, DriverID: driverID}},
	})
	require.NoError(t, err)

	return &workflowRecords{
		driver:     driver,
		dealership: dealership,
		loaner:     loaner,
		order:      order,
		assign:     assign,
	}
}

func newDatabaseService(t *testing.T, db *gorm.DB, drivers driverDirectory) Service {
	t.Helper()

	svc, err := NewService(
		NewRepository(db),
		gormTxRunner{db: db},
		drivers,
		dealerships.NewRepository(db),
		orders.NewRepository(db),
		vehicles.NewRepository(db),
		assignments.NewRepository(db),
		&stubEventPublisher{},
		&stubLocationPublisher{},
		testLogger(),
	)
	require.NoError(t, err)
	return svc
}

func TestWorkflowRunClosesOutOverDatabase(t *testing.T) {
	db := setupWorkflowTestDB(t)
	seeded := seedWorkflowRecords(t, db)
	svc := newDatabaseService(t, db, users.NewRepository(db))
	ctx := context.Background()

	valet, err := svc.Create(ctx, CreateValetInput{
		Actor:      driverActor(seeded.driver.ID),
		OrderID:    seeded.order.ID,
		CustomerID: seeded.order.CustomerID,
		Check:      validCheck(),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, valet.ID)
	assert.Equal(t, enums.ValetStatusValetVehiclePickUp, valet.Status)

	// The assignment is parked in PENDING for the duration of the run and
	// must stay reachable through the active-by-order lookup.
	assignsRepo := assignments.NewRepository(db)
	held, err := assignsRepo.FindActiveByOrder(ctx, seeded.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssignStatusPending, held.Status)

	onDuty, err := users.NewRepository(db).FindByID(ctx, seeded.driver.ID)
	require.NoError(t, err)
	assert.True(t, onDuty.IsOnService)

	valetsRepo := NewRepository(db)
	valet.Status = enums.ValetStatusCustomerReturnStarted
	require.NoError(t, valetsRepo.Update(ctx, valet))

	closed, err := svc.Update(ctx, UpdateValetInput{
		Actor:   driverActor(seeded.driver.ID),
		ValetID: valet.ID,
		Target:  enums.ValetStatusCustomerReturnCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ValetStatusCustomerReturnCompleted, closed.Status)
	assert.NotNil(t, closed.ReturnEndTime)

	finalAssign, err := assignsRepo.FindByID(ctx, seeded.assign.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssignStatusCompleted, finalAssign.Status)

	finalOrder, err := orders.NewRepository(db).FindByID(ctx, seeded.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusCompleted, finalOrder.Status)

	releasedLoaner, err := vehicles.NewRepository(db).FindByID(ctx, seeded.loaner.ID)
	require.NoError(t, err)
	assert.True(t, releasedLoaner.Available)

	freedDriver, err := users.NewRepository(db).FindByID(ctx, seeded.driver.ID)
	require.NoError(t, err)
	assert.False(t, freedDriver.IsOnService)
}

func TestWorkflowCreateRollsBackAllWrites(t *testing.T) {
	db := setupWorkflowTestDB(t)
	seeded := seedWorkflowRecords(t, db)
	drivers := &haltingDriverDirectory{
		Repository: users.NewRepository(db),
		flipErr:    gorm.ErrInvalidTransaction,
	}
	svc := newDatabaseService(t, db, drivers)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateValetInput{
		Actor:      driverActor(seeded.driver.ID),
		OrderID:    seeded.order.ID,
		CustomerID: seeded.order.CustomerID,
		Check:      validCheck(),
	})
	require.Error(t, err)

	// The valet row, the order status flip, and the assignment hand-off all
	// happened inside the failed transaction; none may survive it.
	exists, err := NewRepository(db).ExistsByOrder(ctx, seeded.order.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	order, err := orders.NewRepository(db).FindByID(ctx, seeded.order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusAccepted, order.Status)

	assign, err := assignments.NewRepository(db).FindByID(ctx, seeded.assign.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssignStatusAccepted, assign.Status)

	driver, err := users.NewRepository(db).FindByID(ctx, seeded.driver.ID)
	require.NoError(t, err)
	assert.False(t, driver.IsOnService)
}
