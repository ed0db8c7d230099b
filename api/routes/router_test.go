package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/api/controllers"
	"github.com/angelmondragon/valetflow-backend/api/middleware"
	"github.com/angelmondragon/valetflow-backend/internal/assignments"
	dealershipsvc "github.com/angelmondragon/valetflow-backend/internal/dealerships"
	ordersvc "github.com/angelmondragon/valetflow-backend/internal/orders"
	"github.com/angelmondragon/valetflow-backend/internal/valets"
	"github.com/angelmondragon/valetflow-backend/internal/vehicles"
	"github.com/angelmondragon/valetflow-backend/pkg/config"
	"github.com/angelmondragon/valetflow-backend/pkg/db/models"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
	"github.com/angelmondragon/valetflow-backend/pkg/types"
	"gorm.io/gorm"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAssignService struct {
	assignCalls int
}

func (s *stubAssignService) Assign(ctx context.Context, input assignments.AssignOrderInput) (*models.AssignedOrder, error) {
	s.assignCalls++
	return &models.AssignedOrder{ID: uuid.New(), OrderID: input.OrderID, Status: enums.AssignStatusAssigned}, nil
}

func (s *stubAssignService) Accept(ctx context.Context, input assignments.AcceptOrderInput) (*models.AssignedOrder, error) {
	return &models.AssignedOrder{ID: input.AssignID, Status: enums.AssignStatusAccepted}, nil
}

func (s *stubAssignService) Reject(ctx context.Context, input assignments.RejectOrderInput) (*models.AssignedOrder, error) {
	return &models.AssignedOrder{ID: input.AssignID}, nil
}

func (s *stubAssignService) Get(ctx context.Context, actor types.Actor, assignID uuid.UUID) (*models.AssignedOrder, error) {
	return &models.AssignedOrder{ID: assignID}, nil
}

func (s *stubAssignService) GetByOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.AssignedOrder, error) {
	return &models.AssignedOrder{OrderID: orderID}, nil
}

func (s *stubAssignService) List(ctx context.Context, actor types.Actor, statuses []enums.AssignStatus, params pagination.Params) (*assignments.AssignedOrderList, error) {
	return &assignments.AssignedOrderList{}, nil
}

func (s *stubAssignService) ListUnconfirmed(ctx context.Context, actor types.Actor, params pagination.Params) (*assignments.AssignedOrderList, error) {
	return &assignments.AssignedOrderList{}, nil
}

func (s *stubAssignService) ListConfirmed(ctx context.Context, actor types.Actor, params pagination.Params) (*assignments.AssignedOrderList, error) {
	return &assignments.AssignedOrderList{}, nil
}

type stubValetService struct{}

func (stubValetService) Create(ctx context.Context, input valets.CreateValetInput) (*models.Valet, error) {
	return &models.Valet{ID: uuid.New(), OrderID: input.OrderID}, nil
}

func (stubValetService) Update(ctx context.Context, input valets.UpdateValetInput) (*models.Valet, error) {
	return &models.Valet{ID: input.ValetID}, nil
}

func (stubValetService) Exists(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return false, nil
}

func (stubValetService) GetByOrder(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.Valet, error) {
	return &models.Valet{OrderID: orderID}, nil
}

func (stubValetService) ListStartedForDriver(ctx context.Context, actor types.Actor) ([]models.Valet, error) {
	return nil, nil
}

func (stubValetService) List(ctx context.Context, actor types.Actor, params pagination.Params) (*valets.ValetList, error) {
	return &valets.ValetList{}, nil
}

func (stubValetService) SendDriverLocation(ctx context.Context, input valets.SendLocationInput) error {
	return nil
}

type stubOrderService struct{}

func (stubOrderService) Create(ctx context.Context, input ordersvc.CreateOrderInput) (*models.Order, error) {
	return &models.Order{ID: uuid.New(), Status: enums.OrderStatusInitiated}, nil
}

func (stubOrderService) Get(ctx context.Context, actor types.Actor, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

func (stubOrderService) List(ctx context.Context, actor types.Actor, params pagination.Params) (*ordersvc.OrderList, error) {
	return &ordersvc.OrderList{}, nil
}

type stubDealershipService struct{}

func (stubDealershipService) ConfirmMembership(ctx context.Context, input dealershipsvc.ConfirmMembershipInput) (*models.DealershipMembership, error) {
	return &models.DealershipMembership{ID: input.MembershipID}, nil
}

func (stubDealershipService) ListMemberships(ctx context.Context, actor types.Actor, dealershipID uuid.UUID) ([]models.DealershipMembership, error) {
	return nil, nil
}

func (stubDealershipService) Get(ctx context.Context, id uuid.UUID) (*models.Dealership, error) {
	return &models.Dealership{ID: id}, nil
}

type stubVehicleRepo struct{}

func (s stubVehicleRepo) WithTx(tx *gorm.DB) vehicles.Repository {
	return s
}

func (stubVehicleRepo) Create(ctx context.Context, vehicle *models.Vehicle) (*models.Vehicle, error) {
	panic("not implemented")
}

func (stubVehicleRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Vehicle, error) {
	panic("not implemented")
}

func (stubVehicleRepo) ListLoaners(ctx context.Context, dealershipID uuid.UUID, availableOnly bool) ([]models.Vehicle, error) {
	return []models.Vehicle{{ID: uuid.New(), Loaner: true, Available: true}}, nil
}

func (stubVehicleRepo) SetAvailability(ctx context.Context, tx *gorm.DB, id uuid.UUID, available bool) error {
	panic("not implemented")
}

type stubNotificationRepo struct{}

func (stubNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	return nil
}

func (stubNotificationRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]models.Notification, error) {
	return nil, nil
}

func (stubNotificationRepo) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return nil
}

// memoryIdemStore mimics the redis-backed store for middleware tests.
type memoryIdemStore struct {
	mu      sync.Mutex
	records map[string]string
}

func newMemoryIdemStore() *memoryIdemStore {
	return &memoryIdemStore{records: map[string]string{}}
}

func (s *memoryIdemStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[key], nil
}

func (s *memoryIdemStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[key]; exists {
		return false, nil
	}
	s.records[key] = fmt.Sprint(value)
	return true, nil
}

func (s *memoryIdemStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *memoryIdemStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "valetflow-test",
			ExpirationMinutes: 60,
		},
	}
}

type testDeps struct {
	assigns *stubAssignService
	idem    *memoryIdemStore
}

func newTestRouter(cfg *config.Config) (http.Handler, *testDeps) {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	deps := &testDeps{
		assigns: &stubAssignService{},
		idem:    newMemoryIdemStore(),
	}
	router := NewRouter(Deps{
		Config:      cfg,
		Logger:      logg,
		Idempotency: deps.idem,
		Pingers: map[string]controllers.Pinger{
			"database": stubPinger{},
			"redis":    stubPinger{},
		},
		Assignments:   deps.assigns,
		Valets:        stubValetService{},
		Orders:        stubOrderService{},
		Dealerships:   stubDealershipService{},
		Vehicles:      stubVehicleRepo{},
		Notifications: stubNotificationRepo{},
	})
	return router, deps
}

func buildToken(t *testing.T, cfg *config.Config, role enums.AccountType) string {
	t.Helper()
	now := time.Now()
	claims := middleware.AccessClaims{
		Role: role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func assignBody(t *testing.T) string {
	t.Helper()
	payload := map[string]any{
		"orderId":      uuid.NewString(),
		"driverIds":    []string{uuid.NewString()},
		"customerId":   uuid.NewString(),
		"dealershipId": uuid.NewString(),
		"assignType":   "INITIAL",
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return string(raw)
}

func TestHealthEndpointsNeedNoToken(t *testing.T) {
	router, _ := newTestRouter(testConfig())

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router, _ := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAssignmentCreateRequiresStaffRole(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)

	driver := httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(assignBody(t)))
	driver.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccountTypeDriver))
	driver.Header.Set("Content-Type", "application/json")
	driver.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, driver)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for driver got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(assignBody(t)))
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccountTypeManager))
	manager.Header.Set("Content-Type", "application/json")
	manager.Header.Set("Idempotency-Key", uuid.NewString())
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for manager got %d body %s", resp.Code, resp.Body.String())
	}
}

func TestAssignmentCreateRequiresIdempotencyKey(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(assignBody(t)))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccountTypeManager))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key got %d", resp.Code)
	}
}

func TestAssignmentCreateRejectsMalformedIDs(t *testing.T) {
	cfg := testConfig()
	router, deps := newTestRouter(cfg)

	payload := map[string]any{
		"orderId":      "not-a-uuid",
		"driverIds":    []string{uuid.NewString()},
		"customerId":   uuid.NewString(),
		"dealershipId": uuid.NewString(),
		"assignType":   "INITIAL",
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(string(raw)))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccountTypeManager))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed order id got %d", resp.Code)
	}
	if deps.assigns.assignCalls != 0 {
		t.Fatalf("service must not run on malformed input, got %d calls", deps.assigns.assignCalls)
	}
}

func TestAssignmentCreateReplaysStoredResponse(t *testing.T) {
	cfg := testConfig()
	router, deps := newTestRouter(cfg)

	body := assignBody(t)
	token := buildToken(t, cfg, enums.AccountTypeManager)
	key := uuid.NewString()

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assignments", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", key)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 on first call got %d", first.Code)
	}
	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201 got %d", second.Code)
	}
	if deps.assigns.assignCalls != 1 {
		t.Fatalf("expected a single service invocation got %d", deps.assigns.assignCalls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical replayed body")
	}
}

func TestValetCreateRequiresDriverRole(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/valets", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccountTypeManager))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manager got %d", resp.Code)
	}
}

func TestLoanerListRequiresStaffRole(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)

	driver := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/loaners?dealershipId="+uuid.NewString(), nil)
	driver.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccountTypeDriver))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, driver)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for driver got %d", resp.Code)
	}

	manager := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/loaners?dealershipId="+uuid.NewString(), nil)
	manager.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.AccountTypeManager))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, manager)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager got %d", resp.Code)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := testConfig()
	router, _ := newTestRouter(cfg)

	claims := middleware.AccessClaims{
		Role: enums.AccountTypeDriver.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			Issuer:    cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWT.Secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token got %d", resp.Code)
	}
}
