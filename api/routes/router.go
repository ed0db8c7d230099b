package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/valetflow-backend/api/controllers"
	"github.com/angelmondragon/valetflow-backend/api/middleware"
	"github.com/angelmondragon/valetflow-backend/internal/assignments"
	"github.com/angelmondragon/valetflow-backend/internal/dealerships"
	"github.com/angelmondragon/valetflow-backend/internal/notifications"
	"github.com/angelmondragon/valetflow-backend/internal/orders"
	"github.com/angelmondragon/valetflow-backend/internal/valets"
	"github.com/angelmondragon/valetflow-backend/internal/vehicles"
	"github.com/angelmondragon/valetflow-backend/pkg/config"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
	"github.com/angelmondragon/valetflow-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/valetflow-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	Idempotency   pkgredis.IdempotencyStore
	Pingers       map[string]controllers.Pinger
	HTTPMetrics   *metrics.HTTPMetrics
	Registry      *prometheus.Registry
	Assignments   assignments.Service
	Valets        valets.Service
	Orders        orders.Service
	Dealerships   dealerships.Service
	Vehicles      vehicles.Repository
	Notifications notifications.Repository
}

// NewRouter assembles the HTTP surface.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(d.Idempotency, logg))

		r.Route("/assignments", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.AccountTypeManager, enums.AccountTypeAdmin)).
				Post("/", controllers.AssignOrder(d.Assignments, logg))
			r.Get("/", controllers.ListAssignments(d.Assignments, logg))
			r.With(middleware.RequireRole(logg, enums.AccountTypeDriver)).
				Get("/unconfirmed", controllers.ListUnconfirmedAssignments(d.Assignments, logg))
			r.With(middleware.RequireRole(logg, enums.AccountTypeDriver)).
				Get("/confirmed", controllers.ListConfirmedAssignments(d.Assignments, logg))
			r.Get("/by-order/{orderId}", controllers.GetAssignmentByOrder(d.Assignments, logg))
			r.Get("/{assignId}", controllers.GetAssignment(d.Assignments, logg))
			r.With(middleware.RequireRole(logg, enums.AccountTypeDriver)).
				Post("/{assignId}/accept", controllers.AcceptOrder(d.Assignments, logg))
			r.With(middleware.RequireRole(logg, enums.AccountTypeDriver)).
				Post("/{assignId}/reject", controllers.RejectOrder(d.Assignments, logg))
		})

		r.Route("/valets", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.AccountTypeDriver)).
				Post("/", controllers.CreateValet(d.Valets, logg))
			r.With(middleware.RequireRole(logg, enums.AccountTypeManager, enums.AccountTypeAdmin)).
				Get("/", controllers.ListValets(d.Valets, logg))
			r.With(middleware.RequireRole(logg, enums.AccountTypeDriver)).
				Get("/started", controllers.ListStartedValets(d.Valets, logg))
			r.Get("/exists/{orderId}", controllers.ValetExists(d.Valets, logg))
			r.Get("/by-order/{orderId}", controllers.GetValetByOrder(d.Valets, logg))
			r.With(middleware.RequireRole(logg, enums.AccountTypeDriver)).
				Patch("/{valetId}/state", controllers.UpdateValetState(d.Valets, logg))
			r.With(middleware.RequireRole(logg, enums.AccountTypeDriver)).
				Post("/{valetId}/location", controllers.SendDriverLocation(d.Valets, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(logg, enums.AccountTypeCustomer)).
				Post("/", controllers.CreateOrder(d.Orders, logg))
			r.Get("/", controllers.ListOrders(d.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(d.Orders, logg))
		})

		r.With(middleware.RequireRole(logg, enums.AccountTypeManager, enums.AccountTypeAdmin)).
			Get("/vehicles/loaners", controllers.ListLoaners(d.Vehicles, logg))

		r.Route("/dealerships/{dealershipId}/memberships", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.AccountTypeManager, enums.AccountTypeAdmin))
			r.Get("/", controllers.ListMemberships(d.Dealerships, logg))
			r.Post("/{membershipId}/confirm", controllers.ConfirmMembership(d.Dealerships, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
		})
	})

	return r
}
