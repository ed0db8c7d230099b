package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/valetflow-backend/api/middleware"
	"github.com/angelmondragon/valetflow-backend/api/responses"
	"github.com/angelmondragon/valetflow-backend/api/validators"
	"github.com/angelmondragon/valetflow-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
)

type createOrderRequest struct {
	VehicleID           string  `json:"vehicleId" validate:"required,uuid4"`
	ServicePackageID    string  `json:"servicePackageId" validate:"required,uuid4"`
	DealershipID        string  `json:"dealershipId" validate:"required,uuid4"`
	DeliveryDate        string  `json:"deliveryDate" validate:"required"`
	PickupLocation      string  `json:"pickupLocation" validate:"required"`
	Notes               *string `json:"notes,omitempty"`
	ValetVehicleRequest bool    `json:"valetVehicleRequest"`
}

// CreateOrder opens a new service/delivery order for the customer.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deliveryDate, err := time.Parse(time.RFC3339, req.DeliveryDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "deliveryDate must be RFC3339"))
			return
		}

		vehicleID, err := parseBodyID("vehicleId", req.VehicleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		servicePackageID, err := parseBodyID("servicePackageId", req.ServicePackageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealershipID, err := parseBodyID("dealershipId", req.DealershipID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), orders.CreateOrderInput{
			Actor:               actor,
			VehicleID:           vehicleID,
			ServicePackageID:    servicePackageID,
			DealershipID:        dealershipID,
			DeliveryDate:        deliveryDate,
			PickupLocation:      req.PickupLocation,
			Notes:               req.Notes,
			ValetVehicleRequest: req.ValetVehicleRequest,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// GetOrder returns one order scoped to the requester.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders returns the actor's slice of orders.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
