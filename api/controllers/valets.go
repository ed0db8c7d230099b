package controllers

import (
	"net/http"

	"github.com/angelmondragon/valetflow-backend/api/middleware"
	"github.com/angelmondragon/valetflow-backend/api/responses"
	"github.com/angelmondragon/valetflow-backend/api/validators"
	"github.com/angelmondragon/valetflow-backend/internal/valets"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
)

type vehicleCheckRequest struct {
	FrontImage string `json:"frontImage" validate:"required"`
	BackImage  string `json:"backImage" validate:"required"`
	LeftImage  string `json:"leftImage" validate:"required"`
	RightImage string `json:"rightImage" validate:"required"`
	Mileage    *int   `json:"mileage" validate:"required,min=0"`
	GasLevel   *int   `json:"gasLevel" validate:"required,min=0,max=100"`
}

func (v vehicleCheckRequest) toInput() valets.CheckInput {
	return valets.CheckInput{
		FrontImage: v.FrontImage,
		BackImage:  v.BackImage,
		LeftImage:  v.LeftImage,
		RightImage: v.RightImage,
		Mileage:    v.Mileage,
		GasLevel:   v.GasLevel,
	}
}

type createValetRequest struct {
	OrderID    string              `json:"orderId" validate:"required,uuid4"`
	CustomerID string              `json:"customerId" validate:"required,uuid4"`
	Check      vehicleCheckRequest `json:"check" validate:"required"`
	Comments   *string             `json:"comments,omitempty"`
}

// CreateValet starts a pickup run for an order.
func CreateValet(svc valets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createValetRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseBodyID("orderId", req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := parseBodyID("customerId", req.CustomerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		valet, err := svc.Create(r.Context(), valets.CreateValetInput{
			Actor:      actor,
			OrderID:    orderID,
			CustomerID: customerID,
			DriverID:   actor.UserID,
			Check:      req.Check.toInput(),
			Comments:   req.Comments,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, valet)
	}
}

type updateValetRequest struct {
	State string               `json:"state" validate:"required"`
	Check *vehicleCheckRequest `json:"check,omitempty"`
}

// UpdateValetState advances a valet through its state machine.
func UpdateValetState(svc valets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		valetID, err := parseIDParam(r, "valetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateValetRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseValetStatus(req.State)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid valet state"))
			return
		}

		input := valets.UpdateValetInput{
			Actor:   actor,
			ValetID: valetID,
			Target:  target,
		}
		if req.Check != nil {
			check := req.Check.toInput()
			input.Check = &check
		}

		valet, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, valet)
	}
}

// ValetExists reports whether an order already has a valet run.
func ValetExists(svc valets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		exists, err := svc.Exists(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"exists": exists})
	}
}

// GetValetByOrder returns the valet run for an order.
func GetValetByOrder(svc valets.Service, logg *logger.Logger) http.HandlerFunc {
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

		valet, err := svc.GetByOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, valet)
	}
}

// ListStartedValets returns the driver's in-flight runs, newest first.
func ListStartedValets(svc valets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListStartedForDriver(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListValets returns all valet runs for staff.
func ListValets(svc valets.Service, logg *logger.Logger) http.HandlerFunc {
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

type sendLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

// SendDriverLocation publishes a live tracking coordinate for a valet run.
func SendDriverLocation(svc valets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		valetID, err := parseIDParam(r, "valetId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req sendLocationRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SendDriverLocation(r.Context(), valets.SendLocationInput{
			Actor:     actor,
			ValetID:   valetID,
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "published"})
	}
}
