package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/api/middleware"
	"github.com/angelmondragon/valetflow-backend/api/responses"
	"github.com/angelmondragon/valetflow-backend/api/validators"
	"github.com/angelmondragon/valetflow-backend/internal/assignments"
	"github.com/angelmondragon/valetflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
	"github.com/angelmondragon/valetflow-backend/pkg/pagination"
)

type assignOrderRequest struct {
	OrderID         string   `json:"orderId" validate:"required,uuid4"`
	DriverIDs       []string `json:"driverIds" validate:"required,min=1,dive,uuid4"`
	CustomerID      string   `json:"customerId" validate:"required,uuid4"`
	DealershipID    string   `json:"dealershipId" validate:"required,uuid4"`
	AssignType      string   `json:"assignType" validate:"required"`
	LoanerVehicleID *string  `json:"loanerVehicleId,omitempty" validate:"omitempty,uuid4"`
	PaymentRequired bool     `json:"paymentRequired"`
	PaymentAmount   *int64   `json:"paymentAmountCents,omitempty"`
}

// AssignOrder hands an order to one or more candidate drivers.
func AssignOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req assignOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignType, err := enums.ParseAssignType(req.AssignType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid assign type"))
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
		dealershipID, err := parseBodyID("dealershipId", req.DealershipID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := assignments.AssignOrderInput{
			Actor:              actor,
			OrderID:            orderID,
			CustomerID:         customerID,
			DealershipID:       dealershipID,
			AssignType:         assignType,
			PaymentRequired:    req.PaymentRequired,
			PaymentAmountCents: req.PaymentAmount,
		}
		for _, raw := range req.DriverIDs {
			driverID, err := parseBodyID("driverIds", raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.DriverIDs = append(input.DriverIDs, driverID)
		}
		if req.LoanerVehicleID != nil {
			loanerID, err := parseBodyID("loanerVehicleId", *req.LoanerVehicleID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.LoanerVehicleID = &loanerID
		}

		assign, err := svc.Assign(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, assign)
	}
}

// AcceptOrder lets a candidate driver claim an assignment.
func AcceptOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignID, err := parseIDParam(r, "assignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assign, err := svc.Accept(r.Context(), assignments.AcceptOrderInput{Actor: actor, AssignID: assignID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assign)
	}
}

// RejectOrder records a driver's soft decline of an assignment.
func RejectOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignID, err := parseIDParam(r, "assignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assign, err := svc.Reject(r.Context(), assignments.RejectOrderInput{Actor: actor, AssignID: assignID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assign)
	}
}

// ListAssignments returns the actor's slice of assignments, optionally
// filtered by status.
func ListAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
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

		var statuses []enums.AssignStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				status, err := enums.ParseAssignStatus(strings.TrimSpace(part))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
					return
				}
				statuses = append(statuses, status)
			}
		}

		list, err := svc.List(r.Context(), actor, statuses, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListUnconfirmedAssignments returns assignments handed out but not claimed.
func ListUnconfirmedAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListUnconfirmed(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// ListConfirmedAssignments returns assignments a driver has claimed.
func ListConfirmedAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListConfirmed(r.Context(), actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetAssignment returns one assignment by id.
func GetAssignment(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		assignID, err := parseIDParam(r, "assignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assign, err := svc.Get(r.Context(), actor, assignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assign)
	}
}

// GetAssignmentByOrder returns the latest assignment for an order.
func GetAssignmentByOrder(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
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

		assign, err := svc.GetByOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assign)
	}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func parseBodyID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid id").WithDetails(map[string]any{"field": field})
	}
	return id, nil
}

func parsePagination(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "perPage", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, PerPage: perPage}, nil
}
