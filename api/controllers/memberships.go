package controllers

import (
	"net/http"

	"github.com/angelmondragon/valetflow-backend/api/middleware"
	"github.com/angelmondragon/valetflow-backend/api/responses"
	"github.com/angelmondragon/valetflow-backend/internal/dealerships"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
)

// ConfirmMembership approves a pending dealership membership.
func ConfirmMembership(svc dealerships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealershipID, err := parseIDParam(r, "dealershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		membershipID, err := parseIDParam(r, "membershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		membership, err := svc.ConfirmMembership(r.Context(), dealerships.ConfirmMembershipInput{
			Actor:        actor,
			DealershipID: dealershipID,
			MembershipID: membershipID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, membership)
	}
}

// ListMemberships returns a dealership's membership ledger.
func ListMemberships(svc dealerships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dealershipID, err := parseIDParam(r, "dealershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		memberships, err := svc.ListMemberships(r.Context(), actor, dealershipID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, memberships)
	}
}
