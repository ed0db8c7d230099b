package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/valetflow-backend/api/responses"
	"github.com/angelmondragon/valetflow-backend/internal/vehicles"
	pkgerrors "github.com/angelmondragon/valetflow-backend/pkg/errors"
	"github.com/angelmondragon/valetflow-backend/pkg/logger"
)

// ListLoaners returns a dealership's loaner pool, optionally only available
// vehicles.
func ListLoaners(repo vehicles.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawDealership := strings.TrimSpace(r.URL.Query().Get("dealershipId"))
		dealershipID, err := uuid.Parse(rawDealership)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "dealershipId query parameter required"))
			return
		}

		availableOnly := false
		if raw := strings.TrimSpace(r.URL.Query().Get("available")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid available value"))
				return
			}
			availableOnly = value
		}

		loaners, err := repo.ListLoaners(r.Context(), dealershipID, availableOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loaner vehicles"))
			return
		}
		responses.WriteSuccess(w, loaners)
	}
}
