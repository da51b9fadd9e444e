package workorders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/api/middleware"
	"github.com/angelmondragon/loomworks-backend/api/responses"
	"github.com/angelmondragon/loomworks-backend/api/validators"
	consumptionsvc "github.com/angelmondragon/loomworks-backend/internal/consumption"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
)

// Consume books material usage against the work order as an out movement.
func Consume(svc consumptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "consumption service unavailable"))
			return
		}
		workOrderID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload consumeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		materialID, err := uuid.Parse(strings.TrimSpace(payload.MaterialID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid material id"))
			return
		}

		result, err := svc.Consume(r.Context(), consumptionsvc.ConsumeInput{
			WorkOrderID: workOrderID,
			MaterialID:  materialID,
			Quantity:    payload.Quantity,
			Notes:       validators.SanitizeString(payload.Notes, 2000),
			CreatedBy:   middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// MaterialCost prices everything consumed by the work order at current cost.
func MaterialCost(svc consumptionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "consumption service unavailable"))
			return
		}
		workOrderID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		report, err := svc.MaterialCost(r.Context(), workOrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

type consumeRequest struct {
	MaterialID string          `json:"material_id" validate:"required,uuid"`
	Quantity   decimal.Decimal `json:"quantity"`
	Notes      string          `json:"notes" validate:"omitempty,max=2000"`
}
