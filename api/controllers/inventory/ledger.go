package inventory

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/api/middleware"
	"github.com/angelmondragon/loomworks-backend/api/responses"
	"github.com/angelmondragon/loomworks-backend/api/validators"
	inventorysvc "github.com/angelmondragon/loomworks-backend/internal/inventory"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
)

// AdjustStock books one movement against a material. For type "adjust" the
// quantity is the counted stock level, otherwise it is the moved amount.
func AdjustStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		materialID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		workOrderID, err := parseOptionalUUID(payload.WorkOrderID, "work_order_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AdjustStock(r.Context(), inventorysvc.AdjustStockInput{
			MaterialID:  materialID,
			Quantity:    payload.Quantity,
			Type:        enums.MovementType(strings.ToLower(strings.TrimSpace(payload.Type))),
			Reason:      validators.SanitizeString(payload.Reason, 200),
			Notes:       validators.SanitizeString(payload.Notes, 2000),
			WorkOrderID: workOrderID,
			CreatedBy:   middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListMovements pages through the ledger newest first.
func ListMovements(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildMovementFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListMovements(r.Context(), filters, pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type adjustStockRequest struct {
	Type        string          `json:"type" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason" validate:"omitempty,max=200"`
	Notes       string          `json:"notes" validate:"omitempty,max=2000"`
	WorkOrderID *string         `json:"work_order_id,omitempty" validate:"omitempty,uuid"`
}

func buildMovementFilters(r *http.Request) (inventorysvc.MovementFilters, error) {
	var filters inventorysvc.MovementFilters
	materialID, err := validators.ParseQueryUUID(r, "material_id")
	if err != nil {
		return filters, err
	}
	filters.MaterialID = materialID
	workOrderID, err := validators.ParseQueryUUID(r, "work_order_id")
	if err != nil {
		return filters, err
	}
	filters.WorkOrderID = workOrderID
	if raw := strings.TrimSpace(r.URL.Query().Get("type")); raw != "" {
		movementType, err := enums.ParseMovementType(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid movement type")
		}
		filters.Type = &movementType
	}
	return filters, nil
}
