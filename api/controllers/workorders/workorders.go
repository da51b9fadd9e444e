package workorders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/loomworks-backend/api/middleware"
	"github.com/angelmondragon/loomworks-backend/api/responses"
	"github.com/angelmondragon/loomworks-backend/api/validators"
	workordersvc "github.com/angelmondragon/loomworks-backend/internal/workorders"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
)

func List(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), filters, pagination.Params{
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

// Detail returns the work order with stage history, media and assignments.
func Detail(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// CreateFromOrder seeds one work order per purchased unit of a sales order.
func CreateFromOrder(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		orderID := strings.TrimSpace(chi.URLParam(r, "orderId"))
		if orderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id is required"))
			return
		}

		created, err := svc.CreateFromOrder(r.Context(), workordersvc.CreateFromOrderInput{
			OrderID: orderID,
			ActorID: middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func Update(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorID = middleware.ActorIDFromContext(r.Context())

		order, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Advance moves the work order one stage forward.
func Advance(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload advanceRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		assignedTo, err := parseOptionalUUID(payload.AssignedTo, "assigned_to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Advance(r.Context(), workordersvc.AdvanceInput{
			WorkOrderID: id,
			AssignedTo:  assignedTo,
			Notes:       validators.SanitizeString(payload.Notes, 2000),
			ActorID:     middleware.ActorIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// Lifecycle serves the hold, resume and cancel actions.
func Lifecycle(svc workordersvc.Service, action string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor := middleware.ActorIDFromContext(r.Context())

		var order *models.WorkOrder
		switch action {
		case "hold":
			order, err = svc.Hold(r.Context(), id, actor)
		case "resume":
			order, err = svc.Resume(r.Context(), id, actor)
		case "cancel":
			order, err = svc.Cancel(r.Context(), id, actor)
		default:
			err = pkgerrors.Newf(pkgerrors.CodeInternal, "unknown work order action %q", action)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Stages returns the stage history oldest first.
func Stages(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stages, err := svc.StageHistory(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stages)
	}
}

// ActiveStage returns the stage record derived from history.
func ActiveStage(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stage, err := svc.ActiveStage(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stage)
	}
}

func ListMedia(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		media, err := svc.ListMedia(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, media)
	}
}

func AttachMedia(svc workordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "work order service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload attachMediaRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input := workordersvc.AttachMediaInput{
			WorkOrderID: id,
			URL:         strings.TrimSpace(payload.URL),
			Caption:     validators.SanitizeString(payload.Caption, 500),
			UploadedBy:  middleware.ActorIDFromContext(r.Context()),
		}
		if payload.Kind != "" {
			kind, err := enums.ParseMediaKind(strings.TrimSpace(payload.Kind))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media kind"))
				return
			}
			input.Kind = kind
		}
		if payload.Stage != nil {
			stage, err := enums.ParseProductionStage(strings.TrimSpace(*payload.Stage))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stage"))
				return
			}
			input.Stage = &stage
		}

		media, err := svc.AttachMedia(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, media)
	}
}

type updateRequest struct {
	Priority          *string `json:"priority,omitempty"`
	DueDate           *string `json:"due_date,omitempty"`
	Notes             *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	AssignedArtisanID *string `json:"assigned_artisan_id,omitempty" validate:"omitempty,uuid"`
	Status            *string `json:"status,omitempty"`
}

func (r updateRequest) toInput(id uuid.UUID) (workordersvc.UpdateInput, error) {
	input := workordersvc.UpdateInput{ID: id, Notes: r.Notes}
	if r.Priority != nil {
		priority, err := enums.ParseWorkOrderPriority(strings.TrimSpace(*r.Priority))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
		}
		input.Priority = &priority
	}
	if r.Status != nil {
		status, err := enums.ParseWorkOrderStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	if r.DueDate != nil {
		due, err := validators.ParseDate(*r.DueDate, "due_date")
		if err != nil {
			return input, err
		}
		input.DueDate = due
	}
	artisanID, err := parseOptionalUUID(r.AssignedArtisanID, "assigned_artisan_id")
	if err != nil {
		return input, err
	}
	input.AssignedArtisanID = artisanID
	return input, nil
}

type advanceRequest struct {
	AssignedTo *string `json:"assigned_to,omitempty" validate:"omitempty,uuid"`
	Notes      string  `json:"notes" validate:"omitempty,max=2000"`
}

type attachMediaRequest struct {
	Stage   *string `json:"stage,omitempty"`
	Kind    string  `json:"kind"`
	URL     string  `json:"url" validate:"required,url"`
	Caption string  `json:"caption" validate:"omitempty,max=500"`
}

func buildListFilters(r *http.Request) (workordersvc.ListFilters, error) {
	var filters workordersvc.ListFilters
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("stage")); raw != "" {
		stage, err := enums.ParseProductionStage(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stage")
		}
		filters.Stage = &stage
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseWorkOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("priority")); raw != "" {
		priority, err := enums.ParseWorkOrderPriority(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
		}
		filters.Priority = &priority
	}
	artisanID, err := validators.ParseQueryUUID(r, "assigned_artisan_id")
	if err != nil {
		return filters, err
	}
	filters.AssignedArtisanID = artisanID
	filters.OrderID = strings.TrimSpace(q.Get("order_id"))
	return filters, nil
}

func parseOptionalUUID(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(*raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").WithDetails(map[string]any{"field": field})
	}
	return &id, nil
}
