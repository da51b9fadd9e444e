package workorders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/api/responses"
	"github.com/angelmondragon/loomworks-backend/api/validators"
	workordersvc "github.com/angelmondragon/loomworks-backend/internal/workorders"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
)

// ListArtisans returns active artisans unless ?all=true is given.
func ListArtisans(svc workordersvc.LaborService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "labor service unavailable"))
			return
		}
		all, err := validators.ParseQueryBool(r, "all")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artisans, err := svc.ListArtisans(r.Context(), all == nil || !*all)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artisans)
	}
}

func CreateArtisan(svc workordersvc.LaborService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "labor service unavailable"))
			return
		}
		var payload createArtisanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artisan, err := svc.CreateArtisan(r.Context(), workordersvc.CreateArtisanInput{
			Name:       validators.SanitizeString(payload.Name, 200),
			Email:      validators.SanitizeString(payload.Email, 254),
			Phone:      validators.SanitizeString(payload.Phone, 64),
			Specialty:  validators.SanitizeString(payload.Specialty, 200),
			HourlyRate: payload.HourlyRate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, artisan)
	}
}

// AssignArtisan records labor against a work order.
func AssignArtisan(svc workordersvc.LaborService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "labor service unavailable"))
			return
		}
		workOrderID, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assignArtisanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artisanID, err := uuid.Parse(strings.TrimSpace(payload.ArtisanID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid artisan id"))
			return
		}
		input := workordersvc.AssignArtisanInput{
			WorkOrderID: workOrderID,
			ArtisanID:   artisanID,
			Cost:        payload.Cost,
			Notes:       validators.SanitizeString(payload.Notes, 2000),
		}
		if payload.Stage != nil {
			stage, err := enums.ParseProductionStage(strings.TrimSpace(*payload.Stage))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stage"))
				return
			}
			input.Stage = &stage
		}

		assignment, err := svc.AssignArtisan(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, assignment)
	}
}

func ListUnpaidAssignments(svc workordersvc.LaborService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "labor service unavailable"))
			return
		}
		rows, err := svc.ListUnpaidAssignments(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

func UpdateAssignmentPayment(svc workordersvc.LaborService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "labor service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParsePaymentStatus(strings.TrimSpace(payload.PaymentStatus))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}
		assignment, err := svc.UpdateAssignmentPayment(r.Context(), workordersvc.UpdateAssignmentPaymentInput{
			AssignmentID:  id,
			PaymentStatus: status,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

type createArtisanRequest struct {
	Name       string           `json:"name" validate:"required,max=200"`
	Email      string           `json:"email" validate:"omitempty,email"`
	Phone      string           `json:"phone" validate:"omitempty,max=64"`
	Specialty  string           `json:"specialty" validate:"omitempty,max=200"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty"`
}

type assignArtisanRequest struct {
	ArtisanID string          `json:"artisan_id" validate:"required,uuid"`
	Stage     *string         `json:"stage,omitempty"`
	Cost      decimal.Decimal `json:"cost"`
	Notes     string          `json:"notes" validate:"omitempty,max=2000"`
}

type paymentRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}
