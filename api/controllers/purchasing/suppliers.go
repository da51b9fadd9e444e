package purchasing

import (
	"net/http"

	"github.com/angelmondragon/loomworks-backend/api/responses"
	"github.com/angelmondragon/loomworks-backend/api/validators"
	purchasingsvc "github.com/angelmondragon/loomworks-backend/internal/purchasing"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
)

// ListSuppliers returns active suppliers unless ?all=true is given.
func ListSuppliers(svc purchasingsvc.SupplierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}
		all, err := validators.ParseQueryBool(r, "all")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		suppliers, err := svc.ListSuppliers(r.Context(), all == nil || !*all)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suppliers)
	}
}

func GetSupplier(svc purchasingsvc.SupplierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := svc.GetSupplier(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

func CreateSupplier(svc purchasingsvc.SupplierService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "supplier service unavailable"))
			return
		}
		var payload createSupplierRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := svc.CreateSupplier(r.Context(), purchasingsvc.CreateSupplierInput{
			Name:         validators.SanitizeString(payload.Name, 200),
			ContactName:  validators.SanitizeString(payload.ContactName, 200),
			Email:        validators.SanitizeString(payload.Email, 254),
			Phone:        validators.SanitizeString(payload.Phone, 64),
			Address:      validators.SanitizeString(payload.Address, 500),
			Notes:        validators.SanitizeString(payload.Notes, 2000),
			LeadTimeDays: payload.LeadTimeDays,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

type createSupplierRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	ContactName  string `json:"contact_name" validate:"omitempty,max=200"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"omitempty,max=64"`
	Address      string `json:"address" validate:"omitempty,max=500"`
	Notes        string `json:"notes" validate:"omitempty,max=2000"`
	LeadTimeDays *int   `json:"lead_time_days,omitempty" validate:"omitempty,min=0"`
}
