package inventory

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/api/middleware"
	"github.com/angelmondragon/loomworks-backend/api/responses"
	"github.com/angelmondragon/loomworks-backend/api/validators"
	inventorysvc "github.com/angelmondragon/loomworks-backend/internal/inventory"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
)

// ListMaterials returns the catalog, optionally filtered by category, supplier,
// active flag and a name/SKU search term.
func ListMaterials(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		filters, err := buildMaterialFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		materials, err := svc.ListMaterials(r.Context(), filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, materials)
	}
}

// ListLowStock returns active materials at or below their minimum level.
func ListLowStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		materials, err := svc.LowStockMaterials(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, materials)
	}
}

func GetMaterial(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		material, err := svc.GetMaterial(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, material)
	}
}

func CreateMaterial(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		var payload createMaterialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.CreatedBy = middleware.ActorIDFromContext(r.Context())

		material, err := svc.CreateMaterial(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, material)
	}
}

// UpdateMaterial patches catalog fields. Stock is not writable here; use the
// adjust endpoint.
func UpdateMaterial(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateMaterialRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		material, err := svc.UpdateMaterial(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, material)
	}
}

// DeactivateMaterial soft-deletes a material so its ledger history survives.
func DeactivateMaterial(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.DeactivateMaterial(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type createMaterialRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	SKU           string          `json:"sku" validate:"omitempty,max=64"`
	Description   string          `json:"description" validate:"omitempty,max=2000"`
	Category      string          `json:"category" validate:"required"`
	Unit          string          `json:"unit" validate:"required"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit"`
	SupplierID    *string         `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	InitialStock  decimal.Decimal `json:"initial_stock"`
}

func (r createMaterialRequest) toInput() (inventorysvc.CreateMaterialInput, error) {
	category, err := enums.ParseMaterialCategory(strings.TrimSpace(r.Category))
	if err != nil {
		return inventorysvc.CreateMaterialInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
	}
	unit, err := enums.ParseMaterialUnit(strings.TrimSpace(r.Unit))
	if err != nil {
		return inventorysvc.CreateMaterialInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit")
	}
	supplierID, err := parseOptionalUUID(r.SupplierID, "supplier_id")
	if err != nil {
		return inventorysvc.CreateMaterialInput{}, err
	}
	return inventorysvc.CreateMaterialInput{
		Name:          validators.SanitizeString(r.Name, 200),
		SKU:           validators.SanitizeString(r.SKU, 64),
		Description:   validators.SanitizeString(r.Description, 2000),
		Category:      category,
		Unit:          unit,
		MinStockLevel: r.MinStockLevel,
		CostPerUnit:   r.CostPerUnit,
		SupplierID:    supplierID,
		InitialStock:  r.InitialStock,
	}, nil
}

type updateMaterialRequest struct {
	Name          *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	SKU           *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Description   *string          `json:"description,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Unit          *string          `json:"unit,omitempty"`
	MinStockLevel *decimal.Decimal `json:"min_stock_level,omitempty"`
	CostPerUnit   *decimal.Decimal `json:"cost_per_unit,omitempty"`
	SupplierID    *string          `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

func (r updateMaterialRequest) toInput(id uuid.UUID) (inventorysvc.UpdateMaterialInput, error) {
	input := inventorysvc.UpdateMaterialInput{
		ID:            id,
		Name:          r.Name,
		SKU:           r.SKU,
		Description:   r.Description,
		MinStockLevel: r.MinStockLevel,
		CostPerUnit:   r.CostPerUnit,
		IsActive:      r.IsActive,
	}
	if r.Category != nil {
		category, err := enums.ParseMaterialCategory(strings.TrimSpace(*r.Category))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		input.Category = &category
	}
	if r.Unit != nil {
		unit, err := enums.ParseMaterialUnit(strings.TrimSpace(*r.Unit))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit")
		}
		input.Unit = &unit
	}
	supplierID, err := parseOptionalUUID(r.SupplierID, "supplier_id")
	if err != nil {
		return input, err
	}
	input.SupplierID = supplierID
	return input, nil
}

func buildMaterialFilters(r *http.Request) (inventorysvc.MaterialFilters, error) {
	var filters inventorysvc.MaterialFilters
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("category")); raw != "" {
		category, err := enums.ParseMaterialCategory(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category")
		}
		filters.Category = &category
	}
	active, err := validators.ParseQueryBool(r, "active")
	if err != nil {
		return filters, err
	}
	filters.Active = active
	supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
	if err != nil {
		return filters, err
	}
	filters.SupplierID = supplierID
	filters.Search = validators.SanitizeString(q.Get("search"), 100)
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
