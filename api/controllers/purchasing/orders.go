package purchasing

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/api/middleware"
	"github.com/angelmondragon/loomworks-backend/api/responses"
	"github.com/angelmondragon/loomworks-backend/api/validators"
	purchasingsvc "github.com/angelmondragon/loomworks-backend/internal/purchasing"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
)

func List(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := buildOrderFilters(r)
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

// ListUnpaid returns orders whose supplier invoice is not settled.
func ListUnpaid(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}
		orders, err := svc.ListUnpaid(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

func Detail(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
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

func Create(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}

		var payload createOrderRequest
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

		detail, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, detail)
	}
}

func Update(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput(id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// Delete removes a draft order.
func Delete(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// Receive credits stock for the listed lines. An empty or missing items array
// receives every outstanding balance.
func Receive(svc purchasingsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchasing service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload receiveRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input := purchasingsvc.ReceiveInput{
			PurchaseOrderID: id,
			ReceivedBy:      middleware.ActorIDFromContext(r.Context()),
		}
		for _, item := range payload.Items {
			itemID, err := uuid.Parse(strings.TrimSpace(item.ItemID))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			input.Items = append(input.Items, purchasingsvc.ReceiveItemInput{
				ItemID:           itemID,
				QuantityReceived: item.QuantityReceived,
			})
		}

		result, err := svc.Receive(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type createOrderRequest struct {
	SupplierID   string              `json:"supplier_id" validate:"required,uuid"`
	ExpectedDate string              `json:"expected_date,omitempty"`
	Notes        string              `json:"notes" validate:"omitempty,max=2000"`
	Items        []createItemRequest `json:"items" validate:"required,min=1,dive"`
}

type createItemRequest struct {
	MaterialID      string          `json:"material_id" validate:"required,uuid"`
	QuantityOrdered decimal.Decimal `json:"quantity_ordered"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

func (r createOrderRequest) toInput() (purchasingsvc.CreatePurchaseOrderInput, error) {
	supplierID, err := uuid.Parse(strings.TrimSpace(r.SupplierID))
	if err != nil {
		return purchasingsvc.CreatePurchaseOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid supplier id")
	}
	expected, err := validators.ParseDate(r.ExpectedDate, "expected_date")
	if err != nil {
		return purchasingsvc.CreatePurchaseOrderInput{}, err
	}
	items := make([]purchasingsvc.CreateItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		materialID, err := uuid.Parse(strings.TrimSpace(item.MaterialID))
		if err != nil {
			return purchasingsvc.CreatePurchaseOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid material id")
		}
		items = append(items, purchasingsvc.CreateItemInput{
			MaterialID:      materialID,
			QuantityOrdered: item.QuantityOrdered,
			UnitPrice:       item.UnitPrice,
		})
	}
	return purchasingsvc.CreatePurchaseOrderInput{
		SupplierID:   supplierID,
		ExpectedDate: expected,
		Notes:        validators.SanitizeString(r.Notes, 2000),
		Items:        items,
	}, nil
}

type updateOrderRequest struct {
	Status       *string          `json:"status,omitempty"`
	OrderDate    *string          `json:"order_date,omitempty"`
	ExpectedDate *string          `json:"expected_date,omitempty"`
	ReceivedDate *string          `json:"received_date,omitempty"`
	PaidStatus   *string          `json:"paid_status,omitempty"`
	PaidAt       *string          `json:"paid_at,omitempty"`
	PaidAmount   *decimal.Decimal `json:"paid_amount,omitempty"`
	Notes        *string          `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r updateOrderRequest) toInput(id uuid.UUID) (purchasingsvc.UpdatePurchaseOrderInput, error) {
	input := purchasingsvc.UpdatePurchaseOrderInput{
		ID:         id,
		PaidAmount: r.PaidAmount,
		Notes:      r.Notes,
	}
	if r.Status != nil {
		status, err := enums.ParsePurchaseOrderStatus(strings.TrimSpace(*r.Status))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	if r.PaidStatus != nil {
		paid, err := enums.ParsePaymentStatus(strings.TrimSpace(*r.PaidStatus))
		if err != nil {
			return input, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paid status")
		}
		input.PaidStatus = &paid
	}

	dates := []struct {
		raw   *string
		field string
		dest  **time.Time
	}{
		{r.OrderDate, "order_date", &input.OrderDate},
		{r.ExpectedDate, "expected_date", &input.ExpectedDate},
		{r.ReceivedDate, "received_date", &input.ReceivedDate},
		{r.PaidAt, "paid_at", &input.PaidAt},
	}
	for _, d := range dates {
		if d.raw == nil {
			continue
		}
		parsed, err := validators.ParseDate(*d.raw, d.field)
		if err != nil {
			return input, err
		}
		*d.dest = parsed
	}
	return input, nil
}

type receiveRequest struct {
	Items []receiveItemRequest `json:"items" validate:"omitempty,dive"`
}

type receiveItemRequest struct {
	ItemID           string          `json:"item_id" validate:"required,uuid"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
}

func buildOrderFilters(r *http.Request) (purchasingsvc.OrderFilters, error) {
	var filters purchasingsvc.OrderFilters
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParsePurchaseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("paid_status")); raw != "" {
		paid, err := enums.ParsePaymentStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paid status")
		}
		filters.PaidStatus = &paid
	}
	supplierID, err := validators.ParseQueryUUID(r, "supplier_id")
	if err != nil {
		return filters, err
	}
	filters.SupplierID = supplierID
	return filters, nil
}
