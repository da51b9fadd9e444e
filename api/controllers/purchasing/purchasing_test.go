package purchasing

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/api/middleware"
	purchasingsvc "github.com/angelmondragon/loomworks-backend/internal/purchasing"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
	"github.com/angelmondragon/loomworks-backend/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withParam(req *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestReceive(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()
	actorID := uuid.New()

	t.Run("explicit items", func(t *testing.T) {
		stub := &stubService{}
		body := `{"items":[{"item_id":"` + itemID.String() + `","quantity_received":"4.5"}]}`
		req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), "id", orderID.String())
		req = req.WithContext(middleware.WithUserID(req.Context(), actorID.String()))
		rec := httptest.NewRecorder()
		Receive(stub, testLogger()).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
		}
		got := stub.lastReceive
		if got.PurchaseOrderID != orderID || len(got.Items) != 1 || got.Items[0].ItemID != itemID {
			t.Fatalf("unexpected input %+v", got)
		}
		if !got.Items[0].QuantityReceived.Equal(decimal.RequireFromString("4.5")) {
			t.Fatalf("unexpected quantity %s", got.Items[0].QuantityReceived)
		}
		if got.ReceivedBy == nil || *got.ReceivedBy != actorID {
			t.Fatalf("expected receiver forwarded")
		}
	})

	t.Run("empty body receives all", func(t *testing.T) {
		stub := &stubService{}
		req := withParam(httptest.NewRequest(http.MethodPost, "/", nil), "id", orderID.String())
		rec := httptest.NewRecorder()
		Receive(stub, testLogger()).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
		}
		if len(stub.lastReceive.Items) != 0 {
			t.Fatalf("expected no explicit items")
		}
	})

	t.Run("invalid item id", func(t *testing.T) {
		stub := &stubService{}
		req := withParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"items":[{"item_id":"bad","quantity_received":1}]}`)), "id", orderID.String())
		rec := httptest.NewRecorder()
		Receive(stub, testLogger()).ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
		if stub.receiveCalls != 0 {
			t.Fatalf("service should not be called")
		}
	})

	t.Run("already received", func(t *testing.T) {
		stub := &stubService{receiveErr: pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order already received")}
		req := withParam(httptest.NewRequest(http.MethodPost, "/", nil), "id", orderID.String())
		rec := httptest.NewRecorder()
		Receive(stub, testLogger()).ServeHTTP(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422 got %d", rec.Code)
		}
	})
}

func TestCreateOrder(t *testing.T) {
	supplierID := uuid.New()
	materialID := uuid.New()

	t.Run("requires items", func(t *testing.T) {
		stub := &stubService{}
		rec := httptest.NewRecorder()
		body := `{"supplier_id":"` + supplierID.String() + `","items":[]}`
		Create(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 got %d", rec.Code)
		}
	})

	t.Run("created", func(t *testing.T) {
		stub := &stubService{}
		rec := httptest.NewRecorder()
		body := `{"supplier_id":"` + supplierID.String() + `","expected_date":"2026-11-02","items":[{"material_id":"` + materialID.String() + `","quantity_ordered":"20","unit_price":"3.10"}]}`
		Create(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
		}
		got := stub.lastCreate
		if got.SupplierID != supplierID || got.ExpectedDate == nil || len(got.Items) != 1 {
			t.Fatalf("unexpected input %+v", got)
		}
		if got.Items[0].MaterialID != materialID || !got.Items[0].UnitPrice.Equal(decimal.RequireFromString("3.10")) {
			t.Fatalf("unexpected item %+v", got.Items[0])
		}
	})
}

func TestUpdateOrder(t *testing.T) {
	id := uuid.New()
	stub := &stubService{}
	body := `{"status":"ordered","order_date":"2026-10-01","paid_status":"paid","paid_amount":"120.00"}`
	req := withParam(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body)), "id", id.String())
	rec := httptest.NewRecorder()
	Update(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	got := stub.lastUpdate
	if got.Status == nil || *got.Status != enums.PurchaseOrderStatusOrdered {
		t.Fatalf("expected status forwarded")
	}
	if got.OrderDate == nil || got.OrderDate.Day() != 1 {
		t.Fatalf("expected order date forwarded")
	}
	if got.PaidStatus == nil || *got.PaidStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected paid status forwarded")
	}

	req = withParam(httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"status":"shipped"}`)), "id", id.String())
	rec = httptest.NewRecorder()
	Update(stub, testLogger()).ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestListOrdersAndSuppliers(t *testing.T) {
	stub := &stubService{}
	rec := httptest.NewRecorder()
	List(stub, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?status=draft&limit=10", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if stub.lastFilters.Status == nil || *stub.lastFilters.Status != enums.PurchaseOrderStatusDraft || stub.lastParams.Limit != 10 {
		t.Fatalf("unexpected filters %+v %+v", stub.lastFilters, stub.lastParams)
	}

	suppliers := &stubSupplierService{}
	rec = httptest.NewRecorder()
	ListSuppliers(suppliers, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !suppliers.activeOnly {
		t.Fatalf("expected active-only listing by default")
	}
	rec = httptest.NewRecorder()
	ListSuppliers(suppliers, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?all=true", nil))
	if suppliers.activeOnly {
		t.Fatalf("expected all suppliers when requested")
	}

	rec = httptest.NewRecorder()
	CreateSupplier(suppliers, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Andes Fibers","email":"not-an-email"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	CreateSupplier(suppliers, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Andes Fibers","lead_time_days":14}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
}

type stubService struct {
	receiveCalls int
	lastReceive  purchasingsvc.ReceiveInput
	receiveErr   error
	lastCreate   purchasingsvc.CreatePurchaseOrderInput
	lastUpdate   purchasingsvc.UpdatePurchaseOrderInput
	lastFilters  purchasingsvc.OrderFilters
	lastParams   pagination.Params
}

func (s *stubService) Create(_ context.Context, input purchasingsvc.CreatePurchaseOrderInput) (*purchasingsvc.PurchaseOrderDetail, error) {
	s.lastCreate = input
	return &purchasingsvc.PurchaseOrderDetail{}, nil
}

func (s *stubService) Receive(_ context.Context, input purchasingsvc.ReceiveInput) (*purchasingsvc.ReceiveResult, error) {
	s.receiveCalls++
	s.lastReceive = input
	if s.receiveErr != nil {
		return nil, s.receiveErr
	}
	return &purchasingsvc.ReceiveResult{Status: enums.PurchaseOrderStatusReceived, FullyReceived: true}, nil
}

func (s *stubService) Update(_ context.Context, input purchasingsvc.UpdatePurchaseOrderInput) (*purchasingsvc.PurchaseOrderDetail, error) {
	s.lastUpdate = input
	return &purchasingsvc.PurchaseOrderDetail{}, nil
}

func (s *stubService) Delete(context.Context, uuid.UUID) error { return nil }

func (s *stubService) Get(_ context.Context, id uuid.UUID) (*purchasingsvc.PurchaseOrderDetail, error) {
	return &purchasingsvc.PurchaseOrderDetail{PurchaseOrder: models.PurchaseOrder{ID: id}}, nil
}

func (s *stubService) List(_ context.Context, filters purchasingsvc.OrderFilters, params pagination.Params) (*types.Page[models.PurchaseOrder], error) {
	s.lastFilters = filters
	s.lastParams = params
	return &types.Page[models.PurchaseOrder]{Items: []models.PurchaseOrder{}}, nil
}

func (s *stubService) ListUnpaid(context.Context) ([]models.PurchaseOrder, error) {
	return []models.PurchaseOrder{}, nil
}

type stubSupplierService struct {
	activeOnly bool
}

func (s *stubSupplierService) CreateSupplier(_ context.Context, input purchasingsvc.CreateSupplierInput) (*models.Supplier, error) {
	return &models.Supplier{ID: uuid.New(), Name: input.Name}, nil
}

func (s *stubSupplierService) GetSupplier(_ context.Context, id uuid.UUID) (*models.Supplier, error) {
	return &models.Supplier{ID: id}, nil
}

func (s *stubSupplierService) ListSuppliers(_ context.Context, activeOnly bool) ([]models.Supplier, error) {
	s.activeOnly = activeOnly
	return []models.Supplier{}, nil
}
