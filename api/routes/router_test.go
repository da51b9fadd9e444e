package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/internal/consumption"
	"github.com/angelmondragon/loomworks-backend/internal/inventory"
	"github.com/angelmondragon/loomworks-backend/internal/purchasing"
	"github.com/angelmondragon/loomworks-backend/internal/workorders"
	pkgauth "github.com/angelmondragon/loomworks-backend/pkg/auth"
	"github.com/angelmondragon/loomworks-backend/pkg/config"
	dbpkg "github.com/angelmondragon/loomworks-backend/pkg/db"
	"github.com/angelmondragon/loomworks-backend/pkg/db/dbtest"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/metrics"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type testEnv struct {
	handler http.Handler
	db      *gorm.DB
	cfg     *config.Config
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn := dbtest.Open(t)
	tx := dbpkg.FromGorm(conn)
	logg := logger.Nop()
	publisher := outbox.NewService(outbox.NewRepository(conn), logg)
	registry := prometheus.NewRegistry()
	prod := metrics.NewProductionMetrics(registry)

	inventoryService, err := inventory.NewService(inventory.NewRepository(conn), tx, publisher, prod, logg)
	require.NoError(t, err)
	purchasingRepo := purchasing.NewRepository(conn)
	purchasingService, err := purchasing.NewService(purchasingRepo, tx, inventoryService, publisher, logg)
	require.NoError(t, err)
	supplierService, err := purchasing.NewSupplierService(purchasingRepo)
	require.NoError(t, err)
	workOrderRepo := workorders.NewRepository(conn)
	workOrderService, err := workorders.NewService(workOrderRepo, tx, publisher, nil, prod, logg)
	require.NoError(t, err)
	laborService, err := workorders.NewLaborService(workOrderRepo)
	require.NoError(t, err)
	consumptionService, err := consumption.NewService(consumption.NewRepository(conn), tx, inventoryService, logg)
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "loomworks-test", ExpirationMinutes: 10},
	}
	handler := NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		registry,
		inventoryService,
		supplierService,
		purchasingService,
		workOrderService,
		laborService,
		consumptionService,
	)
	return testEnv{handler: handler, db: conn, cfg: cfg}
}

func (e testEnv) token(t *testing.T) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(e.cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:      uuid.New(),
		DisplayName: "Floor Lead",
	})
	require.NoError(t, err)
	return token
}

func (e testEnv) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token(t))
	}
	resp := httptest.NewRecorder()
	e.handler.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, target any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Error.Code
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t)

	live := env.do(t, http.MethodGet, "/health/live", "", false)
	require.Equal(t, http.StatusOK, live.Code)

	ready := env.do(t, http.MethodGet, "/health/ready", "", false)
	require.Equal(t, http.StatusOK, ready.Code)
	require.Contains(t, ready.Body.String(), "skipped")
}

func TestPublicPingSkipsAuth(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/public/ping", "", false)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/ping", "/api/v1/materials", "/api/v1/work-orders", "/api/v1/purchase-orders"} {
		resp := env.do(t, http.MethodGet, path, "", false)
		require.Equal(t, http.StatusUnauthorized, resp.Code, path)
	}

	resp := env.do(t, http.MethodGet, "/api/ping", "", true)
	require.Equal(t, http.StatusOK, resp.Code)
}

func TestMetricsEndpointExposesProductionCounters(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/metrics", "", false)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "loomworks_insufficient_stock_total")
}

func TestMaterialLedgerFlow(t *testing.T) {
	env := newTestEnv(t)

	created := env.do(t, http.MethodPost, "/api/v1/materials",
		`{"name":"Wool yarn ivory","category":"yarn","unit":"kg","min_stock_level":"10","cost_per_unit":"12.50","initial_stock":"15"}`, true)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var material models.Material
	decodeData(t, created, &material)
	require.NotEqual(t, uuid.Nil, material.ID)
	require.True(t, material.CurrentStock.Equal(decimal.NewFromInt(15)), material.CurrentStock.String())

	adjust := env.do(t, http.MethodPost, "/api/v1/materials/"+material.ID.String()+"/adjust",
		`{"type":"out","quantity":"8","reason":"sampling"}`, true)
	require.Equal(t, http.StatusCreated, adjust.Code, adjust.Body.String())

	lowStock := env.do(t, http.MethodGet, "/api/v1/materials/low-stock", "", true)
	require.Equal(t, http.StatusOK, lowStock.Code)
	var low []models.Material
	decodeData(t, lowStock, &low)
	require.Len(t, low, 1)
	require.Equal(t, material.ID, low[0].ID)

	rejected := env.do(t, http.MethodPost, "/api/v1/materials/"+material.ID.String()+"/adjust",
		`{"type":"out","quantity":"100"}`, true)
	require.Equal(t, http.StatusUnprocessableEntity, rejected.Code)
	require.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, rejected))

	metricsResp := env.do(t, http.MethodGet, "/metrics", "", false)
	require.Contains(t, metricsResp.Body.String(), "loomworks_insufficient_stock_total 1")
}

func TestMaterialCreateRejectsCurrentStock(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/v1/materials",
		`{"name":"Latex","category":"chemicals","unit":"liters","current_stock":"40"}`, true)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestWorkOrderAdvanceRoute(t *testing.T) {
	env := newTestEnv(t)
	order := models.WorkOrder{
		OrderID:      "order-1001",
		OrderItemID:  "item-1",
		UnitIndex:    1,
		UnitCount:    1,
		Title:        "Hand tufted runner",
		CurrentStage: enums.StageTufting,
		Status:       enums.WorkOrderStatusInProgress,
		Priority:     enums.WorkOrderPriorityNormal,
	}
	require.NoError(t, env.db.Create(&order).Error)
	require.NoError(t, env.db.Create(&models.WorkOrderStage{
		WorkOrderID: order.ID,
		Stage:       enums.StageTufting,
		Status:      enums.StageStatusActive,
	}).Error)

	resp := env.do(t, http.MethodPost, "/api/v1/work-orders/"+order.ID.String()+"/advance", `{"notes":"tufting done"}`, true)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var result workorders.AdvanceResult
	decodeData(t, resp, &result)
	require.Equal(t, enums.StageTufting, result.FromStage)
	require.Equal(t, enums.StageTrimming, result.WorkOrder.CurrentStage)

	stages := env.do(t, http.MethodGet, "/api/v1/work-orders/"+order.ID.String()+"/stages", "", true)
	require.Equal(t, http.StatusOK, stages.Code)
	var history []models.WorkOrderStage
	decodeData(t, stages, &history)
	require.Len(t, history, 2)
}

func TestCreateFromOrderWithoutOrderSource(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/v1/work-orders/from-order/order-77", "", true)
	require.GreaterOrEqual(t, resp.Code, http.StatusInternalServerError)
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/v1/rugs", "", true)
	require.Equal(t, http.StatusNotFound, resp.Code)
}
