package workorders

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/commerce"
	dbpkg "github.com/angelmondragon/loomworks-backend/pkg/db"
	"github.com/angelmondragon/loomworks-backend/pkg/db/dbtest"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
)

type countingMetrics struct {
	transitions map[string]int
	gaps        int
}

func (c *countingMetrics) IncStageTransition(stage string) {
	if c.transitions == nil {
		c.transitions = map[string]int{}
	}
	c.transitions[stage]++
}

func (c *countingMetrics) IncStageHistoryGap() {
	c.gaps++
}

type fakeOrders struct {
	items map[string][]commerce.LineItem
	calls int
}

func (f *fakeOrders) OrderLineItems(_ context.Context, orderID string) ([]commerce.LineItem, error) {
	f.calls++
	items, ok := f.items[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return items, nil
}

type harness struct {
	db      *gorm.DB
	svc     Service
	labor   LaborService
	orders  *fakeOrders
	metrics *countingMetrics
}

func newHarness(t *testing.T) harness {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	orders := &fakeOrders{items: map[string][]commerce.LineItem{}}
	m := &countingMetrics{}
	svc, err := NewService(
		repo,
		dbpkg.FromGorm(conn),
		outbox.NewService(outbox.NewRepository(conn), nil),
		orders,
		m,
		logger.Nop(),
	)
	require.NoError(t, err)
	labor, err := NewLaborService(repo)
	require.NoError(t, err)
	return harness{db: conn, svc: svc, labor: labor, orders: orders, metrics: m}
}

// seedWorkOrder inserts a unit at stage with an active history record when
// withHistory is set.
func (h harness) seedWorkOrder(t *testing.T, stage enums.ProductionStage, status enums.WorkOrderStatus, withHistory bool) models.WorkOrder {
	t.Helper()
	order := models.WorkOrder{
		OrderID:      "order-" + uuid.NewString()[:8],
		OrderItemID:  "item-" + uuid.NewString()[:8],
		UnitIndex:    1,
		UnitCount:    1,
		Title:        "Hand tufted rug",
		CurrentStage: stage,
		Status:       status,
		Priority:     enums.WorkOrderPriorityNormal,
	}
	require.NoError(t, h.db.Create(&order).Error)
	if withHistory {
		record := models.WorkOrderStage{
			WorkOrderID: order.ID,
			Stage:       stage,
			Status:      enums.StageStatusActive,
		}
		require.NoError(t, h.db.Create(&record).Error)
	}
	return order
}

func (h harness) reload(t *testing.T, id uuid.UUID) models.WorkOrder {
	t.Helper()
	var order models.WorkOrder
	require.NoError(t, h.db.First(&order, "id = ?", id).Error)
	return order
}

func (h harness) events(t *testing.T, eventType enums.OutboxEventType) []models.OutboxEvent {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, h.db.Where("event_type = ?", eventType).Find(&rows).Error)
	return rows
}

func detailsOf(t *testing.T, err error) map[string]any {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	return details
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewLaborService(nil)
	assert.Error(t, err)
}

func TestAdvanceCompletesCurrentAndOpensNext(t *testing.T) {
	h := newHarness(t)
	order := h.seedWorkOrder(t, enums.StageTufting, enums.WorkOrderStatusInProgress, true)

	result, err := h.svc.Advance(context.Background(), AdvanceInput{WorkOrderID: order.ID, Notes: "cut loops"})
	require.NoError(t, err)
	assert.Equal(t, enums.StageTufting, result.FromStage)
	assert.Equal(t, enums.StageTrimming, result.ActiveStage.Stage)
	require.NotNil(t, result.CompletedStage)
	assert.False(t, result.HistoryGap)

	stored := h.reload(t, order.ID)
	assert.Equal(t, enums.StageTrimming, stored.CurrentStage)
	assert.Equal(t, enums.WorkOrderStatusInProgress, stored.Status)
	assert.NotNil(t, stored.StartedAt)
	assert.Nil(t, stored.CompletedAt)

	history, err := h.svc.StageHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	byStage := map[enums.ProductionStage]models.WorkOrderStage{}
	for _, record := range history {
		byStage[record.Stage] = record
	}
	assert.Equal(t, enums.StageStatusCompleted, byStage[enums.StageTufting].Status)
	assert.NotNil(t, byStage[enums.StageTufting].CompletedAt)
	assert.Equal(t, enums.StageStatusActive, byStage[enums.StageTrimming].Status)
	require.NotNil(t, byStage[enums.StageTrimming].Notes)
	assert.Equal(t, "cut loops", *byStage[enums.StageTrimming].Notes)

	assert.Len(t, h.events(t, enums.EventWorkOrderStageAdvanced), 1)
	assert.Equal(t, 1, h.metrics.transitions[string(enums.StageTrimming)])
}

func TestAdvanceThroughWholeLine(t *testing.T) {
	h := newHarness(t)
	order := h.seedWorkOrder(t, enums.FirstStage(), enums.WorkOrderStatusPending, true)
	ctx := context.Background()

	for i := 0; i < len(enums.ProductionStages)-1; i++ {
		_, err := h.svc.Advance(ctx, AdvanceInput{WorkOrderID: order.ID})
		require.NoError(t, err, "advance %d", i+1)
	}

	stored := h.reload(t, order.ID)
	assert.Equal(t, enums.TerminalStage(), stored.CurrentStage)
	assert.Equal(t, enums.WorkOrderStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	_, err := h.svc.Advance(ctx, AdvanceInput{WorkOrderID: order.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	details := detailsOf(t, err)
	assert.Equal(t, "already_final", details["reason"])
	assert.Equal(t, enums.TerminalStage(), details["current_stage"])

	history, err := h.svc.StageHistory(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, history, len(enums.ProductionStages))
	active := 0
	for _, record := range history {
		if record.Status == enums.StageStatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active)

	assert.Len(t, h.events(t, enums.EventWorkOrderStageAdvanced), len(enums.ProductionStages)-1)
	completed := h.events(t, enums.EventWorkOrderCompleted)
	require.Len(t, completed, 1)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(completed[0].Payload, &envelope))
	var data payloads.WorkOrderCompletedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.False(t, data.Forced)
	assert.Equal(t, order.ID, data.WorkOrderID)
}

func TestAdvanceToleratesHistoryGap(t *testing.T) {
	h := newHarness(t)
	order := h.seedWorkOrder(t, enums.StageWashing, enums.WorkOrderStatusInProgress, false)

	result, err := h.svc.Advance(context.Background(), AdvanceInput{WorkOrderID: order.ID})
	require.NoError(t, err)
	assert.True(t, result.HistoryGap)
	assert.Nil(t, result.CompletedStage)
	assert.Equal(t, enums.StageDrying, result.ActiveStage.Stage)
	assert.Equal(t, 1, h.metrics.gaps)

	history, err := h.svc.StageHistory(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, enums.StageDrying, history[0].Stage)
}

func TestAdvanceRejectsCancelledAndUnknown(t *testing.T) {
	h := newHarness(t)
	order := h.seedWorkOrder(t, enums.StageQC, enums.WorkOrderStatusCancelled, true)

	_, err := h.svc.Advance(context.Background(), AdvanceInput{WorkOrderID: order.ID})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	assert.Equal(t, "invalid_state", detailsOf(t, err)["reason"])
	assert.Equal(t, enums.StageQC, h.reload(t, order.ID).CurrentStage)

	_, err = h.svc.Advance(context.Background(), AdvanceInput{WorkOrderID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.Advance(context.Background(), AdvanceInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestActiveStageDerivedFromHistory(t *testing.T) {
	h := newHarness(t)
	order := h.seedWorkOrder(t, enums.StageDrying, enums.WorkOrderStatusInProgress, true)
	// Denormalized column drifts; history stays authoritative.
	require.NoError(t, h.db.Model(&models.WorkOrder{}).Where("id = ?", order.ID).
		Update("current_stage", enums.StageTufting).Error)

	record, err := h.svc.ActiveStage(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StageDrying, record.Stage)

	empty := h.seedWorkOrder(t, enums.StageTufting, enums.WorkOrderStatusInProgress, false)
	_, err = h.svc.ActiveStage(context.Background(), empty.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeriveActiveStageFallsBackToFurthest(t *testing.T) {
	stages := []models.WorkOrderStage{
		{Stage: enums.StagePacking, Status: enums.StageStatusCompleted},
		{Stage: enums.StageReadyToShip, Status: enums.StageStatusCompleted},
		{Stage: enums.StageQC, Status: enums.StageStatusCompleted},
	}
	assert.Equal(t, enums.StageReadyToShip, deriveActiveStage(stages).Stage)

	stages = append(stages, models.WorkOrderStage{Stage: enums.StageTufting, Status: enums.StageStatusActive})
	assert.Equal(t, enums.StageTufting, deriveActiveStage(stages).Stage)
	assert.Nil(t, deriveActiveStage(nil))
}

func TestCreateFromOrderExpandsUnits(t *testing.T) {
	h := newHarness(t)
	h.orders.items["1001"] = []commerce.LineItem{
		{ItemID: "li_a", Title: "Moss Runner", VariantTitle: "2x8", SKU: "MOSS-28", Quantity: 2},
		{ItemID: "li_b", Title: "Sun Disc", Quantity: 1},
		{ItemID: "li_c", Title: "Gift card", Quantity: 0},
	}

	created, err := h.svc.CreateFromOrder(context.Background(), CreateFromOrderInput{OrderID: "1001"})
	require.NoError(t, err)
	require.Len(t, created, 3)

	titles := map[string]bool{}
	for _, order := range created {
		titles[order.Title] = true
		assert.Equal(t, enums.FirstStage(), order.CurrentStage)
		assert.Equal(t, enums.WorkOrderStatusPending, order.Status)
		assert.Equal(t, enums.WorkOrderPriorityNormal, order.Priority)

		history, err := h.svc.StageHistory(context.Background(), order.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, enums.StageStatusActive, history[0].Status)
		assert.Equal(t, enums.FirstStage(), history[0].Stage)
	}
	assert.True(t, titles["Moss Runner - 2x8 (1/2)"])
	assert.True(t, titles["Moss Runner - 2x8 (2/2)"])
	assert.True(t, titles["Sun Disc"])

	events := h.events(t, enums.EventWorkOrdersCreated)
	require.Len(t, events, 1)
	assert.Equal(t, SalesOrderAggregateID("1001"), events[0].AggregateID)
}

func TestCreateFromOrderIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.orders.items["2002"] = []commerce.LineItem{{ItemID: "li_a", Title: "Loop Pile", Quantity: 2}}

	first, err := h.svc.CreateFromOrder(context.Background(), CreateFromOrderInput{OrderID: "2002"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	_, err = h.svc.CreateFromOrder(context.Background(), CreateFromOrderInput{OrderID: "2002"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	details := detailsOf(t, err)
	assert.Len(t, details["work_order_ids"], 2)
	assert.Equal(t, 1, h.orders.calls)

	var count int64
	require.NoError(t, h.db.Model(&models.WorkOrder{}).Where("order_id = ?", "2002").Count(&count).Error)
	assert.EqualValues(t, 2, count)
	assert.Len(t, h.events(t, enums.EventWorkOrdersCreated), 1)
}

func TestCreateFromOrderErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.CreateFromOrder(ctx, CreateFromOrderInput{OrderID: " "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.CreateFromOrder(ctx, CreateFromOrderInput{OrderID: "missing"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	h.orders.items["empty"] = []commerce.LineItem{{ItemID: "x", Title: "Nothing", Quantity: 0}}
	_, err = h.svc.CreateFromOrder(ctx, CreateFromOrderInput{OrderID: "empty"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	h.orders.items["bulk"] = []commerce.LineItem{{ItemID: "li_bulk", Title: "Bath mat", Quantity: MaxUnitsPerLine + 1}}
	_, err = h.svc.CreateFromOrder(ctx, CreateFromOrderInput{OrderID: "bulk"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, MaxUnitsPerLine, detailsOf(t, err)["max"])
	var count int64
	require.NoError(t, h.db.Model(&models.WorkOrder{}).Where("order_id = ?", "bulk").Count(&count).Error)
	assert.Zero(t, count)
}

// hidingRepo answers the first hide order lookups with nothing, like a
// transaction that started before a concurrent seeding committed.
type hidingRepo struct {
	Repository
	hide *int
}

func (r hidingRepo) WithTx(tx *gorm.DB) Repository {
	return hidingRepo{Repository: r.Repository.WithTx(tx), hide: r.hide}
}

func (r hidingRepo) FindByOrderID(ctx context.Context, orderID string) ([]models.WorkOrder, error) {
	if *r.hide > 0 {
		*r.hide--
		return nil, nil
	}
	return r.Repository.FindByOrderID(ctx, orderID)
}

func TestCreateFromOrderLosingRaceReportsExistingSet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.orders.items["3003"] = []commerce.LineItem{{ItemID: "li_race", Title: "Cut Pile", Quantity: 2}}

	first, err := h.svc.CreateFromOrder(ctx, CreateFromOrderInput{OrderID: "3003"})
	require.NoError(t, err)
	require.Len(t, first, 2)

	hide := 2
	late, err := NewService(
		hidingRepo{Repository: NewRepository(h.db), hide: &hide},
		dbpkg.FromGorm(h.db),
		outbox.NewService(outbox.NewRepository(h.db), nil),
		h.orders,
		nil,
		logger.Nop(),
	)
	require.NoError(t, err)

	_, err = late.CreateFromOrder(ctx, CreateFromOrderInput{OrderID: "3003"})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
	assert.Len(t, detailsOf(t, err)["work_order_ids"], 2)

	var count int64
	require.NoError(t, h.db.Model(&models.WorkOrder{}).Where("order_id = ?", "3003").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestUnitTitle(t *testing.T) {
	assert.Equal(t, "Rug", unitTitle(commerce.LineItem{Title: "Rug", Quantity: 1}, 1))
	assert.Equal(t, "Rug - 3x5", unitTitle(commerce.LineItem{Title: "Rug", VariantTitle: "3x5", Quantity: 1}, 1))
	assert.Equal(t, "Rug (3/4)", unitTitle(commerce.LineItem{Title: "Rug", Quantity: 4}, 3))
}

func TestUpdateForceCompleteEmitsEvent(t *testing.T) {
	h := newHarness(t)
	order := h.seedWorkOrder(t, enums.StageFinishing, enums.WorkOrderStatusInProgress, true)
	status := enums.WorkOrderStatusCompleted

	updated, err := h.svc.Update(context.Background(), UpdateInput{ID: order.ID, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusCompleted, updated.Status)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, enums.StageFinishing, updated.CurrentStage)

	completed := h.events(t, enums.EventWorkOrderCompleted)
	require.Len(t, completed, 1)
	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(completed[0].Payload, &envelope))
	var data payloads.WorkOrderCompletedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.True(t, data.Forced)

	_, err = h.svc.Advance(context.Background(), AdvanceInput{WorkOrderID: order.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestUpdatePatchesSchedulingFields(t *testing.T) {
	h := newHarness(t)
	order := h.seedWorkOrder(t, enums.StageTufting, enums.WorkOrderStatusInProgress, true)
	artisan, err := h.labor.CreateArtisan(context.Background(), CreateArtisanInput{Name: "Inés"})
	require.NoError(t, err)

	priority := enums.WorkOrderPriorityUrgent
	notes := "customer upgraded shipping"
	updated, err := h.svc.Update(context.Background(), UpdateInput{
		ID:                order.ID,
		Priority:          &priority,
		Notes:             &notes,
		AssignedArtisanID: &artisan.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderPriorityUrgent, updated.Priority)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
	require.NotNil(t, updated.AssignedArtisanID)
	assert.Equal(t, artisan.ID, *updated.AssignedArtisanID)

	_, err = h.svc.Update(context.Background(), UpdateInput{ID: order.ID})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	missing := uuid.New()
	_, err = h.svc.Update(context.Background(), UpdateInput{ID: order.ID, AssignedArtisanID: &missing})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	bad := enums.WorkOrderPriority("asap")
	_, err = h.svc.Update(context.Background(), UpdateInput{ID: order.ID, Priority: &bad})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestHoldResumeCancel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.seedWorkOrder(t, enums.StageTufting, enums.WorkOrderStatusInProgress, true)

	held, err := h.svc.Hold(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusOnHold, held.Status)

	resumed, err := h.svc.Resume(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusInProgress, resumed.Status)

	_, err = h.svc.Resume(ctx, order.ID, nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	cancelled, err := h.svc.Cancel(ctx, order.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.WorkOrderStatusCancelled, cancelled.Status)

	pending := enums.WorkOrderStatusPending
	_, err = h.svc.Update(ctx, UpdateInput{ID: order.ID, Status: &pending})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestListFiltersAndCursor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		h.seedWorkOrder(t, enums.StageTufting, enums.WorkOrderStatusInProgress, false)
	}
	h.seedWorkOrder(t, enums.StageQC, enums.WorkOrderStatusInProgress, false)

	stage := enums.StageTufting
	page, err := h.svc.List(ctx, ListFilters{Stage: &stage}, pagination.Params{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	rest, err := h.svc.List(ctx, ListFilters{Stage: &stage}, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Empty(t, rest.NextCursor)

	bad := enums.ProductionStage("weaving")
	_, err = h.svc.List(ctx, ListFilters{Stage: &bad}, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestMediaAttachAndList(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.seedWorkOrder(t, enums.StageTufting, enums.WorkOrderStatusInProgress, true)

	_, err := h.svc.AttachMedia(ctx, AttachMediaInput{WorkOrderID: order.ID, URL: "  "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	stage := enums.StageTufting
	media, err := h.svc.AttachMedia(ctx, AttachMediaInput{
		WorkOrderID: order.ID,
		Stage:       &stage,
		Kind:        enums.MediaKindProgressPhoto,
		URL:         "https://cdn.example.com/wo/1.jpg",
		Caption:     "half tufted",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.MediaKindProgressPhoto, media.Kind)

	_, err = h.svc.AttachMedia(ctx, AttachMediaInput{WorkOrderID: order.ID, URL: "https://cdn.example.com/wo/cad.pdf"})
	require.NoError(t, err)

	rows, err := h.svc.ListMedia(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	detail, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Media, 2)
	assert.Len(t, detail.Stages, 1)

	_, err = h.svc.AttachMedia(ctx, AttachMediaInput{WorkOrderID: uuid.New(), URL: "https://x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestLaborAssignmentsAndPayment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	order := h.seedWorkOrder(t, enums.StageTufting, enums.WorkOrderStatusInProgress, true)

	rate := decimal.RequireFromString("18.00")
	artisan, err := h.labor.CreateArtisan(ctx, CreateArtisanInput{Name: "Rosa", Specialty: "tufting", HourlyRate: &rate})
	require.NoError(t, err)

	stage := enums.StageTufting
	assignment, err := h.labor.AssignArtisan(ctx, AssignArtisanInput{
		WorkOrderID: order.ID,
		ArtisanID:   artisan.ID,
		Stage:       &stage,
		Cost:        decimal.RequireFromString("120.456"),
	})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("120.46").Equal(assignment.Cost))
	assert.Equal(t, enums.PaymentStatusUnpaid, assignment.PaymentStatus)

	unpaid, err := h.labor.ListUnpaidAssignments(ctx)
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)

	paid, err := h.labor.UpdateAssignmentPayment(ctx, UpdateAssignmentPaymentInput{
		AssignmentID:  assignment.ID,
		PaymentStatus: enums.PaymentStatusPaid,
	})
	require.NoError(t, err)
	assert.NotNil(t, paid.PaidAt)

	unpaid, err = h.labor.ListUnpaidAssignments(ctx)
	require.NoError(t, err)
	assert.Empty(t, unpaid)

	detail, err := h.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, detail.Assignments, 1)

	_, err = h.labor.AssignArtisan(ctx, AssignArtisanInput{WorkOrderID: order.ID, ArtisanID: uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = h.labor.AssignArtisan(ctx, AssignArtisanInput{WorkOrderID: order.ID, ArtisanID: artisan.ID, Cost: decimal.NewFromInt(-1)})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = h.labor.UpdateAssignmentPayment(ctx, UpdateAssignmentPaymentInput{AssignmentID: uuid.New(), PaymentStatus: enums.PaymentStatusPaid})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	artisans, err := h.labor.ListArtisans(ctx, true)
	require.NoError(t, err)
	assert.Len(t, artisans, 1)
}
