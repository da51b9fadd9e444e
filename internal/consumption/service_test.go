package consumption

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/internal/inventory"
	dbpkg "github.com/angelmondragon/loomworks-backend/pkg/db"
	"github.com/angelmondragon/loomworks-backend/pkg/db/dbtest"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

type harness struct {
	db     *gorm.DB
	svc    Service
	ledger inventory.Service
}

func newHarness(t *testing.T) harness {
	t.Helper()
	conn := dbtest.Open(t)
	tx := dbpkg.FromGorm(conn)
	ledger, err := inventory.NewService(
		inventory.NewRepository(conn),
		tx,
		outbox.NewService(outbox.NewRepository(conn), nil),
		nil,
		logger.Nop(),
	)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), tx, ledger, logger.Nop())
	require.NoError(t, err)
	return harness{db: conn, svc: svc, ledger: ledger}
}

func (h harness) seedMaterial(t *testing.T, name, stock, cost string) models.Material {
	t.Helper()
	material := models.Material{
		Name:          name,
		Category:      enums.MaterialCategoryYarn,
		Unit:          enums.MaterialUnitKg,
		CurrentStock:  dec(stock),
		MinStockLevel: dec("1"),
		CostPerUnit:   dec(cost),
		IsActive:      true,
	}
	require.NoError(t, h.db.Create(&material).Error)
	return material
}

func (h harness) seedWorkOrder(t *testing.T, status enums.WorkOrderStatus) models.WorkOrder {
	t.Helper()
	order := models.WorkOrder{
		OrderID:      "order-" + uuid.NewString()[:8],
		OrderItemID:  "item-" + uuid.NewString()[:8],
		UnitIndex:    1,
		UnitCount:    1,
		Title:        "Wool runner",
		CurrentStage: enums.StageTufting,
		Status:       status,
		Priority:     enums.WorkOrderPriorityNormal,
	}
	require.NoError(t, h.db.Create(&order).Error)
	return order
}

func (h harness) stock(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var material models.Material
	require.NoError(t, h.db.First(&material, "id = ?", id).Error)
	return material.CurrentStock
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestConsumeBooksOutMovement(t *testing.T) {
	h := newHarness(t)
	material := h.seedMaterial(t, "Merino", "10", "4.00")
	order := h.seedWorkOrder(t, enums.WorkOrderStatusInProgress)

	result, err := h.svc.Consume(context.Background(), ConsumeInput{
		WorkOrderID: order.ID,
		MaterialID:  material.ID,
		Quantity:    dec("3"),
		Notes:       "border",
	})
	require.NoError(t, err)
	assert.True(t, dec("7").Equal(result.Material.CurrentStock))
	assert.True(t, dec("-3").Equal(result.Movement.Quantity))
	assert.Equal(t, enums.MovementTypeOut, result.Movement.Type)
	require.NotNil(t, result.Movement.WorkOrderID)
	assert.Equal(t, order.ID, *result.Movement.WorkOrderID)
	require.NotNil(t, result.Movement.Reason)
	assert.Equal(t, ReasonWorkOrderConsumption, *result.Movement.Reason)
	assert.True(t, dec("7").Equal(h.stock(t, material.ID)))
}

func TestConsumeRejections(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	material := h.seedMaterial(t, "Jute", "2", "3.00")
	active := h.seedWorkOrder(t, enums.WorkOrderStatusInProgress)
	cancelled := h.seedWorkOrder(t, enums.WorkOrderStatusCancelled)

	_, err := h.svc.Consume(ctx, ConsumeInput{WorkOrderID: active.ID, MaterialID: material.ID, Quantity: decimal.Zero})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.Consume(ctx, ConsumeInput{WorkOrderID: uuid.New(), MaterialID: material.ID, Quantity: dec("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.Consume(ctx, ConsumeInput{WorkOrderID: cancelled.ID, MaterialID: material.ID, Quantity: dec("1")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.Consume(ctx, ConsumeInput{WorkOrderID: active.ID, MaterialID: material.ID, Quantity: dec("5")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficient))

	assert.True(t, dec("2").Equal(h.stock(t, material.ID)))
	var movements int64
	require.NoError(t, h.db.Model(&models.StockMovement{}).Count(&movements).Error)
	assert.Zero(t, movements)
}

type recordingLedger struct {
	StockLedger
	recorded int
}

func (r *recordingLedger) RecordAdjusted(ctx context.Context, result *inventory.AdjustStockResult) {
	r.recorded++
	r.StockLedger.RecordAdjusted(ctx, result)
}

func TestConsumeRecordsOnlyCommittedMovements(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ledger := &recordingLedger{StockLedger: h.ledger}
	svc, err := NewService(NewRepository(h.db), dbpkg.FromGorm(h.db), ledger, logger.Nop())
	require.NoError(t, err)

	material := h.seedMaterial(t, "Silk", "4", "20.00")
	order := h.seedWorkOrder(t, enums.WorkOrderStatusInProgress)

	_, err = svc.Consume(ctx, ConsumeInput{WorkOrderID: order.ID, MaterialID: material.ID, Quantity: dec("1")})
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.recorded)

	_, err = svc.Consume(ctx, ConsumeInput{WorkOrderID: order.ID, MaterialID: material.ID, Quantity: dec("9")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficient))
	assert.Equal(t, 1, ledger.recorded)
}

func TestMaterialCostUsesCurrentCost(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	wool := h.seedMaterial(t, "Wool", "20", "4.00")
	backing := h.seedMaterial(t, "Backing cloth", "20", "10.00")
	order := h.seedWorkOrder(t, enums.WorkOrderStatusInProgress)
	other := h.seedWorkOrder(t, enums.WorkOrderStatusInProgress)

	_, err := h.svc.Consume(ctx, ConsumeInput{WorkOrderID: order.ID, MaterialID: wool.ID, Quantity: dec("2")})
	require.NoError(t, err)
	_, err = h.svc.Consume(ctx, ConsumeInput{WorkOrderID: order.ID, MaterialID: wool.ID, Quantity: dec("1")})
	require.NoError(t, err)
	_, err = h.svc.Consume(ctx, ConsumeInput{WorkOrderID: order.ID, MaterialID: backing.ID, Quantity: dec("2.5")})
	require.NoError(t, err)
	_, err = h.svc.Consume(ctx, ConsumeInput{WorkOrderID: other.ID, MaterialID: wool.ID, Quantity: dec("4")})
	require.NoError(t, err)

	report, err := h.svc.MaterialCost(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, dec("37").Equal(report.Total), report.Total.String())
	require.Len(t, report.Lines, 2)
	assert.Equal(t, "Backing cloth", report.Lines[0].Name)
	assert.True(t, dec("3").Equal(report.Lines[1].Quantity))

	newCost := dec("5.00")
	_, err = h.ledger.UpdateMaterial(ctx, inventory.UpdateMaterialInput{ID: wool.ID, CostPerUnit: &newCost})
	require.NoError(t, err)

	report, err = h.svc.MaterialCost(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, dec("40").Equal(report.Total), report.Total.String())

	_, err = h.svc.MaterialCost(ctx, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPriceConsumptionSkipsUnknownMaterials(t *testing.T) {
	known := models.Material{ID: uuid.New(), Name: "Cotton", CostPerUnit: dec("2.00")}
	movements := []models.StockMovement{
		{MaterialID: known.ID, Quantity: dec("-1.5")},
		{MaterialID: uuid.New(), Quantity: dec("-9")},
	}
	report := priceConsumption(uuid.New(), movements, []models.Material{known})
	require.Len(t, report.Lines, 1)
	assert.True(t, dec("3").Equal(report.Total))
}

func TestPriceConsumptionRoundsTotalOnce(t *testing.T) {
	var materials []models.Material
	var movements []models.StockMovement
	for _, name := range []string{"Alpaca", "Mohair", "Tencel"} {
		m := models.Material{ID: uuid.New(), Name: name, CostPerUnit: dec("0.333")}
		materials = append(materials, m)
		movements = append(movements, models.StockMovement{MaterialID: m.ID, Quantity: dec("-1")})
	}

	report := priceConsumption(uuid.New(), movements, materials)
	require.Len(t, report.Lines, 3)
	for _, line := range report.Lines {
		assert.True(t, dec("0.33").Equal(line.Cost), line.Cost.String())
	}
	assert.True(t, dec("1").Equal(report.Total), report.Total.String())
}
