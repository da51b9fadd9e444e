package consumption

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/internal/inventory"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
)

// ReasonWorkOrderConsumption tags ledger movements booked against a work order.
const ReasonWorkOrderConsumption = "work_order_consumption"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockLedger is the slice of the inventory ledger consumption writes through.
type StockLedger interface {
	AdjustStockTx(ctx context.Context, tx *gorm.DB, input inventory.AdjustStockInput) (*inventory.AdjustStockResult, error)
	RecordAdjusted(ctx context.Context, result *inventory.AdjustStockResult)
}

// Service books material usage against work orders.
type Service interface {
	Consume(ctx context.Context, input ConsumeInput) (*inventory.AdjustStockResult, error)
	MaterialCost(ctx context.Context, workOrderID uuid.UUID) (*CostReport, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger StockLedger
	logg   *logger.Logger
}

func NewService(repo Repository, tx txRunner, ledger StockLedger, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("consumption repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, ledger: ledger, logg: logg}, nil
}

type ConsumeInput struct {
	WorkOrderID uuid.UUID
	MaterialID  uuid.UUID
	Quantity    decimal.Decimal
	Notes       string
	CreatedBy   *uuid.UUID
}

// CostLine is one material's share of a work order's cost.
type CostLine struct {
	MaterialID  uuid.UUID          `json:"material_id"`
	Name        string             `json:"name"`
	Unit        enums.MaterialUnit `json:"unit"`
	Quantity    decimal.Decimal    `json:"quantity"`
	CostPerUnit decimal.Decimal    `json:"cost_per_unit"`
	Cost        decimal.Decimal    `json:"cost"`
}

// CostReport prices consumption at current material cost, not cost at the
// time of consumption.
type CostReport struct {
	WorkOrderID uuid.UUID       `json:"work_order_id"`
	Total       decimal.Decimal `json:"total"`
	Lines       []CostLine      `json:"lines"`
}

func (s *service) Consume(ctx context.Context, input ConsumeInput) (*inventory.AdjustStockResult, error) {
	if input.WorkOrderID == uuid.Nil || input.MaterialID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id and material id required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]any{"quantity": input.Quantity})
	}

	var result *inventory.AdjustStockResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.WithTx(tx).LockWorkOrder(ctx, input.WorkOrderID)
		if err != nil {
			return workOrderNotFoundOr(err)
		}
		if order.Status == enums.WorkOrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "work order is cancelled").
				WithDetails(map[string]any{"reason": "invalid_state", "status": order.Status})
		}
		workOrderID := order.ID
		result, err = s.ledger.AdjustStockTx(ctx, tx, inventory.AdjustStockInput{
			MaterialID:  input.MaterialID,
			Quantity:    input.Quantity,
			Type:        enums.MovementTypeOut,
			Reason:      ReasonWorkOrderConsumption,
			Notes:       input.Notes,
			WorkOrderID: &workOrderID,
			CreatedBy:   input.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "consume material")
	}
	s.ledger.RecordAdjusted(ctx, result)

	logCtx := s.logg.WithWorkOrderID(ctx, input.WorkOrderID.String())
	logCtx = s.logg.WithMaterialID(logCtx, input.MaterialID.String())
	logCtx = s.logg.WithField(logCtx, "quantity", input.Quantity.String())
	s.logg.Info(logCtx, "work_order.material_consumed")
	return result, nil
}

func (s *service) MaterialCost(ctx context.Context, workOrderID uuid.UUID) (*CostReport, error) {
	if workOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	if _, err := s.repo.FindWorkOrder(ctx, workOrderID); err != nil {
		return nil, workOrderNotFoundOr(err)
	}
	movements, err := s.repo.ConsumptionMovements(ctx, workOrderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list consumption movements")
	}

	ids := make([]uuid.UUID, 0, len(movements))
	seen := map[uuid.UUID]bool{}
	for _, movement := range movements {
		if !seen[movement.MaterialID] {
			seen[movement.MaterialID] = true
			ids = append(ids, movement.MaterialID)
		}
	}
	materials, err := s.repo.MaterialsByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load materials")
	}
	return priceConsumption(workOrderID, movements, materials), nil
}

func priceConsumption(workOrderID uuid.UUID, movements []models.StockMovement, materials []models.Material) *CostReport {
	byID := make(map[uuid.UUID]models.Material, len(materials))
	for _, material := range materials {
		byID[material.ID] = material
	}

	lines := map[uuid.UUID]*CostLine{}
	for _, movement := range movements {
		material, ok := byID[movement.MaterialID]
		if !ok {
			continue
		}
		line, ok := lines[material.ID]
		if !ok {
			line = &CostLine{
				MaterialID:  material.ID,
				Name:        material.Name,
				Unit:        material.Unit,
				Quantity:    decimal.Zero,
				CostPerUnit: material.CostPerUnit,
			}
			lines[material.ID] = line
		}
		line.Quantity = line.Quantity.Add(movement.Quantity.Abs())
	}

	// Line costs are rounded for display; the total sums exact products.
	report := &CostReport{WorkOrderID: workOrderID, Total: decimal.Zero, Lines: make([]CostLine, 0, len(lines))}
	for _, line := range lines {
		exact := line.Quantity.Mul(line.CostPerUnit)
		report.Total = report.Total.Add(exact)
		line.Cost = exact.Round(2)
		report.Lines = append(report.Lines, *line)
	}
	report.Total = report.Total.Round(2)
	sort.Slice(report.Lines, func(i, j int) bool {
		return report.Lines[i].Name < report.Lines[j].Name
	})
	return report
}

func workOrderNotFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load work order")
}
