package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
	"github.com/angelmondragon/loomworks-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ledgerMetrics interface {
	IncMovement(movementType string)
	IncInsufficientStock()
}

// Service is the only path through which material stock changes.
type Service interface {
	AdjustStock(ctx context.Context, input AdjustStockInput) (*AdjustStockResult, error)
	AdjustStockTx(ctx context.Context, tx *gorm.DB, input AdjustStockInput) (*AdjustStockResult, error)
	RecordAdjusted(ctx context.Context, result *AdjustStockResult)
	LowStockMaterials(ctx context.Context) ([]models.Material, error)
	ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*types.Page[models.StockMovement], error)
	CreateMaterial(ctx context.Context, input CreateMaterialInput) (*models.Material, error)
	UpdateMaterial(ctx context.Context, input UpdateMaterialInput) (*models.Material, error)
	DeactivateMaterial(ctx context.Context, id uuid.UUID) error
	GetMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error)
	ListMaterials(ctx context.Context, filters MaterialFilters) ([]models.Material, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	metrics ledgerMetrics
	logg    *logger.Logger
}

// NewService wires the ledger. metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, metrics ledgerMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outbox,
		metrics: metrics,
		logg:    logg,
	}, nil
}

// AdjustStockInput describes one ledger mutation. Quantity is a magnitude for
// in/out and the absolute target level for adjust.
type AdjustStockInput struct {
	MaterialID  uuid.UUID
	Quantity    decimal.Decimal
	Type        enums.MovementType
	Reason      string
	Notes       string
	WorkOrderID *uuid.UUID
	CreatedBy   *uuid.UUID
}

// AdjustStockResult carries the post-write state.
type AdjustStockResult struct {
	Material models.Material      `json:"material"`
	Movement models.StockMovement `json:"movement"`
	LowStock bool                 `json:"low_stock"`
}

func (s *service) AdjustStock(ctx context.Context, input AdjustStockInput) (*AdjustStockResult, error) {
	if err := validateAdjustInput(input); err != nil {
		return nil, err
	}
	var result *AdjustStockResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.adjust(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.RecordAdjusted(ctx, result)
	return result, nil
}

// AdjustStockTx runs the ledger mutation inside a caller-owned transaction.
// Nothing is logged or counted here; once the caller commits it passes the
// result to RecordAdjusted.
func (s *service) AdjustStockTx(ctx context.Context, tx *gorm.DB, input AdjustStockInput) (*AdjustStockResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if err := validateAdjustInput(input); err != nil {
		return nil, err
	}
	return s.adjust(ctx, tx, input)
}

// RecordAdjusted emits the log line and movement counter for a committed
// adjustment.
func (s *service) RecordAdjusted(ctx context.Context, result *AdjustStockResult) {
	if result == nil {
		return
	}
	if s.metrics != nil {
		s.metrics.IncMovement(result.Movement.Type.String())
	}
	s.logAdjusted(ctx, result)
}

func (s *service) adjust(ctx context.Context, tx *gorm.DB, input AdjustStockInput) (*AdjustStockResult, error) {
	repo := s.repo.WithTx(tx)

	material, err := repo.LockMaterial(ctx, input.MaterialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found").
				WithDetails(map[string]any{"material_id": input.MaterialID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}

	before := material.CurrentStock
	after, delta, err := applyMovement(input.Type, before, input.Quantity)
	if err != nil {
		if IsInsufficientStock(err) && s.metrics != nil {
			s.metrics.IncInsufficientStock()
		}
		return nil, err
	}

	updated, err := repo.SetStockGuarded(ctx, material.ID, before, after)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material stock")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "material stock changed concurrently").
			WithDetails(map[string]any{"material_id": material.ID, "stock_before": before})
	}

	movement := models.StockMovement{
		MaterialID:  material.ID,
		Type:        input.Type,
		Quantity:    delta,
		StockBefore: before,
		StockAfter:  after,
		Reason:      optionalString(input.Reason),
		Notes:       optionalString(input.Notes),
		WorkOrderID: input.WorkOrderID,
		CreatedBy:   input.CreatedBy,
	}
	if err := repo.CreateMovement(ctx, &movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
	}

	material.CurrentStock = after
	crossed := crossedIntoLowStock(before, after, material.MinStockLevel)

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateMaterial,
		AggregateID:   material.ID,
		Actor:         outbox.ActorFromID(input.CreatedBy),
		Data: payloads.StockAdjustedEvent{
			MaterialID:   material.ID,
			MovementID:   movement.ID,
			MovementType: movement.Type,
			Quantity:     movement.Quantity,
			StockBefore:  before,
			StockAfter:   after,
			Reason:       input.Reason,
			WorkOrderID:  input.WorkOrderID,
		},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue stock adjusted event")
	}
	if crossed {
		if err := s.outbox.Emit(ctx, tx, LowStockEvent(*material, movement.ID, "ledger")); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue low stock event")
		}
	}

	return &AdjustStockResult{
		Material: *material,
		Movement: movement,
		LowStock: material.IsLowStock(),
	}, nil
}

func (s *service) logAdjusted(ctx context.Context, result *AdjustStockResult) {
	ctx = s.logg.WithMaterialID(ctx, result.Material.ID.String())
	ctx = s.logg.WithFields(ctx, map[string]any{
		"movement_id":   result.Movement.ID.String(),
		"movement_type": result.Movement.Type,
		"stock_before":  result.Movement.StockBefore.String(),
		"stock_after":   result.Movement.StockAfter.String(),
		"low_stock":     result.LowStock,
	})
	s.logg.Info(ctx, "stock.adjusted")
}

// LowStockEvent builds the material_low_stock event deduplicated on the
// movement that caused it.
func LowStockEvent(material models.Material, movementID uuid.UUID, source string) outbox.DomainEvent {
	sku := ""
	if material.SKU != nil {
		sku = *material.SKU
	}
	return outbox.DomainEvent{
		EventType:     enums.EventMaterialLowStock,
		AggregateType: enums.AggregateMaterial,
		AggregateID:   material.ID,
		DedupeKey:     LowStockDedupeKey(movementID),
		Data: payloads.MaterialLowStockEvent{
			MaterialID:    material.ID,
			Name:          material.Name,
			SKU:           sku,
			Unit:          material.Unit,
			CurrentStock:  material.CurrentStock,
			MinStockLevel: material.MinStockLevel,
			SupplierID:    material.SupplierID,
			Source:        source,
		},
	}
}

// LowStockDedupeKey scopes low-stock alerts to one ledger movement.
func LowStockDedupeKey(movementID uuid.UUID) string {
	return "low_stock:" + movementID.String()
}

func (s *service) LowStockMaterials(ctx context.Context) ([]models.Material, error) {
	rows, err := s.repo.ListLowStock(ctx, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list low stock materials")
	}
	return rows, nil
}

func (s *service) ListMovements(ctx context.Context, filters MovementFilters, params pagination.Params) (*types.Page[models.StockMovement], error) {
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListMovements(ctx, filters, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock movements")
	}
	items, next := pagination.Page(rows, params.Limit, func(m models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	return &types.Page[models.StockMovement]{Items: items, NextCursor: next}, nil
}

func (s *service) GetMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	material, err := s.repo.FindMaterial(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material")
	}
	return material, nil
}

func (s *service) ListMaterials(ctx context.Context, filters MaterialFilters) ([]models.Material, error) {
	if filters.Category != nil && !filters.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid material category")
	}
	rows, err := s.repo.ListMaterials(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list materials")
	}
	return rows, nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
