package consumption

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

// Repository reads the work order side of consumption.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	LockWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	ConsumptionMovements(ctx context.Context, workOrderID uuid.UUID) ([]models.StockMovement, error)
	MaterialsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Material, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) LockWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ConsumptionMovements(ctx context.Context, workOrderID uuid.UUID) ([]models.StockMovement, error) {
	var rows []models.StockMovement
	err := r.db.WithContext(ctx).
		Where("work_order_id = ? AND type = ?", workOrderID, enums.MovementTypeOut).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) MaterialsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Material, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Material
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error
	return rows, err
}
