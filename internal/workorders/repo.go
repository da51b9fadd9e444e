package workorders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
)

// Repository persists work orders, their stage history, media and labor.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateWorkOrders(ctx context.Context, orders []models.WorkOrder) error
	FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	LockWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error)
	FindByOrderID(ctx context.Context, orderID string) ([]models.WorkOrder, error)
	UpdateWorkOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListWorkOrders(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]models.WorkOrder, error)

	CreateStages(ctx context.Context, stages []models.WorkOrderStage) error
	FindActiveStage(ctx context.Context, workOrderID uuid.UUID, stage enums.ProductionStage) (*models.WorkOrderStage, error)
	CompleteStage(ctx context.Context, stageID uuid.UUID, at time.Time) error
	ListStages(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderStage, error)

	CreateMedia(ctx context.Context, media *models.WorkOrderMedia) error
	ListMedia(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderMedia, error)

	CreateArtisan(ctx context.Context, artisan *models.Artisan) error
	FindArtisan(ctx context.Context, id uuid.UUID) (*models.Artisan, error)
	ListArtisans(ctx context.Context, activeOnly bool) ([]models.Artisan, error)
	CreateAssignment(ctx context.Context, assignment *models.WorkOrderArtisan) error
	FindAssignment(ctx context.Context, id uuid.UUID) (*models.WorkOrderArtisan, error)
	UpdateAssignment(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListAssignments(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderArtisan, error)
	ListUnpaidAssignments(ctx context.Context) ([]models.WorkOrderArtisan, error)
}

// ListFilters narrows work order listings.
type ListFilters struct {
	Stage             *enums.ProductionStage
	Status            *enums.WorkOrderStatus
	Priority          *enums.WorkOrderPriority
	AssignedArtisanID *uuid.UUID
	OrderID           string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a work order repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateWorkOrders(ctx context.Context, orders []models.WorkOrder) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&orders).Error
}

func (r *repository) FindWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) LockWorkOrder(ctx context.Context, id uuid.UUID) (*models.WorkOrder, error) {
	var order models.WorkOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID string) ([]models.WorkOrder, error) {
	var rows []models.WorkOrder
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("order_item_id ASC, unit_index ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) UpdateWorkOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.WorkOrder{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListWorkOrders(ctx context.Context, filters ListFilters, limit int, cursor *pagination.Cursor) ([]models.WorkOrder, error) {
	query := r.db.WithContext(ctx).Model(&models.WorkOrder{})
	if filters.Stage != nil {
		query = query.Where("current_stage = ?", *filters.Stage)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.AssignedArtisanID != nil {
		query = query.Where("assigned_artisan_id = ?", *filters.AssignedArtisanID)
	}
	if filters.OrderID != "" {
		query = query.Where("order_id = ?", filters.OrderID)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.WorkOrder
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *repository) CreateStages(ctx context.Context, stages []models.WorkOrderStage) error {
	if len(stages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&stages).Error
}

// FindActiveStage returns nil when the history has no active record for stage.
func (r *repository) FindActiveStage(ctx context.Context, workOrderID uuid.UUID, stage enums.ProductionStage) (*models.WorkOrderStage, error) {
	var record models.WorkOrderStage
	err := r.db.WithContext(ctx).
		Where("work_order_id = ? AND stage = ? AND status = ?", workOrderID, stage, enums.StageStatusActive).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *repository) CompleteStage(ctx context.Context, stageID uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.WorkOrderStage{}).
		Where("id = ?", stageID).
		Updates(map[string]any{
			"status":       enums.StageStatusCompleted,
			"completed_at": at,
		}).Error
}

func (r *repository) ListStages(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderStage, error) {
	var rows []models.WorkOrderStage
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateMedia(ctx context.Context, media *models.WorkOrderMedia) error {
	return r.db.WithContext(ctx).Create(media).Error
}

func (r *repository) ListMedia(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderMedia, error) {
	var rows []models.WorkOrderMedia
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateArtisan(ctx context.Context, artisan *models.Artisan) error {
	return r.db.WithContext(ctx).Create(artisan).Error
}

func (r *repository) FindArtisan(ctx context.Context, id uuid.UUID) (*models.Artisan, error) {
	var artisan models.Artisan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&artisan).Error; err != nil {
		return nil, err
	}
	return &artisan, nil
}

func (r *repository) ListArtisans(ctx context.Context, activeOnly bool) ([]models.Artisan, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Artisan
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) CreateAssignment(ctx context.Context, assignment *models.WorkOrderArtisan) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *repository) FindAssignment(ctx context.Context, id uuid.UUID) (*models.WorkOrderArtisan, error) {
	var assignment models.WorkOrderArtisan
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment).Error; err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) UpdateAssignment(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.WorkOrderArtisan{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListAssignments(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderArtisan, error) {
	var rows []models.WorkOrderArtisan
	err := r.db.WithContext(ctx).
		Where("work_order_id = ?", workOrderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListUnpaidAssignments(ctx context.Context) ([]models.WorkOrderArtisan, error) {
	var rows []models.WorkOrderArtisan
	err := r.db.WithContext(ctx).
		Where("payment_status <> ?", enums.PaymentStatusPaid).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
