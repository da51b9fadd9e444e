package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
)

// Repository persists materials and their stock movement log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateMaterial(ctx context.Context, material *models.Material) error
	FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error)
	LockMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error)
	UpdateMaterial(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SetStockGuarded(ctx context.Context, id uuid.UUID, before, after decimal.Decimal) (bool, error)
	ListMaterials(ctx context.Context, filters MaterialFilters) ([]models.Material, error)
	ListLowStock(ctx context.Context, limit int) ([]models.Material, error)
	FindMaterialsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Material, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, filters MovementFilters, limit int, cursor *pagination.Cursor) ([]models.StockMovement, error)
	LastMovement(ctx context.Context, materialID uuid.UUID) (*models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateMaterial(ctx context.Context, material *models.Material) error {
	return r.db.WithContext(ctx).Create(material).Error
}

func (r *repository) FindMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

// LockMaterial reads the material row with FOR UPDATE so concurrent ledger
// writers on the same material serialize.
func (r *repository) LockMaterial(ctx context.Context, id uuid.UUID) (*models.Material, error) {
	var material models.Material
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *repository) UpdateMaterial(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["current_stock"]; ok {
		return errors.New("current_stock is ledger-owned")
	}
	res := r.db.WithContext(ctx).Model(&models.Material{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetStockGuarded writes after only if the row still holds before. A false
// result means another writer got there first.
func (r *repository) SetStockGuarded(ctx context.Context, id uuid.UUID, before, after decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Material{}).
		Where("id = ? AND current_stock = ?", id, before).
		Update("current_stock", after)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) ListMaterials(ctx context.Context, filters MaterialFilters) ([]models.Material, error) {
	query := r.db.WithContext(ctx).Model(&models.Material{})
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.Active != nil {
		query = query.Where("is_active = ?", *filters.Active)
	}
	if filters.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filters.SupplierID)
	}
	if term := strings.TrimSpace(filters.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	var rows []models.Material
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListLowStock(ctx context.Context, limit int) ([]models.Material, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("current_stock <= min_stock_level").
		Order("name ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.Material
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindMaterialsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Material, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Material
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) ListMovements(ctx context.Context, filters MovementFilters, limit int, cursor *pagination.Cursor) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).Model(&models.StockMovement{})
	if filters.MaterialID != nil {
		query = query.Where("material_id = ?", *filters.MaterialID)
	}
	if filters.WorkOrderID != nil {
		query = query.Where("work_order_id = ?", *filters.WorkOrderID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.StockMovement
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) LastMovement(ctx context.Context, materialID uuid.UUID) (*models.StockMovement, error) {
	var movement models.StockMovement
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at DESC, id DESC").
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}

// MaterialFilters narrows catalog listings.
type MaterialFilters struct {
	Category   *enums.MaterialCategory
	Active     *bool
	SupplierID *uuid.UUID
	Search     string
}

// MovementFilters narrows ledger listings.
type MovementFilters struct {
	MaterialID  *uuid.UUID
	WorkOrderID *uuid.UUID
	Type        *enums.MovementType
}
