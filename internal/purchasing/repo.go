package purchasing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
)

// Repository persists purchase orders, their lines, and suppliers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.PurchaseOrder) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	LockOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseOrderItem, error)
	AddReceived(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) error
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	ListOrders(ctx context.Context, filters OrderFilters, limit int, cursor *pagination.Cursor) ([]models.PurchaseOrder, error)
	ListUnpaid(ctx context.Context) ([]models.PurchaseOrder, error)
	MaterialNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	CountMaterials(ctx context.Context, ids []uuid.UUID) (int64, error)
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, activeOnly bool) ([]models.Supplier, error)
}

// OrderFilters narrows purchase order listings.
type OrderFilters struct {
	Status     *enums.PurchaseOrderStatus
	SupplierID *uuid.UUID
	PaidStatus *enums.PaymentStatus
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a purchasing repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateOrder inserts the order and its items.
func (r *repository) CreateOrder(ctx context.Context, order *models.PurchaseOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) LockOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	var order models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindItems(ctx context.Context, orderID uuid.UUID) ([]models.PurchaseOrderItem, error) {
	var items []models.PurchaseOrderItem
	err := r.db.WithContext(ctx).
		Where("purchase_order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) AddReceived(ctx context.Context, itemID uuid.UUID, quantity decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderItem{}).
		Where("id = ?", itemID).
		Update("quantity_received", gorm.Expr("quantity_received + ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.PurchaseOrder{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOrder removes the lines first, then the order.
func (r *repository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("purchase_order_id = ?", id).Delete(&models.PurchaseOrderItem{}).Error; err != nil {
		return err
	}
	res := db.Where("id = ?", id).Delete(&models.PurchaseOrder{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) ListOrders(ctx context.Context, filters OrderFilters, limit int, cursor *pagination.Cursor) ([]models.PurchaseOrder, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrder{})
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.SupplierID != nil {
		query = query.Where("supplier_id = ?", *filters.SupplierID)
	}
	if filters.PaidStatus != nil {
		query = query.Where("paid_status = ?", *filters.PaidStatus)
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	var rows []models.PurchaseOrder
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func (r *repository) ListUnpaid(ctx context.Context) ([]models.PurchaseOrder, error) {
	var rows []models.PurchaseOrder
	err := r.db.WithContext(ctx).
		Where("paid_status <> ?", enums.PaymentStatusPaid).
		Where("status <> ?", enums.PurchaseOrderStatusCancelled).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) MaterialNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var rows []models.Material
	if err := r.db.WithContext(ctx).Select("id", "name").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *repository) CountMaterials(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Material{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}

func (r *repository) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *repository) FindSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *repository) ListSuppliers(ctx context.Context, activeOnly bool) ([]models.Supplier, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	var rows []models.Supplier
	err := query.Find(&rows).Error
	return rows, err
}
