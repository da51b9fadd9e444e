package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

// Material is a stocked production input. CurrentStock only changes through
// the inventory ledger.
type Material struct {
	ID            uuid.UUID              `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name          string                 `gorm:"column:name;not null" json:"name"`
	SKU           *string                `gorm:"column:sku" json:"sku"`
	Description   *string                `gorm:"column:description" json:"description"`
	Category      enums.MaterialCategory `gorm:"column:category;type:material_category;not null" json:"category"`
	Unit          enums.MaterialUnit     `gorm:"column:unit;type:material_unit;not null" json:"unit"`
	CurrentStock  decimal.Decimal        `gorm:"column:current_stock;type:numeric(14,3);not null" json:"current_stock"`
	MinStockLevel decimal.Decimal        `gorm:"column:min_stock_level;type:numeric(14,3);not null" json:"min_stock_level"`
	CostPerUnit   decimal.Decimal        `gorm:"column:cost_per_unit;type:numeric(12,2);not null" json:"cost_per_unit"`
	SupplierID    *uuid.UUID             `gorm:"column:supplier_id;type:uuid" json:"supplier_id"`
	IsActive      bool                   `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (m *Material) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// IsLowStock reports whether stock sits at or below the reorder threshold.
func (m Material) IsLowStock() bool {
	return m.CurrentStock.LessThanOrEqual(m.MinStockLevel)
}
