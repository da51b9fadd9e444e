package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

// StockMovement is an append-only ledger entry. Quantity is the signed delta,
// so StockAfter always equals StockBefore + Quantity.
type StockMovement struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	MaterialID  uuid.UUID          `gorm:"column:material_id;type:uuid;not null;index" json:"material_id"`
	Type        enums.MovementType `gorm:"column:type;type:movement_type;not null" json:"type"`
	Quantity    decimal.Decimal    `gorm:"column:quantity;type:numeric(14,3);not null" json:"quantity"`
	StockBefore decimal.Decimal    `gorm:"column:stock_before;type:numeric(14,3);not null" json:"stock_before"`
	StockAfter  decimal.Decimal    `gorm:"column:stock_after;type:numeric(14,3);not null" json:"stock_after"`
	Reason      *string            `gorm:"column:reason" json:"reason"`
	Notes       *string            `gorm:"column:notes" json:"notes"`
	WorkOrderID *uuid.UUID         `gorm:"column:work_order_id;type:uuid;index" json:"work_order_id"`
	CreatedBy   *uuid.UUID         `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (m *StockMovement) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
