package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

// PurchaseOrder is a supplier replenishment order. Subtotal is fixed at
// creation; Status is derived from item receipt progress by the receiving flow.
type PurchaseOrder struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderNumber  string                    `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	SupplierID   uuid.UUID                 `gorm:"column:supplier_id;type:uuid;not null;index" json:"supplier_id"`
	Status       enums.PurchaseOrderStatus `gorm:"column:status;type:purchase_order_status;not null" json:"status"`
	OrderDate    *time.Time                `gorm:"column:order_date" json:"order_date"`
	ExpectedDate *time.Time                `gorm:"column:expected_date" json:"expected_date"`
	ReceivedDate *time.Time                `gorm:"column:received_date" json:"received_date"`
	Subtotal     decimal.Decimal           `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	PaidStatus   enums.PaymentStatus       `gorm:"column:paid_status;type:payment_status;not null" json:"paid_status"`
	PaidAt       *time.Time                `gorm:"column:paid_at" json:"paid_at"`
	PaidAmount   *decimal.Decimal          `gorm:"column:paid_amount;type:numeric(12,2)" json:"paid_amount"`
	Notes        *string                   `gorm:"column:notes" json:"notes"`
	CreatedBy    *uuid.UUID                `gorm:"column:created_by;type:uuid" json:"created_by"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID" json:"items,omitempty"`
}

func (p *PurchaseOrder) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// PurchaseOrderItem is one material line. QuantityReceived never decreases.
type PurchaseOrderItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	PurchaseOrderID  uuid.UUID       `gorm:"column:purchase_order_id;type:uuid;not null;index" json:"purchase_order_id"`
	MaterialID       uuid.UUID       `gorm:"column:material_id;type:uuid;not null" json:"material_id"`
	QuantityOrdered  decimal.Decimal `gorm:"column:quantity_ordered;type:numeric(14,3);not null" json:"quantity_ordered"`
	QuantityReceived decimal.Decimal `gorm:"column:quantity_received;type:numeric(14,3);not null" json:"quantity_received"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null" json:"unit_price"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (i *PurchaseOrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// Remaining is the balance still expected from the supplier, floored at zero.
func (i PurchaseOrderItem) Remaining() decimal.Decimal {
	left := i.QuantityOrdered.Sub(i.QuantityReceived)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// IsFullyReceived reports whether the received quantity covers the order.
func (i PurchaseOrderItem) IsFullyReceived() bool {
	return i.QuantityReceived.GreaterThanOrEqual(i.QuantityOrdered)
}
