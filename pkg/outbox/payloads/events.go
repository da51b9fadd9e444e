package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

// StockAdjustedEvent mirrors one ledger movement.
type StockAdjustedEvent struct {
	MaterialID   uuid.UUID          `json:"material_id"`
	MovementID   uuid.UUID          `json:"movement_id"`
	MovementType enums.MovementType `json:"movement_type"`
	Quantity     decimal.Decimal    `json:"quantity"`
	StockBefore  decimal.Decimal    `json:"stock_before"`
	StockAfter   decimal.Decimal    `json:"stock_after"`
	Reason       string             `json:"reason,omitempty"`
	WorkOrderID  *uuid.UUID         `json:"work_order_id,omitempty"`
}

// MaterialLowStockEvent is raised when stock reaches the reorder threshold.
type MaterialLowStockEvent struct {
	MaterialID    uuid.UUID          `json:"material_id"`
	Name          string             `json:"name"`
	SKU           string             `json:"sku,omitempty"`
	Unit          enums.MaterialUnit `json:"unit"`
	CurrentStock  decimal.Decimal    `json:"current_stock"`
	MinStockLevel decimal.Decimal    `json:"min_stock_level"`
	SupplierID    *uuid.UUID         `json:"supplier_id,omitempty"`
	Source        string             `json:"source"`
}

// PurchaseOrderReceivedEvent signals that every line of an order arrived.
type PurchaseOrderReceivedEvent struct {
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	OrderNumber     string    `json:"order_number"`
	SupplierID      uuid.UUID `json:"supplier_id"`
	ReceivedAt      time.Time `json:"received_at"`
	ItemCount       int       `json:"item_count"`
}

// WorkOrdersCreatedEvent lists the units seeded from one sales order.
type WorkOrdersCreatedEvent struct {
	OrderID      string      `json:"order_id"`
	WorkOrderIDs []uuid.UUID `json:"work_order_ids"`
}

// WorkOrderStageAdvancedEvent records one step along the production line.
type WorkOrderStageAdvancedEvent struct {
	WorkOrderID uuid.UUID             `json:"work_order_id"`
	FromStage   enums.ProductionStage `json:"from_stage"`
	ToStage     enums.ProductionStage `json:"to_stage"`
	Status      enums.WorkOrderStatus `json:"status"`
	AdvancedAt  time.Time             `json:"advanced_at"`
}

// WorkOrderCompletedEvent fires when a unit reaches the terminal stage or is
// force-completed.
type WorkOrderCompletedEvent struct {
	WorkOrderID uuid.UUID `json:"work_order_id"`
	OrderID     string    `json:"order_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
	Forced      bool      `json:"forced"`
}
