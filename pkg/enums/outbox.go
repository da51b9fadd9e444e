package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateMaterial      OutboxAggregateType = "material"
	AggregatePurchaseOrder OutboxAggregateType = "purchase_order"
	AggregateWorkOrder     OutboxAggregateType = "work_order"
	AggregateSalesOrder    OutboxAggregateType = "sales_order"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateMaterial,
	AggregatePurchaseOrder,
	AggregateWorkOrder,
	AggregateSalesOrder,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventStockAdjusted          OutboxEventType = "stock_adjusted"
	EventMaterialLowStock       OutboxEventType = "material_low_stock"
	EventPurchaseOrderReceived  OutboxEventType = "purchase_order_received"
	EventWorkOrdersCreated      OutboxEventType = "work_orders_created"
	EventWorkOrderStageAdvanced OutboxEventType = "work_order_stage_advanced"
	EventWorkOrderCompleted     OutboxEventType = "work_order_completed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStockAdjusted,
	EventMaterialLowStock,
	EventPurchaseOrderReceived,
	EventWorkOrdersCreated,
	EventWorkOrderStageAdvanced,
	EventWorkOrderCompleted,
}

func (e OutboxEventType) String() string {
	return string(e)
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
