package enums

import "fmt"

// PurchaseOrderStatus tracks supplier order progress.
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "draft"
	PurchaseOrderStatusOrdered   PurchaseOrderStatus = "ordered"
	PurchaseOrderStatusPartial   PurchaseOrderStatus = "partial"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

var validPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusOrdered,
	PurchaseOrderStatusPartial,
	PurchaseOrderStatusReceived,
	PurchaseOrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known PurchaseOrderStatus.
func (s PurchaseOrderStatus) IsValid() bool {
	for _, candidate := range validPurchaseOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsClosed reports whether the order no longer accepts status changes.
func (s PurchaseOrderStatus) IsClosed() bool {
	return s == PurchaseOrderStatusReceived || s == PurchaseOrderStatusCancelled
}

// ParsePurchaseOrderStatus converts raw input into a PurchaseOrderStatus.
func ParsePurchaseOrderStatus(value string) (PurchaseOrderStatus, error) {
	for _, candidate := range validPurchaseOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase order status %q", value)
}
