package enums

import "fmt"

// MovementType classifies a stock ledger entry.
type MovementType string

const (
	MovementTypeIn     MovementType = "in"
	MovementTypeOut    MovementType = "out"
	MovementTypeAdjust MovementType = "adjust"
)

var validMovementTypes = []MovementType{
	MovementTypeIn,
	MovementTypeOut,
	MovementTypeAdjust,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}

// Movement reasons recorded by the ledger's internal callers.
const (
	MovementReasonInitialStock         = "initial_stock"
	MovementReasonPurchaseOrder        = "purchase_order"
	MovementReasonWorkOrderConsumption = "work_order_consumption"
)
