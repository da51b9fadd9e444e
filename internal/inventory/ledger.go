package inventory

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
)

// applyMovement computes the new stock level and the signed delta recorded on
// the movement. The delta always satisfies after = before + delta.
func applyMovement(movementType enums.MovementType, before, quantity decimal.Decimal) (after, delta decimal.Decimal, err error) {
	switch movementType {
	case enums.MovementTypeIn:
		after = before.Add(quantity)
	case enums.MovementTypeOut:
		after = before.Sub(quantity)
		if after.IsNegative() {
			return decimal.Zero, decimal.Zero, pkgerrors.New(pkgerrors.CodeInsufficient, "insufficient stock").
				WithDetails(map[string]any{
					"available": before.String(),
					"requested": quantity.String(),
				})
		}
	case enums.MovementTypeAdjust:
		after = quantity
	default:
		return decimal.Zero, decimal.Zero, invalidTypeError(movementType)
	}
	return after, after.Sub(before), nil
}

func validateAdjustInput(input AdjustStockInput) error {
	if input.MaterialID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	if !input.Type.IsValid() {
		return invalidTypeError(input.Type)
	}
	if input.Quantity.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}
	if input.Type != enums.MovementTypeAdjust && !input.Quantity.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

func invalidTypeError(movementType enums.MovementType) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type").
		WithDetails(map[string]any{"reason": "invalid_type", "type": string(movementType)})
}

// crossedIntoLowStock is true only on the movement that takes stock from above
// the threshold to at or below it.
func crossedIntoLowStock(before, after, minLevel decimal.Decimal) bool {
	return before.GreaterThan(minLevel) && after.LessThanOrEqual(minLevel)
}

// IsInsufficientStock reports whether err is a failed out movement.
func IsInsufficientStock(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeInsufficient)
}
