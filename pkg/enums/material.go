package enums

import "fmt"

// MaterialCategory groups stocked inputs.
type MaterialCategory string

const (
	MaterialCategoryYarn      MaterialCategory = "yarn"
	MaterialCategoryBacking   MaterialCategory = "backing"
	MaterialCategorySupplies  MaterialCategory = "supplies"
	MaterialCategoryTools     MaterialCategory = "tools"
	MaterialCategoryChemicals MaterialCategory = "chemicals"
)

var validMaterialCategories = []MaterialCategory{
	MaterialCategoryYarn,
	MaterialCategoryBacking,
	MaterialCategorySupplies,
	MaterialCategoryTools,
	MaterialCategoryChemicals,
}

// String implements fmt.Stringer.
func (c MaterialCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known MaterialCategory.
func (c MaterialCategory) IsValid() bool {
	for _, candidate := range validMaterialCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseMaterialCategory converts raw input into a MaterialCategory.
func ParseMaterialCategory(value string) (MaterialCategory, error) {
	for _, candidate := range validMaterialCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material category %q", value)
}

// MaterialUnit is the unit of measure stock is counted in.
type MaterialUnit string

const (
	MaterialUnitKg     MaterialUnit = "kg"
	MaterialUnitMeters MaterialUnit = "meters"
	MaterialUnitPieces MaterialUnit = "pieces"
	MaterialUnitLiters MaterialUnit = "liters"
	MaterialUnitRolls  MaterialUnit = "rolls"
)

var validMaterialUnits = []MaterialUnit{
	MaterialUnitKg,
	MaterialUnitMeters,
	MaterialUnitPieces,
	MaterialUnitLiters,
	MaterialUnitRolls,
}

func (u MaterialUnit) String() string {
	return string(u)
}

func (u MaterialUnit) IsValid() bool {
	for _, candidate := range validMaterialUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

func ParseMaterialUnit(value string) (MaterialUnit, error) {
	for _, candidate := range validMaterialUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material unit %q", value)
}
