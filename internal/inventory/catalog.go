package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
)

// CreateMaterialInput is a catalog entry. InitialStock, when positive, is
// booked as an in movement rather than written to the row.
type CreateMaterialInput struct {
	Name          string
	SKU           string
	Description   string
	Category      enums.MaterialCategory
	Unit          enums.MaterialUnit
	MinStockLevel decimal.Decimal
	CostPerUnit   decimal.Decimal
	SupplierID    *uuid.UUID
	InitialStock  decimal.Decimal
	CreatedBy     *uuid.UUID
}

// UpdateMaterialInput patches non-stock fields. Nil pointers are left alone.
type UpdateMaterialInput struct {
	ID            uuid.UUID
	Name          *string
	SKU           *string
	Description   *string
	Category      *enums.MaterialCategory
	Unit          *enums.MaterialUnit
	MinStockLevel *decimal.Decimal
	CostPerUnit   *decimal.Decimal
	SupplierID    *uuid.UUID
	IsActive      *bool
}

func (s *service) CreateMaterial(ctx context.Context, input CreateMaterialInput) (*models.Material, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid material category")
	}
	if !input.Unit.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid material unit")
	}
	if input.MinStockLevel.IsNegative() || input.CostPerUnit.IsNegative() || input.InitialStock.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock levels and cost must not be negative")
	}

	material := &models.Material{
		Name:          name,
		SKU:           optionalString(input.SKU),
		Description:   optionalString(input.Description),
		Category:      input.Category,
		Unit:          input.Unit,
		CurrentStock:  decimal.Zero,
		MinStockLevel: input.MinStockLevel,
		CostPerUnit:   input.CostPerUnit,
		SupplierID:    input.SupplierID,
		IsActive:      true,
	}

	var initial *AdjustStockResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateMaterial(ctx, material); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create material")
		}
		if !input.InitialStock.IsPositive() {
			return nil
		}
		result, err := s.adjust(ctx, tx, AdjustStockInput{
			MaterialID: material.ID,
			Quantity:   input.InitialStock,
			Type:       enums.MovementTypeIn,
			Reason:     enums.MovementReasonInitialStock,
			CreatedBy:  input.CreatedBy,
		})
		if err != nil {
			return err
		}
		*material = result.Material
		initial = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.RecordAdjusted(ctx, initial)
	return material, nil
}

func (s *service) UpdateMaterial(ctx context.Context, input UpdateMaterialInput) (*models.Material, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "material id required")
	}
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be blank")
		}
		updates["name"] = name
	}
	if input.SKU != nil {
		updates["sku"] = optionalString(*input.SKU)
	}
	if input.Description != nil {
		updates["description"] = optionalString(*input.Description)
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid material category")
		}
		updates["category"] = *input.Category
	}
	if input.Unit != nil {
		if !input.Unit.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid material unit")
		}
		updates["unit"] = *input.Unit
	}
	if input.MinStockLevel != nil {
		if input.MinStockLevel.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min stock level must not be negative")
		}
		updates["min_stock_level"] = *input.MinStockLevel
	}
	if input.CostPerUnit != nil {
		if input.CostPerUnit.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost per unit must not be negative")
		}
		updates["cost_per_unit"] = *input.CostPerUnit
	}
	if input.SupplierID != nil {
		updates["supplier_id"] = *input.SupplierID
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if err := s.repo.UpdateMaterial(ctx, input.ID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update material")
	}
	return s.GetMaterial(ctx, input.ID)
}

// DeactivateMaterial soft-deletes; movements keep referencing the row.
func (s *service) DeactivateMaterial(ctx context.Context, id uuid.UUID) error {
	inactive := false
	_, err := s.UpdateMaterial(ctx, UpdateMaterialInput{ID: id, IsActive: &inactive})
	return err
}
