package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
)

// SupplierService keeps vendor profiles. Suppliers carry no stock behavior.
type SupplierService interface {
	CreateSupplier(ctx context.Context, input CreateSupplierInput) (*models.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, activeOnly bool) ([]models.Supplier, error)
}

type CreateSupplierInput struct {
	Name         string
	ContactName  string
	Email        string
	Phone        string
	Address      string
	Notes        string
	LeadTimeDays *int
}

type supplierService struct {
	repo Repository
}

func NewSupplierService(repo Repository) (SupplierService, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchasing repository required")
	}
	return &supplierService{repo: repo}, nil
}

func (s *supplierService) CreateSupplier(ctx context.Context, input CreateSupplierInput) (*models.Supplier, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.LeadTimeDays != nil && *input.LeadTimeDays < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "lead time must not be negative")
	}
	supplier := &models.Supplier{
		Name:         name,
		ContactName:  optionalString(input.ContactName),
		Email:        optionalString(input.Email),
		Phone:        optionalString(input.Phone),
		Address:      optionalString(input.Address),
		Notes:        optionalString(input.Notes),
		LeadTimeDays: input.LeadTimeDays,
		IsActive:     true,
	}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create supplier")
	}
	return supplier, nil
}

func (s *supplierService) GetSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	supplier, err := s.repo.FindSupplier(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	return supplier, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, activeOnly bool) ([]models.Supplier, error) {
	rows, err := s.repo.ListSuppliers(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list suppliers")
	}
	return rows, nil
}
