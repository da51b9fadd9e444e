package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
)

// LaborService keeps the artisan roster and per-work-order labor payments.
type LaborService interface {
	CreateArtisan(ctx context.Context, input CreateArtisanInput) (*models.Artisan, error)
	ListArtisans(ctx context.Context, activeOnly bool) ([]models.Artisan, error)
	AssignArtisan(ctx context.Context, input AssignArtisanInput) (*models.WorkOrderArtisan, error)
	UpdateAssignmentPayment(ctx context.Context, input UpdateAssignmentPaymentInput) (*models.WorkOrderArtisan, error)
	ListUnpaidAssignments(ctx context.Context) ([]models.WorkOrderArtisan, error)
}

type laborService struct {
	repo Repository
	now  func() time.Time
}

func NewLaborService(repo Repository) (LaborService, error) {
	if repo == nil {
		return nil, fmt.Errorf("work order repository required")
	}
	return &laborService{repo: repo, now: func() time.Time { return time.Now().UTC() }}, nil
}

type CreateArtisanInput struct {
	Name       string
	Email      string
	Phone      string
	Specialty  string
	HourlyRate *decimal.Decimal
}

type AssignArtisanInput struct {
	WorkOrderID uuid.UUID
	ArtisanID   uuid.UUID
	Stage       *enums.ProductionStage
	Cost        decimal.Decimal
	Notes       string
}

type UpdateAssignmentPaymentInput struct {
	AssignmentID  uuid.UUID
	PaymentStatus enums.PaymentStatus
}

func (s *laborService) CreateArtisan(ctx context.Context, input CreateArtisanInput) (*models.Artisan, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.HourlyRate != nil && input.HourlyRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hourly rate must not be negative")
	}
	artisan := &models.Artisan{
		Name:       name,
		Email:      optionalString(input.Email),
		Phone:      optionalString(input.Phone),
		Specialty:  optionalString(input.Specialty),
		HourlyRate: input.HourlyRate,
		IsActive:   true,
	}
	if err := s.repo.CreateArtisan(ctx, artisan); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create artisan")
	}
	return artisan, nil
}

func (s *laborService) ListArtisans(ctx context.Context, activeOnly bool) ([]models.Artisan, error) {
	rows, err := s.repo.ListArtisans(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artisans")
	}
	return rows, nil
}

func (s *laborService) AssignArtisan(ctx context.Context, input AssignArtisanInput) (*models.WorkOrderArtisan, error) {
	if input.WorkOrderID == uuid.Nil || input.ArtisanID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id and artisan id required")
	}
	if input.Cost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost must not be negative")
	}
	if input.Stage != nil && !input.Stage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid production stage")
	}
	if _, err := s.repo.FindWorkOrder(ctx, input.WorkOrderID); err != nil {
		return nil, notFoundOr(err, "load work order")
	}
	artisan, err := s.repo.FindArtisan(ctx, input.ArtisanID)
	if err != nil {
		return nil, artisanNotFoundOr(err)
	}
	if !artisan.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "artisan is inactive").
			WithDetails(map[string]any{"reason": "invalid_state", "artisan_id": artisan.ID})
	}

	assignment := &models.WorkOrderArtisan{
		WorkOrderID:   input.WorkOrderID,
		ArtisanID:     input.ArtisanID,
		Stage:         input.Stage,
		Cost:          input.Cost.Round(2),
		PaymentStatus: enums.PaymentStatusUnpaid,
		Notes:         optionalString(input.Notes),
	}
	if err := s.repo.CreateAssignment(ctx, assignment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "assign artisan")
	}
	return assignment, nil
}

// UpdateAssignmentPayment stamps paid_at the first time an assignment is paid.
func (s *laborService) UpdateAssignmentPayment(ctx context.Context, input UpdateAssignmentPaymentInput) (*models.WorkOrderArtisan, error) {
	if !input.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	assignment, err := s.repo.FindAssignment(ctx, input.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load assignment")
	}

	updates := map[string]any{"payment_status": input.PaymentStatus}
	if input.PaymentStatus == enums.PaymentStatusPaid && assignment.PaidAt == nil {
		now := s.now()
		updates["paid_at"] = now
		assignment.PaidAt = &now
	}
	if err := s.repo.UpdateAssignment(ctx, assignment.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update assignment payment")
	}
	assignment.PaymentStatus = input.PaymentStatus
	return assignment, nil
}

func (s *laborService) ListUnpaidAssignments(ctx context.Context) ([]models.WorkOrderArtisan, error) {
	rows, err := s.repo.ListUnpaidAssignments(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unpaid assignments")
	}
	return rows, nil
}
