package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/commerce"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/logger"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/loomworks-backend/pkg/pagination"
	"github.com/angelmondragon/loomworks-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type pipelineMetrics interface {
	IncStageTransition(stage string)
	IncStageHistoryGap()
}

// OrderSource resolves sales-order line items from the commerce platform.
type OrderSource interface {
	OrderLineItems(ctx context.Context, orderID string) ([]commerce.LineItem, error)
}

// Service drives work orders through the production line.
type Service interface {
	Advance(ctx context.Context, input AdvanceInput) (*AdvanceResult, error)
	CreateFromOrder(ctx context.Context, input CreateFromOrderInput) ([]models.WorkOrder, error)
	Get(ctx context.Context, id uuid.UUID) (*WorkOrderDetail, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) (*types.Page[models.WorkOrder], error)
	StageHistory(ctx context.Context, id uuid.UUID) ([]models.WorkOrderStage, error)
	ActiveStage(ctx context.Context, id uuid.UUID) (*models.WorkOrderStage, error)
	Update(ctx context.Context, input UpdateInput) (*models.WorkOrder, error)
	Cancel(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.WorkOrder, error)
	Hold(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.WorkOrder, error)
	Resume(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.WorkOrder, error)
	AttachMedia(ctx context.Context, input AttachMediaInput) (*models.WorkOrderMedia, error)
	ListMedia(ctx context.Context, workOrderID uuid.UUID) ([]models.WorkOrderMedia, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	orders  OrderSource
	metrics pipelineMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires the pipeline. orders may be nil when CreateFromOrder is
// not needed; metrics and logg may be nil.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, orders OrderSource, metrics pipelineMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("work order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:    repo,
		tx:      tx,
		outbox:  outbox,
		orders:  orders,
		metrics: metrics,
		logg:    logg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// WorkOrderDetail is a work order with everything attached to it.
type WorkOrderDetail struct {
	models.WorkOrder
	Stages      []models.WorkOrderStage   `json:"stages"`
	Media       []models.WorkOrderMedia   `json:"media"`
	Assignments []models.WorkOrderArtisan `json:"assignments"`
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*WorkOrderDetail, error) {
	order, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	stages, err := s.repo.ListStages(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stage history")
	}
	media, err := s.repo.ListMedia(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work order media")
	}
	assignments, err := s.repo.ListAssignments(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artisan assignments")
	}
	return &WorkOrderDetail{
		WorkOrder:   *order,
		Stages:      stages,
		Media:       media,
		Assignments: assignments,
	}, nil
}

func (s *service) List(ctx context.Context, filters ListFilters, params pagination.Params) (*types.Page[models.WorkOrder], error) {
	if filters.Stage != nil && !filters.Stage.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid production stage")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid work order status")
	}
	if filters.Priority != nil && !filters.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid work order priority")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListWorkOrders(ctx, filters, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list work orders")
	}
	items, next := pagination.Page(rows, params.Limit, func(w models.WorkOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: w.CreatedAt, ID: w.ID}
	})
	return &types.Page[models.WorkOrder]{Items: items, NextCursor: next}, nil
}

func (s *service) StageHistory(ctx context.Context, id uuid.UUID) ([]models.WorkOrderStage, error) {
	if _, err := s.load(ctx, s.repo, id); err != nil {
		return nil, err
	}
	stages, err := s.repo.ListStages(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stage history")
	}
	return stages, nil
}

func (s *service) load(ctx context.Context, repo Repository, id uuid.UUID) (*models.WorkOrder, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	order, err := repo.FindWorkOrder(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "load work order")
	}
	return order, nil
}

func notFoundOr(err error, action string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "work order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}

func completedEvent(order models.WorkOrder, at time.Time, forced bool, actor *uuid.UUID) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventWorkOrderCompleted,
		AggregateType: enums.AggregateWorkOrder,
		AggregateID:   order.ID,
		Actor:         outbox.ActorFromID(actor),
		Data: payloads.WorkOrderCompletedEvent{
			WorkOrderID: order.ID,
			OrderID:     order.OrderID,
			Title:       order.Title,
			CompletedAt: at,
			Forced:      forced,
		},
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
