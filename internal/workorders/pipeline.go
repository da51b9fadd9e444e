package workorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox/payloads"
)

// AdvanceInput moves a work order one stage forward.
type AdvanceInput struct {
	WorkOrderID uuid.UUID
	AssignedTo  *uuid.UUID
	Notes       string
	ActorID     *uuid.UUID
}

// AdvanceResult is the post-transition state.
type AdvanceResult struct {
	WorkOrder      models.WorkOrder       `json:"work_order"`
	FromStage      enums.ProductionStage  `json:"from_stage"`
	CompletedStage *models.WorkOrderStage `json:"completed_stage,omitempty"`
	ActiveStage    models.WorkOrderStage  `json:"active_stage"`
	HistoryGap     bool                   `json:"history_gap"`
}

func (s *service) Advance(ctx context.Context, input AdvanceInput) (*AdvanceResult, error) {
	if input.WorkOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}

	var result *AdvanceResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.advance(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncStageTransition(result.ActiveStage.Stage.String())
	}
	logCtx := s.logg.WithWorkOrderID(ctx, result.WorkOrder.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"from_stage": result.FromStage,
		"to_stage":   result.ActiveStage.Stage,
		"status":     result.WorkOrder.Status,
	})
	s.logg.Info(logCtx, "work_order.stage_advanced")
	return result, nil
}

func (s *service) advance(ctx context.Context, tx *gorm.DB, input AdvanceInput) (*AdvanceResult, error) {
	repo := s.repo.WithTx(tx)

	order, err := repo.LockWorkOrder(ctx, input.WorkOrderID)
	if err != nil {
		return nil, notFoundOr(err, "lock work order")
	}
	if order.Status == enums.WorkOrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "work order is cancelled").
			WithDetails(map[string]any{"reason": "invalid_state", "status": order.Status})
	}
	from := order.CurrentStage
	next, ok := from.Next()
	if !ok || order.Status == enums.WorkOrderStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "work order is already at its final stage").
			WithDetails(map[string]any{"reason": "already_final", "current_stage": from})
	}

	now := s.now()
	result := &AdvanceResult{FromStage: from}

	current, err := repo.FindActiveStage(ctx, order.ID, from)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active stage")
	}
	if current == nil {
		result.HistoryGap = true
		if s.metrics != nil {
			s.metrics.IncStageHistoryGap()
		}
		gapCtx := s.logg.WithWorkOrderID(ctx, order.ID.String())
		gapCtx = s.logg.WithField(gapCtx, "stage", from)
		s.logg.Warn(gapCtx, "work_order.stage_history_gap")
	} else {
		if err := repo.CompleteStage(ctx, current.ID, now); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete stage")
		}
		current.Status = enums.StageStatusCompleted
		current.CompletedAt = &now
		result.CompletedStage = current
	}

	stage := models.WorkOrderStage{
		WorkOrderID: order.ID,
		Stage:       next,
		Status:      enums.StageStatusActive,
		StartedAt:   &now,
		AssignedTo:  input.AssignedTo,
		Notes:       optionalString(input.Notes),
	}
	if err := repo.CreateStages(ctx, []models.WorkOrderStage{stage}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stage")
	}

	updates := map[string]any{"current_stage": next}
	order.CurrentStage = next
	if next.IsTerminal() {
		updates["status"] = enums.WorkOrderStatusCompleted
		updates["completed_at"] = now
		order.Status = enums.WorkOrderStatusCompleted
		order.CompletedAt = &now
	} else {
		updates["status"] = enums.WorkOrderStatusInProgress
		order.Status = enums.WorkOrderStatusInProgress
	}
	if order.StartedAt == nil {
		updates["started_at"] = now
		order.StartedAt = &now
	}
	if err := repo.UpdateWorkOrder(ctx, order.ID, updates); err != nil {
		return nil, notFoundOr(err, "update work order")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventWorkOrderStageAdvanced,
		AggregateType: enums.AggregateWorkOrder,
		AggregateID:   order.ID,
		Actor:         outbox.ActorFromID(input.ActorID),
		Data: payloads.WorkOrderStageAdvancedEvent{
			WorkOrderID: order.ID,
			FromStage:   from,
			ToStage:     next,
			Status:      order.Status,
			AdvancedAt:  now,
		},
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue stage advanced event")
	}
	if next.IsTerminal() {
		if err := s.outbox.Emit(ctx, tx, completedEvent(*order, now, false, input.ActorID)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue work order completed event")
		}
	}

	result.WorkOrder = *order
	result.ActiveStage = stage
	return result, nil
}

// ActiveStage answers from the stage history rather than the denormalized
// current_stage column. When no record is active the latest record wins.
func (s *service) ActiveStage(ctx context.Context, id uuid.UUID) (*models.WorkOrderStage, error) {
	stages, err := s.StageHistory(ctx, id)
	if err != nil {
		return nil, err
	}
	record := deriveActiveStage(stages)
	if record == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "work order has no stage history")
	}
	return record, nil
}

// deriveActiveStage prefers the furthest active record and falls back to the
// furthest record of any status.
func deriveActiveStage(stages []models.WorkOrderStage) *models.WorkOrderStage {
	var active, latest *models.WorkOrderStage
	for i := range stages {
		stage := &stages[i]
		if latest == nil || stage.Stage.Index() > latest.Stage.Index() {
			latest = stage
		}
		if stage.Status != enums.StageStatusActive {
			continue
		}
		if active == nil || stage.Stage.Index() > active.Stage.Index() {
			active = stage
		}
	}
	if active != nil {
		return active
	}
	return latest
}
