package workorders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
)

// UpdateInput patches scheduling fields and the manual status. The stage is
// only moved by Advance.
type UpdateInput struct {
	ID                uuid.UUID
	Priority          *enums.WorkOrderPriority
	DueDate           *time.Time
	Notes             *string
	AssignedArtisanID *uuid.UUID
	Status            *enums.WorkOrderStatus
	ActorID           *uuid.UUID
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.WorkOrder, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "work order id required")
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid work order priority")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid work order status")
	}

	var updated *models.WorkOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockWorkOrder(ctx, input.ID)
		if err != nil {
			return notFoundOr(err, "lock work order")
		}
		if input.AssignedArtisanID != nil {
			if _, err := repo.FindArtisan(ctx, *input.AssignedArtisanID); err != nil {
				return artisanNotFoundOr(err)
			}
		}

		now := s.now()
		updates, forced, err := buildUpdate(*order, input, now)
		if err != nil {
			return err
		}
		if err := repo.UpdateWorkOrder(ctx, order.ID, updates); err != nil {
			return notFoundOr(err, "update work order")
		}
		if forced {
			order.Status = enums.WorkOrderStatusCompleted
			order.CompletedAt = &now
			if err := s.outbox.Emit(ctx, tx, completedEvent(*order, now, true, input.ActorID)); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue work order completed event")
			}
		}

		updated, err = repo.FindWorkOrder(ctx, order.ID)
		if err != nil {
			return notFoundOr(err, "reload work order")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "update work order")
	}

	logCtx := s.logg.WithWorkOrderID(ctx, updated.ID.String())
	logCtx = s.logg.WithField(logCtx, "status", updated.Status)
	s.logg.Info(logCtx, "work_order.updated")
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.WorkOrder, error) {
	status := enums.WorkOrderStatusCancelled
	return s.Update(ctx, UpdateInput{ID: id, Status: &status, ActorID: actorID})
}

func (s *service) Hold(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.WorkOrder, error) {
	status := enums.WorkOrderStatusOnHold
	return s.Update(ctx, UpdateInput{ID: id, Status: &status, ActorID: actorID})
}

// Resume returns an on-hold unit to in_progress, or pending when work never
// started on its first stage.
func (s *service) Resume(ctx context.Context, id uuid.UUID, actorID *uuid.UUID) (*models.WorkOrder, error) {
	order, err := s.load(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.WorkOrderStatusOnHold {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "work order is not on hold").
			WithDetails(map[string]any{"reason": "invalid_state", "status": order.Status})
	}
	status := enums.WorkOrderStatusInProgress
	if order.StartedAt == nil && order.CurrentStage == enums.FirstStage() {
		status = enums.WorkOrderStatusPending
	}
	return s.Update(ctx, UpdateInput{ID: id, Status: &status, ActorID: actorID})
}

// buildUpdate reports forced=true when the patch manually completes the unit.
func buildUpdate(order models.WorkOrder, input UpdateInput, now time.Time) (map[string]any, bool, error) {
	updates := map[string]any{}
	if input.Priority != nil {
		updates["priority"] = *input.Priority
	}
	if input.DueDate != nil {
		updates["due_date"] = *input.DueDate
	}
	if input.Notes != nil {
		updates["notes"] = optionalString(*input.Notes)
	}
	if input.AssignedArtisanID != nil {
		updates["assigned_artisan_id"] = *input.AssignedArtisanID
	}

	forced := false
	if input.Status != nil && *input.Status != order.Status {
		if order.Status.IsFinal() {
			return nil, false, pkgerrors.New(pkgerrors.CodeStateConflict, "work order status is final").
				WithDetails(map[string]any{"reason": "invalid_state", "status": order.Status})
		}
		next := *input.Status
		updates["status"] = next
		switch next {
		case enums.WorkOrderStatusCompleted:
			updates["completed_at"] = now
			forced = true
		case enums.WorkOrderStatusInProgress:
			if order.StartedAt == nil {
				updates["started_at"] = now
			}
		}
	}
	if len(updates) == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	return updates, forced, nil
}

func artisanNotFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "artisan not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artisan")
}
