package workorders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/commerce"
	dbpkg "github.com/angelmondragon/loomworks-backend/pkg/db"
	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/loomworks-backend/pkg/errors"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox"
	"github.com/angelmondragon/loomworks-backend/pkg/outbox/payloads"
)

// MaxUnitsPerLine bounds how many work orders one order line may expand into.
const MaxUnitsPerLine = 100

const workOrderUnitConstraint = "work_orders_order_item_unit_key"

// errSeedRace marks an insert that lost to a concurrent seeding of the same
// order.
var errSeedRace = errors.New("work orders seeded concurrently")

// CreateFromOrderInput names the sales order to expand into work orders.
type CreateFromOrderInput struct {
	OrderID string
	ActorID *uuid.UUID
}

func (s *service) CreateFromOrder(ctx context.Context, input CreateFromOrderInput) ([]models.WorkOrder, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if s.orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order source not configured")
	}

	existing, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing work orders")
	}
	if len(existing) > 0 {
		return nil, existingWorkOrdersError(orderID, existing)
	}

	items, err := s.orders.OrderLineItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "fetch order line items")
	}
	orders, err := expandLineItems(orderID, items)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no producible line items").
			WithDetails(map[string]any{"order_id": orderID})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.FindByOrderID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing work orders")
		}
		if len(existing) > 0 {
			return existingWorkOrdersError(orderID, existing)
		}
		if err := repo.CreateWorkOrders(ctx, orders); err != nil {
			if dbpkg.IsUniqueViolation(err, workOrderUnitConstraint) {
				return errSeedRace
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create work orders")
		}

		now := s.now()
		stages := make([]models.WorkOrderStage, 0, len(orders))
		ids := make([]uuid.UUID, 0, len(orders))
		for _, order := range orders {
			stages = append(stages, models.WorkOrderStage{
				WorkOrderID: order.ID,
				Stage:       order.CurrentStage,
				Status:      enums.StageStatusActive,
				StartedAt:   &now,
			})
			ids = append(ids, order.ID)
		}
		if err := repo.CreateStages(ctx, stages); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record initial stages")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventWorkOrdersCreated,
			AggregateType: enums.AggregateSalesOrder,
			AggregateID:   SalesOrderAggregateID(orderID),
			DedupeKey:     "work_orders_created:" + orderID,
			Actor:         outbox.ActorFromID(input.ActorID),
			Data: payloads.WorkOrdersCreatedEvent{
				OrderID:      orderID,
				WorkOrderIDs: ids,
			},
		})
	})
	if errors.Is(err, errSeedRace) {
		return nil, s.seedRaceError(ctx, orderID)
	}
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "create work orders")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":    orderID,
		"work_orders": len(orders),
	})
	s.logg.Info(logCtx, "work_orders.created")
	return orders, nil
}

// SalesOrderAggregateID maps an external order id onto a stable uuid so
// outbox rows for the order share one aggregate.
func SalesOrderAggregateID(orderID string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("sales-order:"+orderID))
}

func existingWorkOrdersError(orderID string, existing []models.WorkOrder) error {
	ids := make([]string, 0, len(existing))
	for _, order := range existing {
		ids = append(ids, order.ID.String())
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "work orders already exist for order").
		WithDetails(map[string]any{"order_id": orderID, "work_order_ids": ids})
}

// seedRaceError reports the set committed by the concurrent caller. The
// failed transaction cannot read it, so it is loaded afresh.
func (s *service) seedRaceError(ctx context.Context, orderID string) error {
	existing, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil || len(existing) == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "work orders already exist for order").
			WithDetails(map[string]any{"order_id": orderID})
	}
	return existingWorkOrdersError(orderID, existing)
}

// expandLineItems produces one pending work order per physical unit.
func expandLineItems(orderID string, items []commerce.LineItem) ([]models.WorkOrder, error) {
	var orders []models.WorkOrder
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if item.Quantity > MaxUnitsPerLine {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order line quantity exceeds unit limit").
				WithDetails(map[string]any{
					"order_id": orderID,
					"item_id":  item.ItemID,
					"quantity": item.Quantity,
					"max":      MaxUnitsPerLine,
				})
		}
		for unit := 1; unit <= item.Quantity; unit++ {
			orders = append(orders, models.WorkOrder{
				OrderID:      orderID,
				OrderItemID:  item.ItemID,
				UnitIndex:    unit,
				UnitCount:    item.Quantity,
				Title:        unitTitle(item, unit),
				Size:         optionalString(item.VariantTitle),
				SKU:          optionalString(item.SKU),
				ThumbnailURL: optionalString(item.Thumbnail),
				CurrentStage: enums.FirstStage(),
				Status:       enums.WorkOrderStatusPending,
				Priority:     enums.WorkOrderPriorityNormal,
			})
		}
	}
	return orders, nil
}

func unitTitle(item commerce.LineItem, unit int) string {
	title := strings.TrimSpace(item.Title)
	if variant := strings.TrimSpace(item.VariantTitle); variant != "" {
		title += " - " + variant
	}
	if item.Quantity > 1 {
		title += fmt.Sprintf(" (%d/%d)", unit, item.Quantity)
	}
	return title
}
