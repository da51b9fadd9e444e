package purchasing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/internal/inventory"
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

// StockLedger is the slice of the inventory ledger receiving needs.
type StockLedger interface {
	AdjustStockTx(ctx context.Context, tx *gorm.DB, input inventory.AdjustStockInput) (*inventory.AdjustStockResult, error)
	RecordAdjusted(ctx context.Context, result *inventory.AdjustStockResult)
}

// Service manages supplier replenishment orders.
type Service interface {
	Create(ctx context.Context, input CreatePurchaseOrderInput) (*PurchaseOrderDetail, error)
	Receive(ctx context.Context, input ReceiveInput) (*ReceiveResult, error)
	Update(ctx context.Context, input UpdatePurchaseOrderInput) (*PurchaseOrderDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*PurchaseOrderDetail, error)
	List(ctx context.Context, filters OrderFilters, params pagination.Params) (*types.Page[models.PurchaseOrder], error)
	ListUnpaid(ctx context.Context) ([]models.PurchaseOrder, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	ledger StockLedger
	outbox outboxPublisher
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires purchase order handling on top of the stock ledger.
func NewService(repo Repository, tx txRunner, ledger StockLedger, outbox outboxPublisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchasing repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:   repo,
		tx:     tx,
		ledger: ledger,
		outbox: outbox,
		logg:   logg,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreatePurchaseOrderInput opens a draft order.
type CreatePurchaseOrderInput struct {
	SupplierID   uuid.UUID
	ExpectedDate *time.Time
	Notes        string
	Items        []CreateItemInput
	CreatedBy    *uuid.UUID
}

// CreateItemInput is one material line.
type CreateItemInput struct {
	MaterialID      uuid.UUID
	QuantityOrdered decimal.Decimal
	UnitPrice       decimal.Decimal
}

// ReceiveInput lists explicit receipts. An empty Items receives every
// remaining balance.
type ReceiveInput struct {
	PurchaseOrderID uuid.UUID
	Items           []ReceiveItemInput
	ReceivedBy      *uuid.UUID
}

// ReceiveItemInput credits one line.
type ReceiveItemInput struct {
	ItemID           uuid.UUID
	QuantityReceived decimal.Decimal
}

// ReceiveResult reports progress after a receipt.
type ReceiveResult struct {
	FullyReceived  bool                      `json:"fully_received"`
	ItemsProcessed int                       `json:"items_processed"`
	Status         enums.PurchaseOrderStatus `json:"status"`
}

// UpdatePurchaseOrderInput patches status, date, payment and note fields.
type UpdatePurchaseOrderInput struct {
	ID           uuid.UUID
	Status       *enums.PurchaseOrderStatus
	OrderDate    *time.Time
	ExpectedDate *time.Time
	ReceivedDate *time.Time
	PaidStatus   *enums.PaymentStatus
	PaidAt       *time.Time
	PaidAmount   *decimal.Decimal
	Notes        *string
}

// PurchaseOrderDetail is an order with its lines and material names.
type PurchaseOrderDetail struct {
	models.PurchaseOrder
	Lines []LineDetail `json:"lines"`
}

// LineDetail decorates an item with the material name.
type LineDetail struct {
	models.PurchaseOrderItem
	MaterialName string `json:"material_name"`
}

func (s *service) Create(ctx context.Context, input CreatePurchaseOrderInput) (*PurchaseOrderDetail, error) {
	if input.SupplierID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item required")
	}

	subtotal := decimal.Zero
	items := make([]models.PurchaseOrderItem, 0, len(input.Items))
	materialIDs := make([]uuid.UUID, 0, len(input.Items))
	seen := map[uuid.UUID]struct{}{}
	for i, item := range input.Items {
		if item.MaterialID == uuid.Nil {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d]: material id required", i)
		}
		if !item.QuantityOrdered.IsPositive() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d]: quantity must be positive", i)
		}
		if item.UnitPrice.IsNegative() {
			return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d]: unit price must not be negative", i)
		}
		subtotal = subtotal.Add(item.QuantityOrdered.Mul(item.UnitPrice))
		items = append(items, models.PurchaseOrderItem{
			MaterialID:       item.MaterialID,
			QuantityOrdered:  item.QuantityOrdered,
			QuantityReceived: decimal.Zero,
			UnitPrice:        item.UnitPrice,
		})
		if _, ok := seen[item.MaterialID]; !ok {
			seen[item.MaterialID] = struct{}{}
			materialIDs = append(materialIDs, item.MaterialID)
		}
	}

	if _, err := s.repo.FindSupplier(ctx, input.SupplierID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load supplier")
	}
	found, err := s.repo.CountMaterials(ctx, materialIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load materials")
	}
	if found != int64(len(materialIDs)) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "material not found")
	}

	now := s.now()
	order := &models.PurchaseOrder{
		OrderNumber:  newOrderNumber(now),
		SupplierID:   input.SupplierID,
		Status:       enums.PurchaseOrderStatusDraft,
		ExpectedDate: input.ExpectedDate,
		Subtotal:     subtotal.Round(2),
		PaidStatus:   enums.PaymentStatusUnpaid,
		Notes:        optionalString(input.Notes),
		CreatedBy:    input.CreatedBy,
		Items:        items,
	}
	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateOrder(ctx, order)
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create purchase order")
	}
	return s.Get(ctx, order.ID)
}

func (s *service) Receive(ctx context.Context, input ReceiveInput) (*ReceiveResult, error) {
	if input.PurchaseOrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	order, err := s.loadOrder(ctx, input.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if err := checkReceivable(order.Status); err != nil {
		return nil, err
	}

	plan := planReceipt(order.Items, input.Items)
	receiveRemaining := len(input.Items) == 0
	processed := 0
	var lineErr error
	for _, line := range plan {
		// Each line commits on its own; earlier lines stay applied if a later one fails.
		var adjusted *inventory.AdjustStockResult
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			adjusted, err = s.receiveLine(ctx, tx, order.ID, line, receiveRemaining, input.ReceivedBy)
			return err
		})
		if err != nil {
			lineErr = pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "receive line")
			break
		}
		if adjusted == nil {
			continue
		}
		s.ledger.RecordAdjusted(ctx, adjusted)
		processed++
	}

	result, err := s.settleStatus(ctx, order.ID, processed, input.ReceivedBy)
	if lineErr != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"purchase_order_id": order.ID.String(),
			"items_processed":   processed,
		}), "purchase_order.receive_partial_failure")
		return nil, lineErr
	}
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"purchase_order_id": order.ID.String(),
		"items_processed":   result.ItemsProcessed,
		"status":            result.Status,
	}), "purchase_order.received")
	return result, nil
}

// receiveLine credits one planned line while holding the order lock. Status
// and line balance are re-read under the lock; with receiveRemaining the
// credited quantity is the balance still open, and a nil result means another
// receipt already closed the line.
func (s *service) receiveLine(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, line receiptLine, receiveRemaining bool, actor *uuid.UUID) (*inventory.AdjustStockResult, error) {
	repo := s.repo.WithTx(tx)
	locked, err := repo.LockOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase order")
	}
	if err := checkReceivable(locked.Status); err != nil {
		return nil, err
	}

	items, err := repo.FindItems(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order items")
	}
	var item *models.PurchaseOrderItem
	for i := range items {
		if items[i].ID == line.item.ID {
			item = &items[i]
			break
		}
	}
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order item not found").
			WithDetails(map[string]any{"item_id": line.item.ID})
	}

	quantity := line.quantity
	if receiveRemaining {
		quantity = item.Remaining()
		if !quantity.IsPositive() {
			return nil, nil
		}
	}

	adjusted, err := s.ledger.AdjustStockTx(ctx, tx, inventory.AdjustStockInput{
		MaterialID: item.MaterialID,
		Quantity:   quantity,
		Type:       enums.MovementTypeIn,
		Reason:     enums.MovementReasonPurchaseOrder,
		Notes:      orderID.String(),
		CreatedBy:  actor,
	})
	if err != nil {
		return nil, err
	}
	if err := repo.AddReceived(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update received quantity")
	}
	return adjusted, nil
}

func checkReceivable(status enums.PurchaseOrderStatus) error {
	switch status {
	case enums.PurchaseOrderStatusReceived:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order already received").
			WithDetails(map[string]any{"reason": "already_received"})
	case enums.PurchaseOrderStatusCancelled:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order is cancelled").
			WithDetails(map[string]any{"reason": "invalid_state", "status": status})
	}
	return nil
}

// settleStatus recomputes the order status from every line as stored now.
func (s *service) settleStatus(ctx context.Context, orderID uuid.UUID, processed int, actor *uuid.UUID) (*ReceiveResult, error) {
	result := &ReceiveResult{ItemsProcessed: processed}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock purchase order")
		}
		items, err := repo.FindItems(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order items")
		}

		if order.Status == enums.PurchaseOrderStatusCancelled {
			result.Status = order.Status
			return nil
		}
		next, changed := deriveStatus(order.Status, items)
		result.Status = next
		result.FullyReceived = next == enums.PurchaseOrderStatusReceived
		if !changed {
			return nil
		}

		updates := map[string]any{"status": next}
		now := s.now()
		if next == enums.PurchaseOrderStatusReceived {
			updates["received_date"] = now
		}
		if err := repo.UpdateOrder(ctx, orderID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order status")
		}
		if next != enums.PurchaseOrderStatusReceived {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPurchaseOrderReceived,
			AggregateType: enums.AggregatePurchaseOrder,
			AggregateID:   order.ID,
			Actor:         outbox.ActorFromID(actor),
			Data: payloads.PurchaseOrderReceivedEvent{
				PurchaseOrderID: order.ID,
				OrderNumber:     order.OrderNumber,
				SupplierID:      order.SupplierID,
				ReceivedAt:      now,
				ItemCount:       len(items),
			},
		})
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodeDependency, "settle purchase order status")
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, input UpdatePurchaseOrderInput) (*PurchaseOrderDetail, error) {
	if input.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase order status")
	}
	if input.PaidStatus != nil && !input.PaidStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	if input.PaidAmount != nil && input.PaidAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paid amount must not be negative")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, input.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
		}
		if input.Status != nil && *input.Status != order.Status && order.Status.IsClosed() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "purchase order status is final").
				WithDetails(map[string]any{"reason": "invalid_state", "status": order.Status})
		}
		updates := buildOrderPatch(input, s.now())
		if err := repo.UpdateOrder(ctx, input.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update purchase order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, input.ID)
}

// buildOrderPatch applies the two auto-stamps: paid without paid_at, and
// ordered without order_date, both take the current time.
func buildOrderPatch(input UpdatePurchaseOrderInput, now time.Time) map[string]any {
	updates := map[string]any{}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.OrderDate != nil {
		updates["order_date"] = *input.OrderDate
	}
	if input.ExpectedDate != nil {
		updates["expected_date"] = *input.ExpectedDate
	}
	if input.ReceivedDate != nil {
		updates["received_date"] = *input.ReceivedDate
	}
	if input.PaidStatus != nil {
		updates["paid_status"] = *input.PaidStatus
	}
	if input.PaidAt != nil {
		updates["paid_at"] = *input.PaidAt
	}
	if input.PaidAmount != nil {
		updates["paid_amount"] = *input.PaidAmount
	}
	if input.Notes != nil {
		updates["notes"] = optionalString(*input.Notes)
	}
	if input.PaidStatus != nil && *input.PaidStatus == enums.PaymentStatusPaid && input.PaidAt == nil {
		updates["paid_at"] = now
	}
	if input.Status != nil && *input.Status == enums.PurchaseOrderStatusOrdered && input.OrderDate == nil {
		updates["order_date"] = now
	}
	return updates
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockOrder(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
		}
		if order.Status != enums.PurchaseOrderStatusDraft {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only draft purchase orders can be deleted").
				WithDetails(map[string]any{"reason": "invalid_state", "status": order.Status})
		}
		if err := repo.DeleteOrder(ctx, id); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete purchase order")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PurchaseOrderDetail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase order id required")
	}
	order, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.MaterialID)
	}
	names, err := s.repo.MaterialNames(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load material names")
	}
	detail := &PurchaseOrderDetail{PurchaseOrder: *order, Lines: make([]LineDetail, 0, len(order.Items))}
	for _, item := range order.Items {
		detail.Lines = append(detail.Lines, LineDetail{PurchaseOrderItem: item, MaterialName: names[item.MaterialID]})
	}
	return detail, nil
}

func (s *service) List(ctx context.Context, filters OrderFilters, params pagination.Params) (*types.Page[models.PurchaseOrder], error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase order status")
	}
	if filters.PaidStatus != nil && !filters.PaidStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListOrders(ctx, filters, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchase orders")
	}
	items, next := pagination.Page(rows, params.Limit, func(o models.PurchaseOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &types.Page[models.PurchaseOrder]{Items: items, NextCursor: next}, nil
}

func (s *service) ListUnpaid(ctx context.Context) ([]models.PurchaseOrder, error) {
	rows, err := s.repo.ListUnpaid(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unpaid purchase orders")
	}
	return rows, nil
}

func (s *service) loadOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase order")
	}
	return order, nil
}

// IsAlreadyReceived reports whether err came from receiving a closed order.
func IsAlreadyReceived(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		return false
	}
	details, ok := typed.Details().(map[string]any)
	return ok && details["reason"] == "already_received"
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
