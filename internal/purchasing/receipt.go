package purchasing

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

type receiptLine struct {
	item     models.PurchaseOrderItem
	quantity decimal.Decimal
}

// planReceipt resolves which lines get credited and by how much. Without
// explicit requests every remaining balance is received. Unknown item ids and
// non-positive quantities are skipped.
func planReceipt(items []models.PurchaseOrderItem, requested []ReceiveItemInput) []receiptLine {
	var plan []receiptLine
	if len(requested) == 0 {
		for _, item := range items {
			if remaining := item.Remaining(); remaining.IsPositive() {
				plan = append(plan, receiptLine{item: item, quantity: remaining})
			}
		}
		return plan
	}

	byID := make(map[uuid.UUID]models.PurchaseOrderItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, req := range requested {
		item, ok := byID[req.ItemID]
		if !ok || !req.QuantityReceived.IsPositive() {
			continue
		}
		plan = append(plan, receiptLine{item: item, quantity: req.QuantityReceived})
	}
	return plan
}

// deriveStatus computes the order status from line progress. changed is false
// when the stored status already matches.
func deriveStatus(current enums.PurchaseOrderStatus, items []models.PurchaseOrderItem) (enums.PurchaseOrderStatus, bool) {
	if len(items) == 0 {
		return current, false
	}
	allReceived := true
	anyReceived := false
	for _, item := range items {
		if !item.IsFullyReceived() {
			allReceived = false
		}
		if item.QuantityReceived.IsPositive() {
			anyReceived = true
		}
	}
	switch {
	case allReceived:
		return enums.PurchaseOrderStatusReceived, current != enums.PurchaseOrderStatusReceived
	case anyReceived && current != enums.PurchaseOrderStatusPartial:
		return enums.PurchaseOrderStatusPartial, true
	default:
		return current, false
	}
}

// newOrderNumber formats PO-<YYYYMMDD>-<6 hex>.
func newOrderNumber(now time.Time) string {
	id := uuid.New()
	return "PO-" + now.Format("20060102") + "-" + hex.EncodeToString(id[:3])
}
