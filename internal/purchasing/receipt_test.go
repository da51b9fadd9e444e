package purchasing

import (
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

func item(ordered, received string) models.PurchaseOrderItem {
	return models.PurchaseOrderItem{ID: uuid.New(), MaterialID: uuid.New(), QuantityOrdered: dec(ordered), QuantityReceived: dec(received)}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name        string
		current     enums.PurchaseOrderStatus
		items       []models.PurchaseOrderItem
		want        enums.PurchaseOrderStatus
		wantChanged bool
	}{
		{name: "nothing received", current: enums.PurchaseOrderStatusOrdered, items: []models.PurchaseOrderItem{item("10", "0"), item("5", "0")}, want: enums.PurchaseOrderStatusOrdered},
		{name: "one line started", current: enums.PurchaseOrderStatusOrdered, items: []models.PurchaseOrderItem{item("10", "4"), item("5", "0")}, want: enums.PurchaseOrderStatusPartial, wantChanged: true},
		{name: "already partial", current: enums.PurchaseOrderStatusPartial, items: []models.PurchaseOrderItem{item("10", "6"), item("5", "0")}, want: enums.PurchaseOrderStatusPartial},
		{name: "all received", current: enums.PurchaseOrderStatusPartial, items: []models.PurchaseOrderItem{item("10", "10"), item("5", "5")}, want: enums.PurchaseOrderStatusReceived, wantChanged: true},
		{name: "over received counts", current: enums.PurchaseOrderStatusDraft, items: []models.PurchaseOrderItem{item("10", "12")}, want: enums.PurchaseOrderStatusReceived, wantChanged: true},
	}
	for _, tt := range tests {
		got, changed := deriveStatus(tt.current, tt.items)
		if got != tt.want || changed != tt.wantChanged {
			t.Fatalf("%s: got (%s, %v), want (%s, %v)", tt.name, got, changed, tt.want, tt.wantChanged)
		}
	}
}

func TestPlanReceipt(t *testing.T) {
	a := item("10", "3")
	b := item("5", "5")
	c := item("2", "0")

	plan := planReceipt([]models.PurchaseOrderItem{a, b, c}, nil)
	if len(plan) != 2 {
		t.Fatalf("expected 2 lines with remaining balance, got %d", len(plan))
	}
	if !plan[0].quantity.Equal(dec("7")) || !plan[1].quantity.Equal(dec("2")) {
		t.Fatalf("unexpected quantities %s %s", plan[0].quantity, plan[1].quantity)
	}

	plan = planReceipt([]models.PurchaseOrderItem{a, b}, []ReceiveItemInput{
		{ItemID: a.ID, QuantityReceived: dec("1")},
		{ItemID: uuid.New(), QuantityReceived: dec("9")},
		{ItemID: b.ID, QuantityReceived: dec("0")},
	})
	if len(plan) != 1 || plan[0].item.ID != a.ID {
		t.Fatalf("unexpected explicit plan %+v", plan)
	}
}
