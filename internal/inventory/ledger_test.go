package inventory

import (
	"testing"

	"github.com/angelmondragon/loomworks-backend/pkg/enums"
)

func TestApplyMovement(t *testing.T) {
	tests := []struct {
		name      string
		kind      enums.MovementType
		before    string
		quantity  string
		wantAfter string
		wantDelta string
		wantErr   bool
	}{
		{name: "in", kind: enums.MovementTypeIn, before: "2", quantity: "3", wantAfter: "5", wantDelta: "3"},
		{name: "out", kind: enums.MovementTypeOut, before: "10", quantity: "3", wantAfter: "7", wantDelta: "-3"},
		{name: "out to zero", kind: enums.MovementTypeOut, before: "4", quantity: "4", wantAfter: "0", wantDelta: "-4"},
		{name: "out overdraw", kind: enums.MovementTypeOut, before: "1", quantity: "50", wantErr: true},
		{name: "adjust down", kind: enums.MovementTypeAdjust, before: "10", quantity: "4", wantAfter: "4", wantDelta: "-6"},
		{name: "adjust up", kind: enums.MovementTypeAdjust, before: "1.5", quantity: "3", wantAfter: "3", wantDelta: "1.5"},
		{name: "unknown", kind: enums.MovementType("gift"), before: "1", quantity: "1", wantErr: true},
	}
	for _, tt := range tests {
		after, delta, err := applyMovement(tt.kind, dec(tt.before), dec(tt.quantity))
		if tt.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if !after.Equal(dec(tt.wantAfter)) || !delta.Equal(dec(tt.wantDelta)) {
			t.Fatalf("%s: got after=%s delta=%s", tt.name, after, delta)
		}
	}
}

func TestCrossedIntoLowStock(t *testing.T) {
	tests := []struct {
		before, after, min string
		want               bool
	}{
		{"10", "7", "5", false},
		{"7", "1", "5", true},
		{"7", "5", "5", true},
		{"5", "4", "5", false},
		{"1", "20", "5", false},
	}
	for _, tt := range tests {
		if got := crossedIntoLowStock(dec(tt.before), dec(tt.after), dec(tt.min)); got != tt.want {
			t.Fatalf("crossed(%s->%s, min %s) = %v, want %v", tt.before, tt.after, tt.min, got, tt.want)
		}
	}
}
