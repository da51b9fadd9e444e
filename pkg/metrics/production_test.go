package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestProductionMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewProductionMetrics(reg)

	m.IncMovement("out")
	m.IncMovement("out")
	m.IncMovement("in")
	m.IncInsufficientStock()
	m.IncStageTransition("packing")
	m.IncStageHistoryGap()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	checks := []struct {
		name  string
		label string
		value string
		want  float64
	}{
		{name: "loomworks_stock_movements_total", label: "type", value: "out", want: 2},
		{name: "loomworks_stock_movements_total", label: "type", value: "in", want: 1},
		{name: "loomworks_work_order_stage_transitions_total", label: "stage", value: "packing", want: 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s{%s=%s} = %f, want %f", c.name, c.label, c.value, got, c.want)
		}
	}

	for _, name := range []string{"loomworks_insufficient_stock_total", "loomworks_work_order_stage_history_gaps_total"} {
		mf := findMetricFamily(mfs, name)
		if mf == nil || len(mf.GetMetric()) != 1 {
			t.Fatalf("expected %s to be exported", name)
		}
		if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 1 {
			t.Fatalf("%s = %f, want 1", name, got)
		}
	}
}

func TestNilProductionMetricsIsSafe(t *testing.T) {
	var m *ProductionMetrics
	m.IncMovement("in")
	m.IncInsufficientStock()
	m.IncStageTransition("qc")
	m.IncStageHistoryGap()

	NewProductionMetrics(nil).IncMovement("in")
}
