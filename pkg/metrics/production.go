package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ProductionMetrics tracks ledger and stage pipeline activity.
type ProductionMetrics struct {
	movements         *prometheus.CounterVec
	insufficientStock prometheus.Counter
	transitions       *prometheus.CounterVec
	historyGaps       prometheus.Counter
}

// NewProductionMetrics registers the production counters on reg. A nil
// registerer yields a no-op recorder.
func NewProductionMetrics(reg prometheus.Registerer) *ProductionMetrics {
	if reg == nil {
		return &ProductionMetrics{}
	}
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_movements_total",
		Help:      "Stock ledger movements recorded, by movement type.",
	}, []string{"type"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "insufficient_stock_total",
		Help:      "Outbound stock requests rejected for lack of stock.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "work_order_stage_transitions_total",
		Help:      "Work order stage advances, by destination stage.",
	}, []string{"stage"})
	gaps := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "work_order_stage_history_gaps_total",
		Help:      "Advances where no active stage record matched the current stage.",
	})
	reg.MustRegister(movements, insufficient, transitions, gaps)
	return &ProductionMetrics{
		movements:         movements,
		insufficientStock: insufficient,
		transitions:       transitions,
		historyGaps:       gaps,
	}
}

func (p *ProductionMetrics) IncMovement(movementType string) {
	if p == nil || p.movements == nil {
		return
	}
	p.movements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

func (p *ProductionMetrics) IncInsufficientStock() {
	if p == nil || p.insufficientStock == nil {
		return
	}
	p.insufficientStock.Inc()
}

func (p *ProductionMetrics) IncStageTransition(stage string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(normalizeLabel(stage)).Inc()
}

func (p *ProductionMetrics) IncStageHistoryGap() {
	if p == nil || p.historyGaps == nil {
		return
	}
	p.historyGaps.Inc()
}
