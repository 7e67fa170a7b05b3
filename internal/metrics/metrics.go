// Package metrics exposes Prometheus counters for the correction pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Veraticus/invoice-memory/internal/model"
)

// Outcome labels for invmem_invoices_processed_total.
const (
	OutcomeAutoApproved = "auto_approved"
	OutcomeReview       = "review"
	OutcomeDuplicate    = "duplicate"
)

// Metrics implements engine.Observer.
//
// Metrics:
//   - invmem_invoices_processed_total{outcome}
//   - invmem_corrections_proposed_total{source}
//   - invmem_confidence_score
//   - invmem_feedback_total
//   - invmem_memory_updates_total
type Metrics struct {
	InvoicesProcessed  *prometheus.CounterVec
	CorrectionsApplied *prometheus.CounterVec
	ConfidenceScore    prometheus.Histogram
	FeedbackTotal      prometheus.Counter
	MemoryUpdates      prometheus.Counter
}

// New registers the pipeline metrics with reg. Pass prometheus.DefaultRegisterer
// to expose them through promhttp.Handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InvoicesProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invmem_invoices_processed_total",
				Help: "Total number of invoices processed, by outcome",
			},
			[]string{"outcome"},
		),
		CorrectionsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invmem_corrections_proposed_total",
				Help: "Total number of proposed corrections, by source",
			},
			[]string{"source"},
		),
		ConfidenceScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "invmem_confidence_score",
				Help:    "Distribution of final confidence scores",
				Buckets: []float64{0, 0.3, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
			},
		),
		FeedbackTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "invmem_feedback_total",
				Help: "Total number of learn invocations",
			},
		),
		MemoryUpdates: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "invmem_memory_updates_total",
				Help: "Total number of patterns and mappings learned",
			},
		),
	}
}

// ObserveProcess records one process result.
func (m *Metrics) ObserveProcess(result *model.ProcessingResult) {
	m.InvoicesProcessed.WithLabelValues(outcome(result)).Inc()
	for _, c := range result.ProposedCorrections {
		m.CorrectionsApplied.WithLabelValues(string(c.Source)).Inc()
	}
	m.ConfidenceScore.Observe(result.ConfidenceScore)
}

// ObserveLearn records one learn result.
func (m *Metrics) ObserveLearn(result *model.ProcessingResult) {
	m.FeedbackTotal.Inc()
	m.MemoryUpdates.Add(float64(len(result.MemoryUpdates)))
}

func outcome(result *model.ProcessingResult) string {
	switch {
	case result.NormalizedInvoice.IsDuplicate:
		return OutcomeDuplicate
	case result.RequiresHumanReview:
		return OutcomeReview
	default:
		return OutcomeAutoApproved
	}
}
