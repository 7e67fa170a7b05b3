package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/invoice-memory/internal/model"
)

func TestMetrics_ObserveProcess(t *testing.T) {
	m := New(prometheus.NewRegistry())

	approved := model.NewProcessingResult(model.Invoice{ID: "A"})
	approved.Propose(model.ProposedCorrection{Field: "currency", Source: model.SourceDefaultRule, Confidence: 0.7})

	review := model.NewProcessingResult(model.Invoice{ID: "B"})
	review.RequiresHumanReview = true
	review.ConfidenceScore = 0.5
	review.Propose(model.ProposedCorrection{Field: "skonto", Source: model.SourceVendorMemory, Confidence: 0.5})
	review.Propose(model.ProposedCorrection{Field: "lineItems[0].sku", Source: model.SourceCorrectionMemory, Confidence: 0.5})

	duplicate := model.NewProcessingResult(model.Invoice{ID: "C", IsDuplicate: true})
	duplicate.RequiresHumanReview = true

	for _, r := range []*model.ProcessingResult{approved, review, duplicate} {
		m.ObserveProcess(r)
	}

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.InvoicesProcessed.WithLabelValues(OutcomeAutoApproved)), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.InvoicesProcessed.WithLabelValues(OutcomeReview)), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.InvoicesProcessed.WithLabelValues(OutcomeDuplicate)), 1e-9)

	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CorrectionsApplied.WithLabelValues("default_rule")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CorrectionsApplied.WithLabelValues("vendor_memory")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.CorrectionsApplied.WithLabelValues("correction_memory")), 1e-9)

	assert.Equal(t, 1, testutil.CollectAndCount(m.ConfidenceScore))
}

func TestMetrics_ObserveLearn(t *testing.T) {
	m := New(prometheus.NewRegistry())

	learned := model.NewProcessingResult(model.Invoice{ID: "A"})
	learned.MemoryUpdates = []string{"Learned Skonto pattern", "Mapped SKU: FREIGHT"}

	m.ObserveLearn(learned)
	m.ObserveLearn(model.NewProcessingResult(model.Invoice{ID: "B"}))

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.FeedbackTotal), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.MemoryUpdates), 1e-9)
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)

	assert.Panics(t, func() { New(reg) }, "duplicate registration must be caught")
}
