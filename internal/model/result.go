package model

import "time"

// CorrectionSource records where a proposed correction came from.
type CorrectionSource string

const (
	// SourceVendorMemory marks values extracted with a learned vendor pattern.
	SourceVendorMemory CorrectionSource = "vendor_memory"
	// SourceCorrectionMemory marks values taken from a learned context mapping.
	SourceCorrectionMemory CorrectionSource = "correction_memory"
	// SourceDefaultRule marks values produced by built-in rules.
	SourceDefaultRule CorrectionSource = "default_rule"
)

// Step names a phase of the correction pipeline.
type Step string

// Pipeline phases in execution order.
const (
	StepRecall Step = "recall"
	StepApply  Step = "apply"
	StepDecide Step = "decide"
	StepLearn  Step = "learn"
)

// ProposedCorrection is one change the pipeline made or suggests.
// Field is a dotted path such as "lineItems[0].sku".
type ProposedCorrection struct {
	OriginalValue any              `json:"originalValue"`
	NewValue      any              `json:"newValue"`
	Field         string           `json:"field"`
	Reason        string           `json:"reason"`
	Source        CorrectionSource `json:"source"`
	Confidence    float64          `json:"confidence"`
}

// AuditEntry is a single line of the per-invocation audit trail.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Step      Step      `json:"step"`
	Details   string    `json:"details"`
}

// ProcessingResult is returned by both processing and learning.
type ProcessingResult struct {
	Reasoning           string               `json:"reasoning"`
	ProposedCorrections []ProposedCorrection `json:"proposedCorrections"`
	MemoryUpdates       []string             `json:"memoryUpdates"`
	AuditTrail          []AuditEntry         `json:"auditTrail"`
	NormalizedInvoice   Invoice              `json:"normalizedInvoice"`
	ConfidenceScore     float64              `json:"confidenceScore"`
	RequiresHumanReview bool                 `json:"requiresHumanReview"`
}

// NewProcessingResult returns a result with empty, non-nil collections.
func NewProcessingResult(invoice Invoice) *ProcessingResult {
	return &ProcessingResult{
		NormalizedInvoice:   invoice,
		ProposedCorrections: []ProposedCorrection{},
		MemoryUpdates:       []string{},
		AuditTrail:          []AuditEntry{},
		ConfidenceScore:     1.0,
	}
}

// Audit appends an entry to the trail.
func (r *ProcessingResult) Audit(at time.Time, step Step, details string) {
	r.AuditTrail = append(r.AuditTrail, AuditEntry{
		Step:      step,
		Timestamp: at,
		Details:   details,
	})
}

// Propose appends a correction.
func (r *ProcessingResult) Propose(c ProposedCorrection) {
	r.ProposedCorrections = append(r.ProposedCorrections, c)
}
