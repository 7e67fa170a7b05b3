package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/Veraticus/invoice-memory/internal/model"
	"github.com/Veraticus/invoice-memory/internal/pattern"
)

// Apply and decide policy.
const (
	CurrencyRecoveryConfidence = 0.7
	// VendorDefaultConfidence scores a currency filled from the vendor's stored
	// defaults (vendors set-default). It only applies when the raw text names no
	// currency, and ranks between text recovery and the VAT rule.
	VendorDefaultConfidence    = 0.75
	VATStrategyConfidence      = 0.8
	LowConfidenceThreshold     = 0.7
	MissingServiceDatePenalty  = 0.3
	LowConfidencePenalty       = 0.2
)

// Reasoning messages.
const (
	ReasonProcessed          = "Processed successfully."
	ReasonDuplicate          = "Duplicate Invoice Detected."
	ReasonMissingServiceDate = "Missing Service Date."
	ReasonLowConfidence      = "Low confidence corrections applied."
)

// Process runs recall, apply and decide for one invoice. The caller's invoice
// is never modified; the result carries a normalized copy.
func (p *Pipeline) Process(ctx context.Context, invoice model.Invoice) (*model.ProcessingResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := model.NewProcessingResult(invoice.Clone())
	result.Reasoning = ReasonProcessed

	duplicate, err := p.recall(ctx, invoice, result)
	if err != nil {
		return nil, err
	}
	if !duplicate {
		p.apply(invoice, result)
		p.decide(invoice, result)
	}

	p.observer.ObserveProcess(result)

	slog.Info("Processed invoice",
		"invoice_id", invoice.ID,
		"vendor", invoice.VendorName,
		"corrections", len(result.ProposedCorrections),
		"confidence", result.ConfidenceScore,
		"requires_review", result.RequiresHumanReview)

	return result, nil
}

// recall decays the store and checks both duplicate indexes. It returns true
// when the invoice was short-circuited as a duplicate.
func (p *Pipeline) recall(ctx context.Context, invoice model.Invoice, result *model.ProcessingResult) (bool, error) {
	if err := p.store.ApplyDecay(ctx); err != nil {
		return false, fmt.Errorf("failed to apply decay: %w", err)
	}
	result.Audit(p.now(), model.StepRecall, fmt.Sprintf("Fetching memory for vendor: %s", invoice.VendorName))

	if !p.store.IsDuplicate(invoice) {
		return false, nil
	}

	result.NormalizedInvoice.IsDuplicate = true
	result.RequiresHumanReview = true
	result.Reasoning = ReasonDuplicate

	if p.store.IsDuplicateByID(invoice.ID) {
		result.Propose(model.ProposedCorrection{
			Field:         "id",
			OriginalValue: invoice.ID,
			NewValue:      invoice.ID,
			Reason:        "Duplicate ID detected",
			Confidence:    1.0,
			Source:        model.SourceDefaultRule,
		})
		result.ConfidenceScore = 0.0
		result.Audit(p.now(), model.StepDecide, "Flagged as duplicate.")
		slog.Warn("Duplicate invoice ID", "invoice_id", invoice.ID)
		return true, nil
	}

	result.Audit(p.now(), model.StepDecide, fmt.Sprintf("Flagged as possible duplicate of %s.", invoice.Fingerprint()))
	slog.Warn("Invoice matches a recorded fingerprint",
		"invoice_id", invoice.ID,
		"fingerprint", invoice.Fingerprint())
	return true, nil
}

// apply fills the normalized invoice from vendor memory, correction memory and
// the built-in rules.
func (p *Pipeline) apply(invoice model.Invoice, result *model.ProcessingResult) {
	result.Audit(p.now(), model.StepApply, "Applying memory and rules.")
	normalized := &result.NormalizedInvoice

	vendor, known := p.store.VendorMemory(invoice.VendorName)
	if known && invoice.RawText != "" {
		for _, field := range pattern.Fields() {
			entry, ok := vendor.Patterns[field.Name]
			if !ok {
				continue
			}
			value, ok := p.matcher.Extract(field.Name, entry.Pattern, invoice.RawText)
			if !ok {
				continue
			}

			previous := fieldValue(*normalized, field.Name)
			setFieldValue(normalized, field.Name, value)
			result.Propose(model.ProposedCorrection{
				Field:         field.Name,
				OriginalValue: optional(previous),
				NewValue:      value,
				Reason:        fmt.Sprintf("Extracted using learned pattern '%s'", entry.Pattern),
				Confidence:    entry.Confidence,
				Source:        model.SourceVendorMemory,
			})
		}
	}

	if normalized.Currency == "" {
		if code, ok := pattern.DetectCurrency(invoice.RawText); ok {
			normalized.Currency = code
			result.Propose(model.ProposedCorrection{
				Field:      "currency",
				NewValue:   code,
				Reason:     "Recovered from text",
				Confidence: CurrencyRecoveryConfidence,
				Source:     model.SourceDefaultRule,
			})
		} else if known && vendor.Defaults["currency"] != "" {
			normalized.Currency = vendor.Defaults["currency"]
			result.Propose(model.ProposedCorrection{
				Field:      "currency",
				NewValue:   normalized.Currency,
				Reason:     "Vendor default currency",
				Confidence: VendorDefaultConfidence,
				Source:     model.SourceVendorMemory,
			})
		}
	}

	if pattern.VATIncluded(invoice.RawText) && !normalized.HasTax() {
		tax := pattern.IncludedVAT(normalized.TotalAmount, pattern.StandardVATRate)
		normalized.TaxAmount = &tax
		result.Propose(model.ProposedCorrection{
			Field:      "taxAmount",
			NewValue:   tax,
			Reason:     "VAT Included Strategy",
			Confidence: VATStrategyConfidence,
			Source:     model.SourceDefaultRule,
		})
	}

	for i := range normalized.LineItems {
		item := &normalized.LineItems[i]
		mapping, ok := p.store.FindCorrection(pattern.DescriptionContext(item.Description))
		if !ok {
			continue
		}
		sku, ok := pattern.ParseSKUMapping(mapping.Correction)
		if !ok || sku == "" || item.SKU == sku {
			continue
		}

		previous := item.SKU
		item.SKU = sku
		result.Propose(model.ProposedCorrection{
			Field:         fmt.Sprintf("lineItems[%d].sku", i),
			OriginalValue: optional(previous),
			NewValue:      sku,
			Reason:        "Mapped from memory",
			Confidence:    mapping.Confidence,
			Source:        model.SourceCorrectionMemory,
		})
	}
}

// decide scores the result. Penalties accumulate; the reasoning reports only
// the last one that fired.
func (p *Pipeline) decide(invoice model.Invoice, result *model.ProcessingResult) {
	score := 1.0

	if result.NormalizedInvoice.ServiceDate == "" && p.isCritical(invoice.VendorName) {
		score -= MissingServiceDatePenalty
		result.Reasoning = ReasonMissingServiceDate
	}

	for _, c := range result.ProposedCorrections {
		if c.Confidence < LowConfidenceThreshold {
			score -= LowConfidencePenalty
			result.Reasoning = ReasonLowConfidence
			break
		}
	}

	result.ConfidenceScore = math.Round(score*100) / 100
	result.RequiresHumanReview = result.ConfidenceScore < p.config.ReviewThreshold

	result.Audit(p.now(), model.StepDecide, fmt.Sprintf("Confidence %.2f, human review required: %t. %s",
		result.ConfidenceScore, result.RequiresHumanReview, result.Reasoning))
}

func fieldValue(invoice model.Invoice, field string) string {
	switch field {
	case pattern.FieldServiceDate:
		return invoice.ServiceDate
	case pattern.FieldSkonto:
		return invoice.Skonto
	case pattern.FieldPONumber:
		return invoice.PONumber
	}
	return ""
}

func setFieldValue(invoice *model.Invoice, field, value string) {
	switch field {
	case pattern.FieldServiceDate:
		invoice.ServiceDate = value
	case pattern.FieldSkonto:
		invoice.Skonto = value
	case pattern.FieldPONumber:
		invoice.PONumber = value
	}
}

// optional maps "" to nil so absent originals serialize as null.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}
