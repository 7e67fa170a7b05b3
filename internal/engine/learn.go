package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/invoice-memory/internal/model"
	"github.com/Veraticus/invoice-memory/internal/pattern"
)

// ReasonFeedbackPersisted is the reasoning attached to learning results.
const ReasonFeedbackPersisted = "Feedback Persisted"

// Learn compares the original invoice with its human-approved final version,
// stores the anchors and mappings that explain the differences, and records
// the original in the duplicate indexes.
func (p *Pipeline) Learn(ctx context.Context, original, final model.Invoice) (*model.ProcessingResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	result := model.NewProcessingResult(final.Clone())
	result.Reasoning = ReasonFeedbackPersisted
	result.Audit(p.now(), model.StepLearn, fmt.Sprintf("Comparing approved invoice %s with original.", original.ID))

	learned := func(msg string) {
		result.MemoryUpdates = append(result.MemoryUpdates, msg)
		result.Audit(p.now(), model.StepLearn, msg)
	}

	learnField := func(name string) error {
		if original.RawText == "" || fieldValue(original, name) != "" || fieldValue(final, name) == "" {
			return nil
		}
		anchor, ok := pattern.LearnAnchor(name, original.RawText)
		if !ok {
			return nil
		}
		if err := p.store.UpdateVendorPattern(ctx, original.VendorName, name, anchor); err != nil {
			return fmt.Errorf("failed to learn %s pattern: %w", name, err)
		}
		learned(learnedMessage(name, anchor))
		return nil
	}

	if err := learnField(pattern.FieldServiceDate); err != nil {
		return nil, err
	}

	for i, finalItem := range final.LineItems {
		if i >= len(original.LineItems) {
			break
		}
		originalItem := original.LineItems[i]
		if finalItem.SKU == "" || finalItem.SKU == originalItem.SKU {
			continue
		}
		key := pattern.DescriptionContext(originalItem.Description)
		if err := p.store.AddCorrection(ctx, key, pattern.SKUMapping(finalItem.SKU)); err != nil {
			return nil, fmt.Errorf("failed to learn SKU mapping: %w", err)
		}
		learned("Mapped SKU: " + finalItem.SKU)
	}

	for _, name := range []string{pattern.FieldSkonto, pattern.FieldPONumber} {
		if err := learnField(name); err != nil {
			return nil, err
		}
	}

	if err := p.store.RecordInvoice(ctx, original); err != nil {
		return nil, fmt.Errorf("failed to record invoice: %w", err)
	}
	result.Audit(p.now(), model.StepLearn, "Memory persistence successful.")

	p.observer.ObserveLearn(result)

	slog.Info("Learned from feedback",
		"invoice_id", original.ID,
		"vendor", original.VendorName,
		"updates", len(result.MemoryUpdates))

	return result, nil
}

// learnedMessage is the memory update reported for a newly learned anchor.
func learnedMessage(field, anchor string) string {
	switch field {
	case pattern.FieldSkonto:
		return "Learned Skonto pattern"
	case pattern.FieldPONumber:
		return "Learned PO keyword: " + anchor
	default:
		return "Learned pattern: " + anchor
	}
}
