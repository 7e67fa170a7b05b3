// Package memory implements the pattern store: learned vendor extraction
// anchors, context to correction mappings, and the duplicate indexes.
//
// The store keeps the full knowledge base in memory and writes all of it
// through its storage.Backend after every mutation. A mutation is applied to a
// copy first and only becomes visible once the backend accepted it, so a
// failed write leaves the previous state in place.
package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Veraticus/invoice-memory/internal/common"
	"github.com/Veraticus/invoice-memory/internal/model"
	"github.com/Veraticus/invoice-memory/internal/storage"
)

// Confidence policy.
const (
	InitialConfidence       = 0.5
	MaxConfidence           = 0.99
	MinDecayedConfidence    = 0.1
	PatternReinforcement    = 0.1
	CorrectionReinforcement = 0.05
	ResolutionPenalty       = 0.2
	DecayPerDay             = 0.01
)

// ErrNilBackend is returned by Open without a backend.
var ErrNilBackend = errors.New("memory: backend is required")

// Store is the process-wide pattern store. All methods are safe for
// concurrent use; each call is one load-mutate-persist unit.
type Store struct {
	backend storage.Backend
	state   *model.MemorySnapshot
	now     func() time.Time
	mu      sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for lastSeen and decay.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open loads the store from backend. State that cannot be read is logged and
// replaced by an empty store rather than failing startup.
func Open(ctx context.Context, backend storage.Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}

	s := &Store{
		backend: backend,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	state, err := backend.Load(ctx)
	if err != nil {
		slog.Warn("Failed to load memory, starting empty",
			"location", backend.Location(),
			"error", err)
		state = model.NewMemorySnapshot()
	}
	state.Normalize()
	clampConfidences(state, backend.Location())
	s.state = state

	slog.Debug("Memory loaded",
		"location", backend.Location(),
		"vendors", len(state.Vendors),
		"corrections", len(state.Corrections),
		"processed_invoices", len(state.ProcessedInvoices))

	return s, nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// mutate applies fn to a copy of the state, persists it, and swaps it in.
func (s *Store) mutate(ctx context.Context, fn func(state *model.MemorySnapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.backend.Save(ctx, next); err != nil {
		return fmt.Errorf("failed to persist memory: %w", err)
	}
	s.state = next
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *model.MemorySnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// VendorMemory returns a copy of what is known about vendor.
func (s *Store) VendorMemory(vendor string) (*model.VendorMemory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vm, ok := s.state.Vendors[vendor]
	if !ok {
		return nil, false
	}
	return vm.Clone(), true
}

// UpdateVendorPattern records pattern as the anchor for vendor's field.
// The same pattern is reinforced; a different one replaces the entry.
func (s *Store) UpdateVendorPattern(ctx context.Context, vendor, field, pattern string) error {
	now := s.now()
	return s.mutate(ctx, func(state *model.MemorySnapshot) error {
		vm := vendorEntry(state, vendor)

		entry, ok := vm.Patterns[field]
		if ok && entry.Pattern == pattern {
			entry.Frequency++
			entry.Confidence = min(MaxConfidence, entry.Confidence+PatternReinforcement)
			entry.LastSeen = now
			return nil
		}

		vm.Patterns[field] = &model.PatternEntry{
			Pattern:    pattern,
			Confidence: InitialConfidence,
			Frequency:  1,
			LastSeen:   now,
		}
		return nil
	})
}

// UpdateVendorDefault stores a fallback value for vendor's field.
func (s *Store) UpdateVendorDefault(ctx context.Context, vendor, field, value string) error {
	return s.mutate(ctx, func(state *model.MemorySnapshot) error {
		vendorEntry(state, vendor).Defaults[field] = value
		return nil
	})
}

// ApplyDecay lowers the confidence of every pattern not seen for more than a
// day by DecayPerDay per elapsed day, never below MinDecayedConfidence.
func (s *Store) ApplyDecay(ctx context.Context) error {
	now := s.now()
	return s.mutate(ctx, func(state *model.MemorySnapshot) error {
		for _, vm := range state.Vendors {
			for _, entry := range vm.Patterns {
				days := now.Sub(entry.LastSeen).Hours() / 24
				if days > 1 {
					entry.Confidence = max(MinDecayedConfidence, entry.Confidence-DecayPerDay*days)
				}
			}
		}
		return nil
	})
}

// FindCorrection returns a copy of the mapping stored under key.
func (s *Store) FindCorrection(key string) (*model.CorrectionMemory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c := findCorrection(s.state, key); c != nil {
		cc := *c
		return &cc, true
	}
	return nil, false
}

// AddCorrection records correction for the context key. Repeating the same token
// reinforces it; a different token replaces the mapping outright.
func (s *Store) AddCorrection(ctx context.Context, key, correction string) error {
	return s.mutate(ctx, func(state *model.MemorySnapshot) error {
		c := findCorrection(state, key)
		switch {
		case c == nil:
			state.Corrections = append(state.Corrections, &model.CorrectionMemory{
				Context:      key,
				Correction:   correction,
				Confidence:   InitialConfidence,
				SuccessCount: 1,
			})
		case c.Correction == correction:
			c.SuccessCount++
			c.Confidence = min(MaxConfidence, c.Confidence+CorrectionReinforcement)
		default:
			*c = model.CorrectionMemory{
				Context:      key,
				Correction:   correction,
				Confidence:   InitialConfidence,
				SuccessCount: 1,
			}
		}
		return nil
	})
}

// RecordResolution feeds back whether applying the mapping stored under key
// turned out right. Returns common.ErrNotFound for an unknown key.
func (s *Store) RecordResolution(ctx context.Context, key string, success bool) error {
	return s.mutate(ctx, func(state *model.MemorySnapshot) error {
		c := findCorrection(state, key)
		if c == nil {
			return fmt.Errorf("correction for %q: %w", key, common.ErrNotFound)
		}
		if success {
			c.SuccessCount++
			c.Confidence = min(MaxConfidence, c.Confidence+CorrectionReinforcement)
		} else {
			c.FailCount++
			c.Confidence = max(0, c.Confidence-ResolutionPenalty)
		}
		return nil
	})
}

// IsDuplicateByID reports whether an invoice with id completed learning before.
func (s *Store) IsDuplicateByID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.state.ProcessedInvoices, id)
}

// IsDuplicate checks the invoice ID first and then its vendor|date|amount fingerprint.
func (s *Store) IsDuplicate(invoice model.Invoice) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.state.ProcessedInvoices, invoice.ID) ||
		slices.Contains(s.state.InvoiceFingerprints, invoice.Fingerprint())
}

// RecordInvoice adds the invoice ID and fingerprint to the duplicate indexes.
func (s *Store) RecordInvoice(ctx context.Context, invoice model.Invoice) error {
	return s.mutate(ctx, func(state *model.MemorySnapshot) error {
		if !slices.Contains(state.ProcessedInvoices, invoice.ID) {
			state.ProcessedInvoices = append(state.ProcessedInvoices, invoice.ID)
		}
		fingerprint := invoice.Fingerprint()
		if !slices.Contains(state.InvoiceFingerprints, fingerprint) {
			state.InvoiceFingerprints = append(state.InvoiceFingerprints, fingerprint)
		}
		return nil
	})
}

// Clear empties all four collections and persists the empty store.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(state *model.MemorySnapshot) error {
		*state = *model.NewMemorySnapshot()
		return nil
	})
}

// clampConfidences pulls hand-edited or corrupted confidences back into
// [0, MaxConfidence] so the loaded state can be persisted again.
func clampConfidences(state *model.MemorySnapshot, location string) {
	clamp := func(c float64) float64 { return min(MaxConfidence, max(0, c)) }

	for name, vm := range state.Vendors {
		for field, entry := range vm.Patterns {
			if c := clamp(entry.Confidence); c != entry.Confidence {
				slog.Warn("Clamped out of range pattern confidence",
					"location", location,
					"vendor", name,
					"field", field,
					"confidence", entry.Confidence)
				entry.Confidence = c
			}
		}
	}
	for _, c := range state.Corrections {
		if clamped := clamp(c.Confidence); clamped != c.Confidence {
			slog.Warn("Clamped out of range correction confidence",
				"location", location,
				"context", c.Context,
				"confidence", c.Confidence)
			c.Confidence = clamped
		}
	}
}

func vendorEntry(state *model.MemorySnapshot, vendor string) *model.VendorMemory {
	vm, ok := state.Vendors[vendor]
	if !ok {
		vm = model.NewVendorMemory(vendor)
		state.Vendors[vendor] = vm
	}
	return vm
}

func findCorrection(state *model.MemorySnapshot, key string) *model.CorrectionMemory {
	for _, c := range state.Corrections {
		if c.Context == key {
			return c
		}
	}
	return nil
}
