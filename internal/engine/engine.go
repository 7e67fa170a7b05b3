// Package engine implements the correction pipeline: recall what is known
// about an invoice's vendor, apply learned patterns and built-in rules, decide
// whether a human has to look at the result, and learn from approved finals.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/invoice-memory/internal/memory"
	"github.com/Veraticus/invoice-memory/internal/model"
	"github.com/Veraticus/invoice-memory/internal/pattern"
)

// Config holds the decide-phase policy.
type Config struct {
	// CriticalVendors lose confidence when no service date could be found.
	CriticalVendors []string
	// ReviewThreshold flags results scoring below it for human review.
	ReviewThreshold float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CriticalVendors: []string{"Supplier GmbH"},
		ReviewThreshold: 0.8,
	}
}

// Observer is told about every finished invocation.
type Observer interface {
	ObserveProcess(result *model.ProcessingResult)
	ObserveLearn(result *model.ProcessingResult)
}

type nopObserver struct{}

func (nopObserver) ObserveProcess(*model.ProcessingResult) {}
func (nopObserver) ObserveLearn(*model.ProcessingResult)   {}

// Pipeline runs Process and Learn against one pattern store. Invocations are
// serialized so each one sees and leaves a consistent store.
type Pipeline struct {
	store    *memory.Store
	matcher  *pattern.Matcher
	observer Observer
	now      func() time.Time
	config   Config
	mu       sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig replaces the default policy.
func WithConfig(config Config) Option {
	return func(p *Pipeline) {
		p.config = config
	}
}

// WithObserver registers an observer, for example metrics.
func WithObserver(observer Observer) Option {
	return func(p *Pipeline) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// WithClock overrides the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a pipeline over store.
func New(store *memory.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		matcher:  pattern.NewMatcher(),
		observer: nopObserver{},
		now:      time.Now,
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the pattern store the pipeline works on.
func (p *Pipeline) Store() *memory.Store {
	return p.store
}

// Reset clears the pattern store between invocations.
func (p *Pipeline) Reset(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.store.Clear(ctx); err != nil {
		return err
	}
	slog.Info("Memory cleared")
	return nil
}

// isCritical reports whether vendor is on the critical list.
func (p *Pipeline) isCritical(vendor string) bool {
	for _, v := range p.config.CriticalVendors {
		if v == vendor {
			return true
		}
	}
	return false
}
