package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/invoice-memory/internal/common"
	"github.com/Veraticus/invoice-memory/internal/config"
	"github.com/Veraticus/invoice-memory/internal/model"
)

func sampleSnapshot() *model.MemorySnapshot {
	seen := time.Date(2024, time.February, 3, 10, 30, 0, 123456789, time.UTC)

	snapshot := model.NewMemorySnapshot()
	supplier := model.NewVendorMemory("Supplier GmbH")
	supplier.Patterns["serviceDate"] = &model.PatternEntry{Pattern: "Leistungsdatum", Confidence: 0.6, Frequency: 2, LastSeen: seen}
	supplier.Patterns["skonto"] = &model.PatternEntry{Pattern: "Skonto", Confidence: 0.5, Frequency: 1, LastSeen: seen}
	supplier.Defaults["currency"] = "EUR"
	snapshot.Vendors[supplier.VendorName] = supplier
	snapshot.Vendors["Parts AG"] = model.NewVendorMemory("Parts AG")

	snapshot.Corrections = []*model.CorrectionMemory{
		{Context: "description=Transport fee", Correction: "map_sku_FREIGHT", Confidence: 0.55, SuccessCount: 2},
		{Context: "description=Bolts", Correction: "map_sku_B-1", Confidence: 0.3, SuccessCount: 1, FailCount: 1},
	}
	snapshot.ProcessedInvoices = []string{"INV-2", "INV-1"}
	snapshot.InvoiceFingerprints = []string{"Supplier GmbH|2024-01-15|2400", "Parts AG|2024-01-16|99.99"}
	return snapshot
}

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()
	ctx := context.Background()

	file, err := Open(ctx, config.BackendFile, filepath.Join(t.TempDir(), "nested", "memory.json"))
	require.NoError(t, err)

	sqlite, err := Open(ctx, config.BackendSQLite, ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = file.Close()
		_ = sqlite.Close()
	})
	return map[string]Backend{"file": file, "sqlite": sqlite}
}

func TestBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleSnapshot()
			require.NoError(t, backend.Save(ctx, want))

			got, err := backend.Load(ctx)
			require.NoError(t, err)

			require.Len(t, got.Vendors, 2)
			supplier := got.Vendors["Supplier GmbH"]
			require.NotNil(t, supplier)
			assert.Equal(t, "Leistungsdatum", supplier.Patterns["serviceDate"].Pattern)
			assert.InDelta(t, 0.6, supplier.Patterns["serviceDate"].Confidence, 1e-9)
			assert.Equal(t, 2, supplier.Patterns["serviceDate"].Frequency)
			assert.True(t, want.Vendors["Supplier GmbH"].Patterns["serviceDate"].LastSeen.Equal(supplier.Patterns["serviceDate"].LastSeen))
			assert.Equal(t, "EUR", supplier.Defaults["currency"])
			assert.Empty(t, got.Vendors["Parts AG"].Patterns)

			assert.Equal(t, want.Corrections, got.Corrections)
			assert.Equal(t, want.ProcessedInvoices, got.ProcessedInvoices)
			assert.Equal(t, want.InvoiceFingerprints, got.InvoiceFingerprints)
		})
	}
}

func TestBackend_SaveReplacesEverything(t *testing.T) {
	ctx := context.Background()

	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Save(ctx, sampleSnapshot()))
			require.NoError(t, backend.Save(ctx, model.NewMemorySnapshot()))

			got, err := backend.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, got.Vendors)
			assert.Empty(t, got.Corrections)
			assert.Empty(t, got.ProcessedInvoices)
			assert.Empty(t, got.InvoiceFingerprints)
		})
	}
}

func TestBackend_RejectsInvalidSnapshots(t *testing.T) {
	ctx := context.Background()

	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, backend.Save(ctx, nil), ErrNilSnapshot)

			bad := sampleSnapshot()
			bad.Vendors["Supplier GmbH"].Patterns["skonto"].Confidence = 1.5
			assert.ErrorIs(t, backend.Save(ctx, bad), ErrInvalidPattern)

			//nolint:staticcheck // nil context is the point of the test
			_, err := backend.Load(nil)
			assert.ErrorIs(t, err, ErrNilContext)
		})
	}
}

func TestFileBackend_MissingFileIsEmpty(t *testing.T) {
	backend, err := NewFileBackend(filepath.Join(t.TempDir(), "memory.json"))
	require.NoError(t, err)

	got, err := backend.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got.Vendors)
	assert.NotNil(t, got.Corrections)
}

func TestFileBackend_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"vendors": [`), 0600))

	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	_, err = backend.Load(context.Background())
	assert.ErrorIs(t, err, common.ErrCorruptState)
}

func TestFileBackend_WritesSingleDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "memory.json")
	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	require.NoError(t, backend.Save(context.Background(), sampleSnapshot()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{`"vendors"`, `"corrections"`, `"processedInvoices"`, `"invoiceFingerprints"`} {
		assert.Contains(t, string(data), key)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), "postgres", "x")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNewBackends_EmptyPath(t *testing.T) {
	_, err := NewFileBackend("  ")
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = NewSQLiteBackend("")
	assert.ErrorIs(t, err, ErrEmptyString)
}
