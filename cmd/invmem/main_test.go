package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/invoice-memory/internal/model"
)

const (
	originalInvoice = `{
		"id": "INV-A-001", "vendorName": "Supplier GmbH", "date": "2024-01-15", "totalAmount": 2400, "currency": "EUR",
		"rawText": "Rechnungsnr: INV-A-001\nLeistungsdatum: 01.01.2024\nGesamt 2400",
		"lineItems": [{"description": "Widget", "sku": "WIDGET-001", "quantity": 100, "price": 24, "total": 2400}]
	}`
	finalInvoice = `{
		"id": "INV-A-001", "vendorName": "Supplier GmbH", "date": "2024-01-15", "totalAmount": 2400, "currency": "EUR",
		"serviceDate": "2024-01-01",
		"rawText": "Rechnungsnr: INV-A-001\nLeistungsdatum: 01.01.2024\nGesamt 2400",
		"lineItems": [{"description": "Widget", "sku": "WIDGET-001", "quantity": 100, "price": 24, "total": 2400}]
	}`
	nextInvoice = `{
		"id": "INV-A-002", "vendorName": "Supplier GmbH", "date": "2024-01-20", "totalAmount": 1200, "currency": "EUR",
		"rawText": "Rechnungsnr: INV-A-002\nLeistungsdatum: 2024-01-18\nGesamt 1200",
		"lineItems": [{"description": "Widget", "sku": "WIDGET-001", "quantity": 50, "price": 24, "total": 1200}]
	}`
)

// workspace writes a config file pointing at a fresh memory file plus the
// given invoices, and returns the config path and the invoice paths.
func workspace(t *testing.T, invoices map[string]string) (string, map[string]string) {
	t.Helper()
	dir := t.TempDir()

	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "storage:\n  backend: file\n  path: " + filepath.Join(dir, "memory.json") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	paths := make(map[string]string, len(invoices))
	for name, body := range invoices {
		path := filepath.Join(dir, "invoices", name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		paths[name] = path
	}
	return cfgPath, paths
}

func run(t *testing.T, cfgPath, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLearnThenProcess(t *testing.T) {
	cfgPath, files := workspace(t, map[string]string{
		"original.json": originalInvoice,
		"final.json":    finalInvoice,
		"next.json":     nextInvoice,
	})

	out, err := run(t, cfgPath, "", "learn", files["original.json"], files["final.json"], "--json")
	require.NoError(t, err)
	var learned model.ProcessingResult
	require.NoError(t, json.Unmarshal([]byte(out), &learned))
	assert.Equal(t, []string{"Learned pattern: Leistungsdatum"}, learned.MemoryUpdates)

	out, err = run(t, cfgPath, "", "process", files["next.json"], "--json")
	require.NoError(t, err)
	var results []model.ProcessingResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "2024-01-18", results[0].NormalizedInvoice.ServiceDate)

	// The original was recorded by learn, so processing it again is a duplicate.
	out, err = run(t, cfgPath, "", "process", files["original.json"], "--json")
	require.NoError(t, err)
	var again []model.ProcessingResult
	require.NoError(t, json.Unmarshal([]byte(out), &again))
	require.Len(t, again, 1)
	assert.True(t, again[0].NormalizedInvoice.IsDuplicate)
	assert.True(t, again[0].RequiresHumanReview)
}

func TestProcess_Dir(t *testing.T) {
	cfgPath, files := workspace(t, map[string]string{
		"a.json": originalInvoice,
		"b.json": nextInvoice,
	})

	out, err := run(t, cfgPath, "", "process", "--dir", filepath.Dir(files["a.json"]))
	require.NoError(t, err)
	assert.Contains(t, out, "INV-A-001")
	assert.Contains(t, out, "INV-A-002")
	assert.Contains(t, out, "2 processed")
}

func TestProcess_NoInput(t *testing.T) {
	cfgPath, _ := workspace(t, nil)

	_, err := run(t, cfgPath, "", "process")
	assert.ErrorContains(t, err, "no invoices given")
}

func TestMemoryYAML(t *testing.T) {
	cfgPath, files := workspace(t, map[string]string{
		"original.json": originalInvoice,
		"final.json":    finalInvoice,
	})
	_, err := run(t, cfgPath, "", "learn", files["original.json"], files["final.json"])
	require.NoError(t, err)

	out, err := run(t, cfgPath, "", "memory", "-o", "yaml")
	require.NoError(t, err)

	var snapshot model.MemorySnapshot
	require.NoError(t, yaml.Unmarshal([]byte(out), &snapshot))
	require.Contains(t, snapshot.Vendors, "Supplier GmbH")
	assert.Equal(t, "Leistungsdatum", snapshot.Vendors["Supplier GmbH"].Patterns["serviceDate"].Pattern)
	assert.Equal(t, []string{"INV-A-001"}, snapshot.ProcessedInvoices)

	_, err = run(t, cfgPath, "", "memory", "-o", "xml")
	assert.ErrorContains(t, err, "output must be json or yaml")
}

func TestVendorsAndCorrections(t *testing.T) {
	cfgPath, _ := workspace(t, nil)

	_, err := run(t, cfgPath, "", "vendors", "set-default", "Parts AG", "currency", "CHF")
	require.NoError(t, err)

	out, err := run(t, cfgPath, "", "vendors", "show", "Parts AG")
	require.NoError(t, err)
	assert.Contains(t, out, "CHF")

	_, err = run(t, cfgPath, "", "vendors", "show", "Nobody Ltd")
	assert.Error(t, err)

	_, err = run(t, cfgPath, "", "corrections", "resolve", "description=Unknown", "--success")
	assert.Error(t, err)

	_, err = run(t, cfgPath, "", "corrections", "resolve", "description=Unknown")
	assert.Error(t, err)
}

func TestReset(t *testing.T) {
	cfgPath, files := workspace(t, map[string]string{
		"original.json": originalInvoice,
		"final.json":    finalInvoice,
	})
	_, err := run(t, cfgPath, "", "learn", files["original.json"], files["final.json"])
	require.NoError(t, err)

	out, err := run(t, cfgPath, "n\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset canceled.")

	out, err = run(t, cfgPath, "y\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Memory cleared")

	out, err = run(t, cfgPath, "", "memory")
	require.NoError(t, err)
	assert.JSONEq(t, `{"vendors": {}, "corrections": [], "processedInvoices": [], "invoiceFingerprints": []}`, out)
}

func TestVersion(t *testing.T) {
	cfgPath, _ := workspace(t, nil)

	out, err := run(t, cfgPath, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "invmem dev\n", out)
}
