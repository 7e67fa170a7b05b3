package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/invoice-memory/internal/config"
	"github.com/Veraticus/invoice-memory/internal/dialect"
	"github.com/Veraticus/invoice-memory/internal/engine"
	"github.com/Veraticus/invoice-memory/internal/memory"
	"github.com/Veraticus/invoice-memory/internal/model"
	"github.com/Veraticus/invoice-memory/internal/storage"
)

// app bundles everything a command needs to talk to the pattern store.
type app struct {
	store    *memory.Store
	pipeline *engine.Pipeline
	config   config.Config
}

// openApp loads the configuration, opens the storage backend and the pattern
// store, and builds the pipeline. The returned cleanup closes the store.
func openApp(ctx context.Context, opts ...engine.Option) (*app, func(), error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	backend, err := storage.Open(ctx, cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	store, err := memory.Open(ctx, backend)
	if err != nil {
		_ = backend.Close()
		return nil, nil, err
	}

	opts = append([]engine.Option{engine.WithConfig(engine.Config{
		CriticalVendors: cfg.Policy.CriticalVendors,
		ReviewThreshold: cfg.Policy.ReviewThreshold,
	})}, opts...)

	a := &app{
		store:    store,
		pipeline: engine.New(store, opts...),
		config:   cfg,
	}
	cleanup := func() {
		_ = store.Close()
	}
	return a, cleanup, nil
}

// readInvoice decodes an invoice file in either accepted shape.
func readInvoice(path string) (model.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	invoice, err := dialect.Decode(data)
	if err != nil {
		return model.Invoice{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return invoice, nil
}
