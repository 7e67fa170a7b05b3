package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/invoice-memory/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, ".local/share/invmem/memory.json"), cfg.Storage.Path)
	assert.Equal(t, "localhost:3001", cfg.Server.Addr())
	assert.InDelta(t, 0.8, cfg.Policy.ReviewThreshold, 1e-9)
	assert.Equal(t, []string{"Supplier GmbH"}, cfg.Policy.CriticalVendors)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoad_SQLiteDefaultPath(t *testing.T) {
	v := viper.New()
	v.Set("storage.backend", BackendSQLite)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "memory.db", filepath.Base(cfg.Storage.Path))
}

func TestLoad_InMemoryPathUntouched(t *testing.T) {
	v := viper.New()
	v.Set("storage.backend", BackendSQLite)
	v.Set("storage.path", ":memory:")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Storage.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "unknown backend", key: "storage.backend", value: "postgres"},
		{name: "zero threshold", key: "policy.review_threshold", value: 0},
		{name: "threshold above one", key: "policy.review_threshold", value: 1.5},
		{name: "port out of range", key: "server.port", value: 70000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("INVMEM_TEST_DIR", "/srv/invmem")

	assert.Equal(t, filepath.Join(home, "memory.json"), ExpandPath("~/memory.json"))
	assert.Equal(t, "/srv/invmem/memory.db", ExpandPath("$INVMEM_TEST_DIR/memory.db"))
	assert.Equal(t, "/abs/path", ExpandPath("/abs/path"))
}
