package sqldb

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewClient_SQLite(t *testing.T) {
	// The parent directory does not exist yet; NewClient creates it.
	path := filepath.Join(t.TempDir(), "nested", "queue.db")

	client, err := NewClient(&Config{
		Driver: DriverSQLite,
		Path:   path,
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	assert.Equal(t, DriverSQLite, client.Driver())
	assert.NotNil(t, client.DB())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "sqlite without path",
			config: &Config{Driver: DriverSQLite},
		},
		{
			name:   "postgres without dsn",
			config: &Config{Driver: DriverPostgres},
		},
		{
			name:   "unsupported driver",
			config: &Config{Driver: "oracle", Path: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.config, discardLogger())
			assert.Error(t, err)
		})
	}
}

func TestClient_Close(t *testing.T) {
	client, err := NewClient(&Config{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "queue.db"),
	}, discardLogger())
	require.NoError(t, err)

	assert.NoError(t, client.Close())
	assert.Error(t, client.Ping(context.Background()))
}
