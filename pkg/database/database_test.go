package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"room-reservation/pkg/config"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		driver   string
		expected string
	}{
		{driver: "postgres", expected: "postgres"},
		{driver: "mysql", expected: "mysql"},
		{driver: "sqlite", expected: "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := Dialector(config.DBConfig{Driver: tt.driver, Host: "localhost", Port: "1", Name: "x"})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Name())
		})
	}

	_, err := Dialector(config.DBConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestOpenSQLite(t *testing.T) {
	cfg := config.DBConfig{
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "reservations.db"),
		Retries: 1,
	}

	db, err := Open(cfg, zap.NewNop(), false)
	require.NoError(t, err)
	assert.NoError(t, Ping(context.Background(), db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}
