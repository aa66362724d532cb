//go:build integration

// Package integration runs the lifecycle engine against a real PostgreSQL
// started with testcontainers and migrated with the embedded schema.
package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/fixflow/backend/internal/infrastructure/migration"
	"github.com/fixflow/backend/internal/infrastructure/persistence"
	"github.com/fixflow/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// TestDB is a migrated PostgreSQL database private to one test
type TestDB struct {
	*persistence.Database
	Config config.DatabaseConfig
}

// NewTestDB starts a PostgreSQL container, applies every migration and
// connects with the same settings the server uses.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fixflow_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "postgres",
		Password:        "postgres",
		DBName:          "fixflow_test",
		SSLMode:         "disable",
		MaxOpenConns:    16,
		MaxIdleConns:    4,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 5,
	}

	m := NewMigrator(t, cfg)
	require.NoError(t, m.Up(ctx), "Failed to run migrations")

	db, err := persistence.NewDatabase(&cfg, persistence.Options{})
	require.NoError(t, err, "Failed to connect to database")
	t.Cleanup(func() { _ = db.Close() })

	return &TestDB{Database: db, Config: cfg}
}

// NewMigrator opens a migrator over its own connection pool
func NewMigrator(t *testing.T, cfg config.DatabaseConfig) *migration.Migrator {
	t.Helper()
	sqlDB, err := sql.Open("postgres", cfg.DSN())
	require.NoError(t, err)
	m, err := migration.New(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err, "Failed to create migrator")
	t.Cleanup(func() { _ = m.Close() })
	return m
}
