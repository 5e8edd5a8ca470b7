// Package testutil provisions throwaway PostgreSQL schemas for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/themizzi/shopcheck/internal/config"
	"github.com/themizzi/shopcheck/internal/database"
)

// TestDatabase represents an isolated test database
type TestDatabase struct {
	DB         *sql.DB
	SchemaName string
	masterDB   *sql.DB
}

// SetupTestDatabase creates an isolated schema holding the audit tables.
// Teardown is registered with t.Cleanup.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()

	connConfig, err := config.LoadPostgresConfig(func(key string) string {
		switch key {
		case "POSTGRES_USER":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_PASSWORD":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_DB":
			return getEnvOrDefault(key, "postgres")
		case "POSTGRES_HOSTNAME":
			return getEnvOrDefault(key, "localhost")
		default:
			return os.Getenv(key)
		}
	})
	if err != nil {
		t.Fatalf("Failed to load postgres config: %v", err)
	}

	ctx := context.Background()
	masterDB, err := database.Connect(ctx, connConfig)
	if err != nil {
		t.Fatalf("Failed to connect to master database: %v", err)
	}

	// Generate unique schema name for this test
	schemaName := fmt.Sprintf("test_schema_%d_%d", time.Now().UnixNano(), rand.Intn(10000))
	if _, err := masterDB.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA %s", schemaName)); err != nil {
		masterDB.Close()
		t.Fatalf("Failed to create test schema: %v", err)
	}

	testDB, err := sql.Open("postgres", fmt.Sprintf("%s search_path=%s", connConfig.ConnectionString(), schemaName))
	if err == nil {
		err = testDB.PingContext(ctx)
	}
	if err != nil {
		masterDB.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", schemaName))
		masterDB.Close()
		t.Fatalf("Failed to connect to test schema: %v", err)
	}

	td := &TestDatabase{DB: testDB, SchemaName: schemaName, masterDB: masterDB}
	t.Cleanup(func() { td.Teardown(t) })

	if err := database.RunMigrations(ctx, testDB); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return td
}

// Teardown drops the schema and closes both connections. It is safe to call twice.
func (td *TestDatabase) Teardown(t *testing.T) {
	t.Helper()

	if td.DB != nil {
		td.DB.Close()
		td.DB = nil
	}
	if td.masterDB != nil {
		if _, err := td.masterDB.Exec(fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE", td.SchemaName)); err != nil {
			t.Logf("Warning: Failed to drop test schema %s: %v", td.SchemaName, err)
		}
		td.masterDB.Close()
		td.masterDB = nil
	}
}

// getEnvOrDefault returns the environment variable value or a default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
