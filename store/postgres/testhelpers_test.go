//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

/* Test Helpers for PostgreSQL Integration Tests
 * A real postgres:16-alpine container per test, schema applied through the embedded migrations
 */

const (
	defaultDatabase = "crm"
	defaultUser     = "crm"
	defaultPassword = "crm"
)

// PostgresContainer holds the container and an open pool
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	ConnStr   string
}

// SetupPostgresContainer starts PostgreSQL and migrates it up
func SetupPostgresContainer(t *testing.T, ctx context.Context) (*PostgresContainer, func()) {
	t.Helper()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(defaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, MigrateUp(connStr))

	db, err := Open(ctx, connStr, DefaultPoolConfig())
	require.NoError(t, err)

	container := &PostgresContainer{
		Container: pgContainer,
		DB:        db,
		ConnStr:   connStr,
	}

	cleanup := func() {
		_ = db.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return container, cleanup
}

// InsertConversation seeds the conversation joined by ListFailed
func InsertConversation(t *testing.T, ctx context.Context, db *sql.DB, id, tenantID, name, phone string) {
	t.Helper()

	_, err := db.ExecContext(ctx,
		"INSERT INTO conversations (id, tenant_id, contact_name, contact_phone) VALUES ($1, $2, $3, $4)",
		id, tenantID, name, phone)
	require.NoError(t, err)
}

// AssertDeliveryLogCount checks how many attempt rows a webhook has
func AssertDeliveryLogCount(t *testing.T, ctx context.Context, db *sql.DB, webhookID string, expected int) {
	t.Helper()

	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM webhook_delivery_logs WHERE webhook_id = $1", webhookID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}
