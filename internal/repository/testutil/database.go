package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/soundvault/earnings-backend/internal/db"
)

// SetupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
// В режиме -short тест пропускается.
func SetupTestDatabase(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: requires docker")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("earnings_test"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		postgres.BasicWaitStrategies(),
		// Equivalent of testcontainers.WithLabels (v0.35+), unavailable on the go1.21-compatible v0.33.
		testcontainers.CustomizeRequestOption(func(req *testcontainers.GenericContainerRequest) error {
			if req.Labels == nil {
				req.Labels = make(map[string]string)
			}
			req.Labels["test-name"] = t.Name()
			return nil
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate test container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(dsn))

	conn, err := db.NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// CreateProfile добавляет профиль с указанным балансом.
func CreateProfile(t *testing.T, conn *sqlx.DB, balance float64, stripeAccountID *string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := conn.Exec(`
		INSERT INTO user_profiles (id, email, available_balance, stripe_account_id)
		VALUES ($1, $2, $3, $4)
	`, id, id.String()+"@artists.test", balance, stripeAccountID)
	require.NoError(t, err)
	return id
}
