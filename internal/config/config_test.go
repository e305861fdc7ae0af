package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/earnings?sslmode=disable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, LedgerSourceDatabase, cfg.LedgerSource)
	assert.Equal(t, "usd", cfg.Providers.PayoutCurrency)
	assert.Equal(t, 15*time.Second, cfg.Providers.Timeout)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEqual(t, [32]byte{}, cfg.AccountDetailsKey)
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SUPABASE_JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsUnknownLedgerSource(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("ROYALTY_LEDGER_SOURCE", "spreadsheet")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseKey(t *testing.T) {
	_, err := parseKey("zz")
	assert.Error(t, err)

	_, err = parseKey(strings.Repeat("ab", 16))
	assert.Error(t, err)

	key, err := parseKey(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), key[31])
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "earn")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "earnings")

	assert.Equal(t, "postgres://earn:p%40ss@db:5432/earnings?sslmode=disable", getDatabaseURL())
}
