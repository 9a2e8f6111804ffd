package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ledgerEnv = []string{
	"LEDGER_STORE", "LEDGER_SQLITE_PATH", "LEDGER_DATABASE_URL", "LEDGER_SCALE",
	"LEDGER_UNIQUE_LEDGER_NAMES", "LEDGER_LOCK_TIMEOUT", "LEDGER_KAFKA_BROKERS",
	"LEDGER_KAFKA_TOPIC", "LEDGER_CURRENCY", "LEDGER_LOG_LEVEL", "LEDGER_LOG_FORMAT",
}

// clearEnv blanks every LEDGER_ variable for the duration of the test.
// godotenv never overrides a variable that is already set, so blank values
// would shadow the .env file; tests that load one unset them instead.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range ledgerEnv {
		t.Setenv(key, "")
	}
}

// chdir changes the working directory for the test and restores it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func unsetEnv(t *testing.T) {
	t.Helper()
	clearEnv(t)
	for _, key := range ledgerEnv {
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreSQLite, cfg.Store.Backend)
	assert.Equal(t, "./data/ledger.db", cfg.Store.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.Store.LockTimeout)
	assert.Equal(t, int32(2), cfg.Ledger.Scale)
	assert.False(t, cfg.Ledger.UniqueLedgerNames)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "USD", cfg.Display.Currency)
	assert.Equal(t, "info", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEDGER_STORE", "Postgres")
	t.Setenv("LEDGER_DATABASE_URL", "postgres://ledger@localhost/ledger?sslmode=disable")
	t.Setenv("LEDGER_SCALE", "4")
	t.Setenv("LEDGER_UNIQUE_LEDGER_NAMES", "true")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "750ms")
	t.Setenv("LEDGER_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("LEDGER_KAFKA_TOPIC", "acme.")
	t.Setenv("LEDGER_CURRENCY", "eur")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.Equal(t, 750*time.Millisecond, cfg.Store.LockTimeout)
	assert.Equal(t, int32(4), cfg.Ledger.Scale)
	assert.True(t, cfg.Ledger.UniqueLedgerNames)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "acme.", cfg.Kafka.TopicPrefix)
	assert.Equal(t, "EUR", cfg.Display.Currency)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EnvFile(t *testing.T) {
	unsetEnv(t)
	path := filepath.Join(t.TempDir(), "ledger.env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_STORE=memory\nLEDGER_SCALE=0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, int32(0), cfg.Ledger.Scale)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"LEDGER_SCALE", "two"},
		{"LEDGER_SCALE", "4294967298"},
		{"LEDGER_UNIQUE_LEDGER_NAMES", "sometimes"},
		{"LEDGER_LOCK_TIMEOUT", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:  StoreConfig{Backend: StoreSQLite, SQLitePath: "ledger.db", LockTimeout: time.Second},
			Ledger: LedgerConfig{Scale: 2},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"memory", func(c *Config) { c.Store.Backend = StoreMemory; c.Store.SQLitePath = "" }, ""},
		{"unknown store", func(c *Config) { c.Store.Backend = "mongo" }, "unknown LEDGER_STORE"},
		{"sqlite without path", func(c *Config) { c.Store.SQLitePath = "" }, "LEDGER_SQLITE_PATH"},
		{"postgres without url", func(c *Config) { c.Store.Backend = StorePostgres }, "LEDGER_DATABASE_URL"},
		{"negative scale", func(c *Config) { c.Ledger.Scale = -1 }, "LEDGER_SCALE"},
		{"zero lock timeout", func(c *Config) { c.Store.LockTimeout = 0 }, "LEDGER_LOCK_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
