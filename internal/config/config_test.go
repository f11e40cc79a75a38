package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 5*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 5, cfg.Voting.VotesPerQuarter)
	assert.True(t, cfg.Ideas.AutoVote)

	assert.EqualError(t, cfg.Validate(), "store.database_url (or DATABASE_URL / POSTGRES_*) is required for the postgres driver")
}

func TestLoadFromFile(t *testing.T) {
	admin := uuid.New()
	path := filepath.Join(t.TempDir(), "ideabox.yaml")
	content := `
server:
  addr: ":9090"
store:
  driver: sqlite
  sqlite_path: /tmp/ideabox.db
  timeout: 2s
auth:
  jwt_secret: secret
  admins:
    - ` + admin.String() + `
voting:
  votes_per_quarter: 3
  location: Europe/Berlin
ideas:
  auto_vote: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, 2*time.Second, cfg.Store.Timeout)
	assert.Equal(t, 3, cfg.Voting.VotesPerQuarter)
	assert.False(t, cfg.Ideas.AutoVote)

	ids, err := cfg.AdminIDs()
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{admin}, ids)

	loc, err := cfg.TimeLocation()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o644))
	_, err = LoadFromFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv(envMap(map[string]string{
		"PORT":              "3000",
		"POSTGRES_HOST":     "db",
		"POSTGRES_USER":     "ideabox",
		"POSTGRES_PASSWORD": "p@ss",
		"POSTGRES_DB":       "ideas",
		"NATS_URL":          "nats://nats:4222",
		"JWT_SECRET":        "secret",
		"VOTES_PER_QUARTER": "7",
	}))

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "postgres://ideabox:p%40ss@db:5432/ideas?sslmode=disable", cfg.Store.DatabaseURL)
	assert.Equal(t, "nats://nats:4222", cfg.NATS.URL)
	assert.Equal(t, 7, cfg.Voting.VotesPerQuarter)
	assert.NoError(t, cfg.Validate())

	cfg.ApplyEnv(envMap(map[string]string{"DATABASE_URL": "postgres://other/db"}))
	assert.Equal(t, "postgres://other/db", cfg.Store.DatabaseURL)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Store.Driver = DriverMemory
		cfg.Auth.JWTSecret = "secret"
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }, `unknown store.driver "mongo"`},
		{"supabase without key", func(c *Config) { c.Store.Driver = DriverSupabase; c.Store.SupabaseURL = "x.supabase.co" }, "store.supabase_url and store.supabase_key are required for the supabase driver"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret (or JWT_SECRET) is required"},
		{"bad admin", func(c *Config) { c.Auth.Admins = []string{"not-a-uuid"} }, "auth.admins: invalid user id"},
		{"zero quota", func(c *Config) { c.Voting.VotesPerQuarter = 0 }, "voting.votes_per_quarter must be positive"},
		{"bad location", func(c *Config) { c.Voting.Location = "Mars/Olympus" }, "voting.location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
