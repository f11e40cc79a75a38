// Package config loads server configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverSupabase = "supabase"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	NATS   NATSConfig   `yaml:"nats"`
	Auth   AuthConfig   `yaml:"auth"`
	Voting VotingConfig `yaml:"voting"`
	Ideas  IdeasConfig  `yaml:"ideas"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// AllowedOrigins feeds the CORS middleware. Empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type StoreConfig struct {
	// Driver is one of memory, postgres, sqlite or supabase.
	Driver      string        `yaml:"driver"`
	DatabaseURL string        `yaml:"database_url"`
	SQLitePath  string        `yaml:"sqlite_path"`
	SupabaseURL string        `yaml:"supabase_url"`
	SupabaseKey string        `yaml:"supabase_key"`
	Timeout     time.Duration `yaml:"timeout"`
}

type NATSConfig struct {
	// URL of the NATS server. Empty keeps change events in process.
	URL string `yaml:"url"`
}

type AuthConfig struct {
	JWTSecret string   `yaml:"jwt_secret"`
	Admins    []string `yaml:"admins"`
}

type VotingConfig struct {
	VotesPerQuarter int `yaml:"votes_per_quarter"`
	// Location names the IANA zone quarters are computed in.
	Location string `yaml:"location"`
}

type IdeasConfig struct {
	AutoVote bool `yaml:"auto_vote"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
		},
		Store: StoreConfig{
			Driver:     DriverPostgres,
			SQLitePath: "data/ideabox.db",
			Timeout:    5 * time.Second,
		},
		Voting: VotingConfig{
			VotesPerQuarter: 5,
			Location:        "UTC",
		},
		Ideas: IdeasConfig{
			AutoVote: true,
		},
	}
}

// Load reads path when it is not empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides file values with the variables the deployment sets.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if driver := getenv("STORE_DRIVER"); driver != "" {
		c.Store.Driver = driver
	}
	if dsn := getenv("DATABASE_URL"); dsn != "" {
		c.Store.DatabaseURL = dsn
	} else if c.Store.DatabaseURL == "" && getenv("POSTGRES_HOST") != "" {
		c.Store.DatabaseURL = postgresURL(getenv)
	}
	if path := getenv("SQLITE_PATH"); path != "" {
		c.Store.SQLitePath = path
	}
	if u := getenv("SUPABASE_URL"); u != "" {
		c.Store.SupabaseURL = u
	}
	if key := getenv("SUPABASE_SERVICE_KEY"); key != "" {
		c.Store.SupabaseKey = key
	}
	if u := getenv("NATS_URL"); u != "" {
		c.NATS.URL = u
	}
	if secret := getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if admins := getenv("ADMIN_USER_IDS"); admins != "" {
		c.Auth.Admins = strings.Split(admins, ",")
	}
	if n, err := strconv.Atoi(getenv("VOTES_PER_QUARTER")); err == nil {
		c.Voting.VotesPerQuarter = n
	}
}

func postgresURL(getenv func(string) string) string {
	port := getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getenv("POSTGRES_USER"), getenv("POSTGRES_PASSWORD")),
		Host:     getenv("POSTGRES_HOST") + ":" + port,
		Path:     "/" + getenv("POSTGRES_DB"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("store.database_url (or DATABASE_URL / POSTGRES_*) is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	case DriverSupabase:
		if c.Store.SupabaseURL == "" || c.Store.SupabaseKey == "" {
			return fmt.Errorf("store.supabase_url and store.supabase_key are required for the supabase driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (or JWT_SECRET) is required")
	}
	if _, err := c.AdminIDs(); err != nil {
		return err
	}
	if c.Voting.VotesPerQuarter <= 0 {
		return fmt.Errorf("voting.votes_per_quarter must be positive")
	}
	if _, err := c.TimeLocation(); err != nil {
		return err
	}
	return nil
}

func (c *Config) AdminIDs() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(c.Auth.Admins))
	for _, raw := range c.Auth.Admins {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("auth.admins: invalid user id %q: %w", raw, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) TimeLocation() (*time.Location, error) {
	if c.Voting.Location == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Voting.Location)
	if err != nil {
		return nil, fmt.Errorf("voting.location: %w", err)
	}
	return loc, nil
}
