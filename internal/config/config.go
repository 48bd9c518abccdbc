package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	HTTPAddr          string        // FLASH_HTTP_ADDR (default ":3000")
	GRPCAddr          string        // FLASH_GRPC_ADDR (optional, empty = no gRPC listener)
	HeartbeatInterval time.Duration // FLASH_HEARTBEAT_INTERVAL (default 30s)
	PublicURL         string        // FLASH_PUBLIC_URL (base URL the vendor can reach)
	VercelURL         string        // VERCEL_URL (set by the hosting platform)

	// Vendor API
	PlaidEnv         string // PLAID_ENV (default "sandbox")
	PlaidBaseURL     string // PLAID_BASE_URL (overrides PLAID_ENV)
	PlaidClientID    string // PLAID_CLIENT_ID
	PlaidSecret      string // PLAID_SECRET
	AltPlaidClientID string // ALT_PLAID_CLIENT_ID
	AltPlaidSecret   string // ALT_PLAID_SECRET

	NATSURL     string // FLASH_NATS_URL (optional, empty = no event mirror)
	DatabaseURL string // FLASH_DATABASE_URL (optional, empty = no archive)

	// Sync settings
	SyncInterval   time.Duration // FLASH_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // FLASH_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // FLASH_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // FLASH_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // FLASH_SYNC_S3_KEY (default "flash/webhooks.jsonl")
	SyncGitRepo    string        // FLASH_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // FLASH_SYNC_GIT_FILE (default "webhooks.jsonl")
	SyncGitBranch  string        // FLASH_SYNC_GIT_BRANCH (default "main")
}

// fileConfig is the on-disk TOML form. Durations are strings such as "30s".
type fileConfig struct {
	HTTPAddr          string `toml:"http_addr"`
	GRPCAddr          string `toml:"grpc_addr"`
	HeartbeatInterval string `toml:"heartbeat_interval"`
	PublicURL         string `toml:"public_url"`
	NATSURL           string `toml:"nats_url"`
	DatabaseURL       string `toml:"database_url"`

	Plaid struct {
		Env         string `toml:"env"`
		BaseURL     string `toml:"base_url"`
		ClientID    string `toml:"client_id"`
		Secret      string `toml:"secret"`
		AltClientID string `toml:"alt_client_id"`
		AltSecret   string `toml:"alt_secret"`
	} `toml:"plaid"`

	Sync struct {
		Interval   string `toml:"interval"`
		S3Bucket   string `toml:"s3_bucket"`
		S3Endpoint string `toml:"s3_endpoint"`
		S3Region   string `toml:"s3_region"`
		S3Key      string `toml:"s3_key"`
		GitRepo    string `toml:"git_repo"`
		GitFile    string `toml:"git_file"`
		GitBranch  string `toml:"git_branch"`
	} `toml:"sync"`
}

// Load reads configuration from the environment only.
func Load() (*Config, error) {
	return load(fileConfig{})
}

// LoadFile reads a TOML config file and applies environment overrides on top.
// A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	var f fileConfig
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return load(f)
}

func load(f fileConfig) (*Config, error) {
	c := &Config{
		HTTPAddr:         envOrDefault("FLASH_HTTP_ADDR", or(f.HTTPAddr, ":3000")),
		GRPCAddr:         envOrDefault("FLASH_GRPC_ADDR", f.GRPCAddr),
		PublicURL:        envOrDefault("FLASH_PUBLIC_URL", f.PublicURL),
		VercelURL:        os.Getenv("VERCEL_URL"),
		PlaidEnv:         envOrDefault("PLAID_ENV", or(f.Plaid.Env, "sandbox")),
		PlaidBaseURL:     envOrDefault("PLAID_BASE_URL", f.Plaid.BaseURL),
		PlaidClientID:    envOrDefault("PLAID_CLIENT_ID", f.Plaid.ClientID),
		PlaidSecret:      envOrDefault("PLAID_SECRET", f.Plaid.Secret),
		AltPlaidClientID: envOrDefault("ALT_PLAID_CLIENT_ID", f.Plaid.AltClientID),
		AltPlaidSecret:   envOrDefault("ALT_PLAID_SECRET", f.Plaid.AltSecret),
		NATSURL:          envOrDefault("FLASH_NATS_URL", f.NATSURL),
		DatabaseURL:      envOrDefault("FLASH_DATABASE_URL", f.DatabaseURL),
		SyncS3Bucket:     envOrDefault("FLASH_SYNC_S3_BUCKET", f.Sync.S3Bucket),
		SyncS3Endpoint:   envOrDefault("FLASH_SYNC_S3_ENDPOINT", f.Sync.S3Endpoint),
		SyncS3Region:     envOrDefault("FLASH_SYNC_S3_REGION", or(f.Sync.S3Region, "us-east-1")),
		SyncS3Key:        envOrDefault("FLASH_SYNC_S3_KEY", or(f.Sync.S3Key, "flash/webhooks.jsonl")),
		SyncGitRepo:      envOrDefault("FLASH_SYNC_GIT_REPO", f.Sync.GitRepo),
		SyncGitFile:      envOrDefault("FLASH_SYNC_GIT_FILE", or(f.Sync.GitFile, "webhooks.jsonl")),
		SyncGitBranch:    envOrDefault("FLASH_SYNC_GIT_BRANCH", or(f.Sync.GitBranch, "main")),
	}

	var err error
	c.HeartbeatInterval, err = parseDuration("FLASH_HEARTBEAT_INTERVAL", or(f.HeartbeatInterval, "30s"))
	if err != nil {
		return nil, err
	}
	if c.HeartbeatInterval <= 0 {
		return nil, fmt.Errorf("FLASH_HEARTBEAT_INTERVAL: must be positive, got %s", c.HeartbeatInterval)
	}
	c.SyncInterval, err = parseDuration("FLASH_SYNC_INTERVAL", or(f.Sync.Interval, "0"))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Credentials is a vendor client ID / secret pair.
type Credentials struct {
	ClientID string
	Secret   string
}

// Credentials returns the primary pair, or the alternate pair when useAlt is
// set. Each alternate field falls back to its primary value when unset.
func (c *Config) Credentials(useAlt bool) Credentials {
	creds := Credentials{ClientID: c.PlaidClientID, Secret: c.PlaidSecret}
	if useAlt {
		creds.ClientID = or(c.AltPlaidClientID, c.PlaidClientID)
		creds.Secret = or(c.AltPlaidSecret, c.PlaidSecret)
	}
	return creds
}

// HasAltCredentials reports whether both alternate fields are configured.
func (c *Config) HasAltCredentials() bool {
	return c.AltPlaidClientID != "" && c.AltPlaidSecret != ""
}

// VendorBaseURL is PLAID_BASE_URL when set, else the host for PLAID_ENV.
func (c *Config) VendorBaseURL() string {
	if c.PlaidBaseURL != "" {
		return strings.TrimRight(c.PlaidBaseURL, "/")
	}
	return "https://" + c.PlaidEnv + ".plaid.com"
}

// WebhookURL returns the publicly reachable ingest URL and the environment
// it was derived from. ok is false when neither FLASH_PUBLIC_URL nor
// VERCEL_URL is set.
func (c *Config) WebhookURL() (url, environment string, ok bool) {
	switch {
	case c.PublicURL != "":
		return strings.TrimRight(c.PublicURL, "/") + "/api/webhook", "public", true
	case c.VercelURL != "":
		return "https://" + c.VercelURL + "/api/webhook", "vercel", true
	default:
		return "", "unknown", false
	}
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
