package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// allEnvVars lists every variable Load reads; cleared between tests.
var allEnvVars = []string{
	"FLASH_HTTP_ADDR", "FLASH_GRPC_ADDR", "FLASH_HEARTBEAT_INTERVAL",
	"FLASH_PUBLIC_URL", "VERCEL_URL", "FLASH_NATS_URL", "FLASH_DATABASE_URL",
	"PLAID_ENV", "PLAID_BASE_URL", "PLAID_CLIENT_ID", "PLAID_SECRET",
	"ALT_PLAID_CLIENT_ID", "ALT_PLAID_SECRET",
	"FLASH_SYNC_INTERVAL", "FLASH_SYNC_S3_BUCKET", "FLASH_SYNC_S3_ENDPOINT",
	"FLASH_SYNC_S3_REGION", "FLASH_SYNC_S3_KEY", "FLASH_SYNC_GIT_REPO",
	"FLASH_SYNC_GIT_FILE", "FLASH_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":3000")
	}
	if cfg.GRPCAddr != "" {
		t.Errorf("GRPCAddr = %q, want empty", cfg.GRPCAddr)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval = %v, want 30s", cfg.HeartbeatInterval)
	}
	if cfg.PlaidEnv != "sandbox" {
		t.Errorf("PlaidEnv = %q, want sandbox", cfg.PlaidEnv)
	}
	if cfg.SyncInterval != 0 {
		t.Errorf("SyncInterval = %v, want 0 (disabled)", cfg.SyncInterval)
	}
	if cfg.SyncS3Region != "us-east-1" {
		t.Errorf("SyncS3Region = %q", cfg.SyncS3Region)
	}
	if cfg.SyncS3Key != "flash/webhooks.jsonl" {
		t.Errorf("SyncS3Key = %q", cfg.SyncS3Key)
	}
	if cfg.SyncGitFile != "webhooks.jsonl" {
		t.Errorf("SyncGitFile = %q", cfg.SyncGitFile)
	}
	if cfg.SyncGitBranch != "main" {
		t.Errorf("SyncGitBranch = %q", cfg.SyncGitBranch)
	}
}

func TestLoadCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("FLASH_HTTP_ADDR", ":8080")
	t.Setenv("FLASH_GRPC_ADDR", ":9090")
	t.Setenv("FLASH_HEARTBEAT_INTERVAL", "5s")
	t.Setenv("FLASH_NATS_URL", "nats://localhost:4222")
	t.Setenv("FLASH_DATABASE_URL", "postgres://localhost/flash")
	t.Setenv("FLASH_SYNC_INTERVAL", "10m")
	t.Setenv("FLASH_SYNC_S3_BUCKET", "my-bucket")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.GRPCAddr != ":9090" {
		t.Errorf("addrs = %q %q", cfg.HTTPAddr, cfg.GRPCAddr)
	}
	if cfg.HeartbeatInterval != 5*time.Second {
		t.Errorf("HeartbeatInterval = %v", cfg.HeartbeatInterval)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.DatabaseURL != "postgres://localhost/flash" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval)
	}
	if cfg.SyncS3Bucket != "my-bucket" {
		t.Errorf("SyncS3Bucket = %q", cfg.SyncS3Bucket)
	}
}

func TestLoadInvalidDurations(t *testing.T) {
	for _, tc := range []struct {
		name string
		key  string
		val  string
	}{
		{"BadHeartbeat", "FLASH_HEARTBEAT_INTERVAL", "soon"},
		{"NegativeHeartbeat", "FLASH_HEARTBEAT_INTERVAL", "-1s"},
		{"ZeroHeartbeat", "FLASH_HEARTBEAT_INTERVAL", "0s"},
		{"BadSync", "FLASH_SYNC_INTERVAL", "not-a-duration"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.val)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "flash.toml")
	data := `
http_addr = ":4000"
heartbeat_interval = "10s"

[plaid]
env = "production"
client_id = "file-client"
secret = "file-secret"

[sync]
interval = "1m"
git_repo = "/tmp/repo"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PLAID_SECRET", "env-secret")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTPAddr != ":4000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.HeartbeatInterval != 10*time.Second {
		t.Errorf("HeartbeatInterval = %v", cfg.HeartbeatInterval)
	}
	if cfg.PlaidEnv != "production" || cfg.PlaidClientID != "file-client" {
		t.Errorf("plaid = %q %q", cfg.PlaidEnv, cfg.PlaidClientID)
	}
	if cfg.PlaidSecret != "env-secret" {
		t.Errorf("env should override file, PlaidSecret = %q", cfg.PlaidSecret)
	}
	if cfg.SyncInterval != time.Minute || cfg.SyncGitRepo != "/tmp/repo" {
		t.Errorf("sync = %v %q", cfg.SyncInterval, cfg.SyncGitRepo)
	}
}

func TestLoadFileMissing(t *testing.T) {
	clearAllEnv(t)
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
}

func TestLoadFileMalformed(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("http_addr = [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for malformed TOML")
	}
}

func TestCredentials(t *testing.T) {
	for _, tc := range []struct {
		name   string
		cfg    Config
		useAlt bool
		want   Credentials
	}{
		{
			name: "Primary",
			cfg:  Config{PlaidClientID: "id", PlaidSecret: "sec", AltPlaidClientID: "alt-id", AltPlaidSecret: "alt-sec"},
			want: Credentials{ClientID: "id", Secret: "sec"},
		},
		{
			name:   "Alternate",
			cfg:    Config{PlaidClientID: "id", PlaidSecret: "sec", AltPlaidClientID: "alt-id", AltPlaidSecret: "alt-sec"},
			useAlt: true,
			want:   Credentials{ClientID: "alt-id", Secret: "alt-sec"},
		},
		{
			name:   "AlternateFallsBackPerField",
			cfg:    Config{PlaidClientID: "id", PlaidSecret: "sec", AltPlaidClientID: "alt-id"},
			useAlt: true,
			want:   Credentials{ClientID: "alt-id", Secret: "sec"},
		},
		{
			name:   "AlternateUnset",
			cfg:    Config{PlaidClientID: "id", PlaidSecret: "sec"},
			useAlt: true,
			want:   Credentials{ClientID: "id", Secret: "sec"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.Credentials(tc.useAlt); got != tc.want {
				t.Errorf("Credentials(%v) = %+v, want %+v", tc.useAlt, got, tc.want)
			}
		})
	}
}

func TestHasAltCredentials(t *testing.T) {
	for _, tc := range []struct {
		id, secret string
		want       bool
	}{
		{"", "", false},
		{"id", "", false},
		{"", "sec", false},
		{"id", "sec", true},
	} {
		cfg := Config{AltPlaidClientID: tc.id, AltPlaidSecret: tc.secret}
		if got := cfg.HasAltCredentials(); got != tc.want {
			t.Errorf("HasAltCredentials(%q, %q) = %v, want %v", tc.id, tc.secret, got, tc.want)
		}
	}
}

func TestVendorBaseURL(t *testing.T) {
	if got := (&Config{PlaidEnv: "sandbox"}).VendorBaseURL(); got != "https://sandbox.plaid.com" {
		t.Errorf("VendorBaseURL = %q", got)
	}
	if got := (&Config{PlaidEnv: "sandbox", PlaidBaseURL: "http://127.0.0.1:9999/"}).VendorBaseURL(); got != "http://127.0.0.1:9999" {
		t.Errorf("VendorBaseURL override = %q", got)
	}
}

func TestWebhookURL(t *testing.T) {
	for _, tc := range []struct {
		name    string
		cfg     Config
		wantURL string
		wantEnv string
		wantOK  bool
	}{
		{"Public", Config{PublicURL: "https://demo.example.com/", VercelURL: "x.vercel.app"}, "https://demo.example.com/api/webhook", "public", true},
		{"Vercel", Config{VercelURL: "flash.vercel.app"}, "https://flash.vercel.app/api/webhook", "vercel", true},
		{"None", Config{}, "", "unknown", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			url, env, ok := tc.cfg.WebhookURL()
			if url != tc.wantURL || env != tc.wantEnv || ok != tc.wantOK {
				t.Errorf("WebhookURL() = %q %q %v, want %q %q %v", url, env, ok, tc.wantURL, tc.wantEnv, tc.wantOK)
			}
		})
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
