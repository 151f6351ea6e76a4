package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Web.Addr != ":3000" || cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected listen addresses %q %q", cfg.Web.Addr, cfg.Server.Addr)
	}
	if cfg.Cache.Backend != CacheMemory || cfg.Storage != StorageMemory {
		t.Fatalf("unexpected backends %q %q", cfg.Cache.Backend, cfg.Storage)
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute || cfg.Cache.CommentsTTL != time.Minute {
		t.Fatalf("unexpected cache ttls %v %v", cfg.Cache.DefaultTTL, cfg.Cache.CommentsTTL)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour || cfg.API.Timeout != 10*time.Second {
		t.Fatalf("unexpected durations %v %v", cfg.Auth.SessionTTL, cfg.API.Timeout)
	}
	if cfg.Server.ReadTimeout != 15*time.Second || cfg.Web.WriteTimeout != 15*time.Second {
		t.Fatalf("unexpected timeouts %v %v", cfg.Server.ReadTimeout, cfg.Web.WriteTimeout)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected CORS origins %v", cfg.Server.CORSOrigins)
	}
	if cfg.Auth.Domain != "" {
		t.Fatalf("sign-in should be disabled by default, got domain %q", cfg.Auth.Domain)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quill.yaml")
	yaml := `
log:
  level: debug
  encoding: json
cache:
  backend: Redis
  default_ttl: 2m
  redis:
    addr: redis:6379
    namespace: "blog:"
auth:
  domain: example.auth0.com
  admin_emails:
    - admin@example.com
storage: postgres
server:
  read_timeout: 20s
  cors_origins:
    - https://blog.example.com
db:
  dsn: postgres://localhost/quill
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("QUILL_WEB_ADDR", ":9000")
	t.Setenv("QUILL_API_TIMEOUT", "3s")
	t.Setenv("QUILL_AUTH_CLIENT_ID", "client-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Encoding != "json" {
		t.Fatalf("unexpected log config %+v", cfg.Log)
	}
	if cfg.Cache.Backend != CacheRedis || cfg.Cache.DefaultTTL != 2*time.Minute {
		t.Fatalf("unexpected cache config %+v", cfg.Cache)
	}
	if cfg.Cache.Redis.Addr != "redis:6379" || cfg.Cache.Redis.Namespace != "blog:" {
		t.Fatalf("unexpected redis config %+v", cfg.Cache.Redis)
	}
	if cfg.Cache.CommentsTTL != time.Minute {
		t.Fatalf("unset keys should keep defaults, got %v", cfg.Cache.CommentsTTL)
	}
	if cfg.Storage != StoragePostgres || cfg.DB.DSN != "postgres://localhost/quill" || cfg.DB.MaxOpenConns != 25 {
		t.Fatalf("unexpected storage config %q %+v", cfg.Storage, cfg.DB)
	}
	if cfg.Server.ReadTimeout != 20*time.Second || len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://blog.example.com" {
		t.Fatalf("unexpected server config %+v", cfg.Server)
	}
	if len(cfg.Auth.AdminEmails) != 1 || cfg.Auth.AdminEmails[0] != "admin@example.com" {
		t.Fatalf("unexpected admin emails %v", cfg.Auth.AdminEmails)
	}
	if cfg.Web.Addr != ":9000" || cfg.API.Timeout != 3*time.Second || cfg.Auth.ClientID != "client-123" {
		t.Fatalf("environment overrides not applied: %+v %+v %+v", cfg.Web, cfg.API, cfg.Auth)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
