// Package config loads quill's settings from an optional YAML file, QUILL_
// environment variables and built-in defaults.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, so web.addr is read
// from QUILL_WEB_ADDR.
const EnvPrefix = "QUILL"

type Config struct {
	App     AppConfig    `mapstructure:"app"`
	Log     LogConfig    `mapstructure:"log"`
	Web     WebConfig    `mapstructure:"web"`
	API     APIConfig    `mapstructure:"api"`
	Cache   CacheConfig  `mapstructure:"cache"`
	Auth    AuthConfig   `mapstructure:"auth"`
	Server  ServerConfig `mapstructure:"server"`
	DB      DBConfig     `mapstructure:"db"`
	Storage string       `mapstructure:"storage"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// WebConfig controls the public frontend.
type WebConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	AutoTLSHosts    []string      `mapstructure:"auto_tls_hosts"`
	AutoTLSCacheDir string        `mapstructure:"auto_tls_cache_dir"`
	CookieSecure    bool          `mapstructure:"cookie_secure"`
	ExcerptLength   int           `mapstructure:"excerpt_length"`
}

// APIConfig points the frontend and the CLI at the REST backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend     string        `mapstructure:"backend"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	CommentsTTL time.Duration `mapstructure:"comments_ttl"`
	Redis       RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	Namespace string `mapstructure:"namespace"`
}

// AuthConfig describes the hosted identity provider. Sign-in is disabled
// while Domain is empty.
type AuthConfig struct {
	Domain       string        `mapstructure:"domain"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	CallbackURL  string        `mapstructure:"callback_url"`
	AdminEmails  []string      `mapstructure:"admin_emails"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
}

// ServerConfig is the REST backend listener. CORSOrigins lists the browser
// origins allowed to call it; "*" allows any.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)

	v.SetDefault("web.addr", ":3000")
	v.SetDefault("web.read_timeout", "15s")
	v.SetDefault("web.write_timeout", "15s")
	v.SetDefault("web.auto_tls_hosts", []string{})
	v.SetDefault("web.auto_tls_cache_dir", ".autocert")
	v.SetDefault("web.cookie_secure", false)
	v.SetDefault("web.excerpt_length", 160)

	v.SetDefault("api.base_url", "http://localhost:8080/api")
	v.SetDefault("api.timeout", "10s")

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.default_ttl", "5m")
	v.SetDefault("cache.comments_ttl", "1m")
	v.SetDefault("cache.redis.addr", "127.0.0.1:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.namespace", "quill:")

	v.SetDefault("auth.domain", "")
	v.SetDefault("auth.client_id", "")
	v.SetDefault("auth.client_secret", "")
	v.SetDefault("auth.callback_url", "http://localhost:3000/callback")
	v.SetDefault("auth.admin_emails", []string{})
	v.SetDefault("auth.session_ttl", "24h")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")

	v.SetDefault("storage", StorageMemory)
}

// Load reads path when it is not empty; environment variables override the
// file and the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	return cfg, nil
}
