package cli

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/adeilh/quill/api"
	"github.com/adeilh/quill/auth"
	"github.com/adeilh/quill/blog/client"
	"github.com/adeilh/quill/cache"
	"github.com/adeilh/quill/cache/memory"
	"github.com/adeilh/quill/cache/redis"
	"github.com/adeilh/quill/db/sql/postgres"
	"github.com/adeilh/quill/httpx"
	"github.com/adeilh/quill/internal/config"
	"github.com/adeilh/quill/web"
)

func noop() error { return nil }

func redisOptions(cfg config.CacheConfig) redis.Options {
	return redis.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		Namespace:  cfg.Redis.Namespace,
		DefaultTTL: cfg.DefaultTTL,
	}
}

// newCacheStore builds the response cache. The returned func releases it.
func newCacheStore(cfg config.CacheConfig) (cache.Store, func() error, error) {
	switch cfg.Backend {
	case config.CacheMemory, "":
		return memory.NewStore(memory.WithDefaultTTL(cfg.DefaultTTL)), noop, nil
	case config.CacheRedis:
		store := redis.NewStore(redisOptions(cfg))
		return store, store.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}

// newSessions keeps sessions apart from the response cache so clearing the
// cache never signs anyone out.
func newSessions(cfg config.Config) *auth.CacheSessionStore {
	if cfg.Cache.Backend == config.CacheRedis {
		opts := redisOptions(cfg.Cache)
		opts.Namespace = strings.TrimSuffix(opts.Namespace, ":") + "-sessions:"
		return auth.NewRedisSessionStore(auth.RedisSessionStoreOptions{
			DefaultTTL: cfg.Auth.SessionTTL,
			Redis:      opts,
		})
	}
	return auth.NewCacheSessionStore(memory.NewStore(), auth.SessionStoreOptions{DefaultTTL: cfg.Auth.SessionTTL})
}

// newProvider returns nil when no identity provider is configured.
func newProvider(cfg config.AuthConfig) (*auth.Provider, error) {
	if strings.TrimSpace(cfg.Domain) == "" {
		return nil, nil
	}
	return auth.NewProvider(auth.ProviderConfig{
		Domain:       cfg.Domain,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		CallbackURL:  cfg.CallbackURL,
		AdminEmails:  cfg.AdminEmails,
	})
}

func apiTransport(cfg config.APIConfig) *httpx.Client {
	return httpx.NewClient(httpx.WithBaseURL(cfg.BaseURL), httpx.WithClientTimeout(cfg.Timeout))
}

func newBlogClient(cfg config.Config, store cache.Store, log *zap.Logger) *client.Client {
	return client.New(apiTransport(cfg.API),
		client.WithCache(store),
		client.WithPostsTTL(cfg.Cache.DefaultTTL),
		client.WithCommentsTTL(cfg.Cache.CommentsTTL),
		client.WithLogger(log.Named("client")),
	)
}

// newWebServer wires the frontend: cache, API client, sessions, provider.
func newWebServer(cfg config.Config, log *zap.Logger) (*httpx.Server, func() error, error) {
	store, closeCache, err := newCacheStore(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	posts := newBlogClient(cfg, store, log)

	opts := []web.Option{
		web.WithLogger(log.Named("web")),
		web.WithSessionTTL(cfg.Auth.SessionTTL),
		web.WithSecureCookie(cfg.Web.CookieSecure),
		web.WithExcerptLength(cfg.Web.ExcerptLength),
	}
	provider, err := newProvider(cfg.Auth)
	if err != nil {
		_ = closeCache()
		return nil, nil, err
	}
	if provider != nil {
		opts = append(opts, web.WithProvider(provider))
	} else {
		log.Warn("no identity provider configured; sign-in is disabled")
	}

	h, err := web.NewHandler(posts, newSessions(cfg), opts...)
	if err != nil {
		_ = closeCache()
		return nil, nil, err
	}
	srv := httpx.NewServer(
		httpx.WithAddress(cfg.Web.Addr),
		httpx.WithTimeouts(cfg.Web.ReadTimeout, cfg.Web.WriteTimeout),
		httpx.WithLogger(log),
		httpx.WithErrorHandler(h.HandleError),
		httpx.WithAutoTLS(cfg.Web.AutoTLSCacheDir, cfg.Web.AutoTLSHosts...),
	)
	srv.RegisterRoutes(h.Routes())
	return srv, closeCache, nil
}

// newRepository opens the backend's storage; postgres is migrated on open.
func newRepository(ctx context.Context, cfg config.Config, log *zap.Logger) (api.Repository, func() error, error) {
	switch cfg.Storage {
	case config.StorageMemory, "":
		log.Warn("using in-memory storage; posts are lost on restart")
		return api.NewMemoryRepository(nil), noop, nil
	case config.StoragePostgres:
		db, err := postgres.Open(ctx,
			postgres.WithDSN(cfg.DB.DSN),
			postgres.WithMaxOpenConns(cfg.DB.MaxOpenConns),
			postgres.WithMaxIdleConns(cfg.DB.MaxIdleConns),
			postgres.WithConnMaxLifetime(cfg.DB.ConnMaxLifetime),
		)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewPostRepository(db, nil), db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

// corsConfig lets browsers call the REST API from the listed origins.
func corsConfig(origins []string) *middleware.CORSConfig {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "X-CSRF-Token", "Authorization"},
	}
}

func newAPIServer(ctx context.Context, cfg config.Config, log *zap.Logger) (*httpx.Server, func() error, error) {
	repo, closeRepo, err := newRepository(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	srv := httpx.NewServer(
		httpx.WithAddress(cfg.Server.Addr),
		httpx.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		httpx.WithLogger(log),
		httpx.WithCORS(corsConfig(cfg.Server.CORSOrigins)),
	)
	srv.RegisterRoutes(api.NewHandler(repo, log.Named("api")).Routes("/api"))
	return srv, closeRepo, nil
}
