package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"content_system/internal/auth"
	"content_system/internal/cache"
	"content_system/internal/config"
	"content_system/internal/handlers/pageview"
	"content_system/internal/middlewares"
	"content_system/internal/observability"
	"content_system/internal/pages"
	"content_system/internal/render"
	"content_system/internal/resolve"
	"content_system/internal/security"
	"content_system/internal/server"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	observability.SetVersion(cfg.App.Version)

	// Database pool for the page store
	pool, err := config.NewPool(config.PoolConfig(cfg.Database, logger))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Shared cache: Redis primary with in-memory fallback
	redisConfig := cache.DefaultRedisConfig()
	if cfg.Redis.Addr != "" {
		redisConfig.Addr = cfg.Redis.Addr
	}
	redisConfig.Password = cfg.Redis.Password
	redisConfig.DB = cfg.Redis.DB
	sharedCache := cache.NewFallbackCache(&cache.FallbackConfig{
		Redis:  redisConfig,
		Logger: logger,
	})

	metrics := observability.NewMetrics(observability.DefaultMetricsConfig("content"))

	// Page store with path-lookup memoization
	store := pages.NewCachedStore(pages.NewPGStore(pool, logger), sharedCache, logger)
	store.OnPathLookup = metrics.ObservePathLookup

	// Sessions ride the same cache backend
	sessionConfig := auth.DefaultSessionConfig(sharedCache)
	sessionConfig.CookieName = cfg.Session.CookieName
	sessionConfig.TTL = cfg.Session.TTL
	sessionConfig.Logger = logger
	sessions := auth.NewSessionStore(sessionConfig)

	// Rendering
	renderer, err := render.NewTemplateRenderer(cfg.Rendering.TemplatesDir, logger)
	if err != nil {
		log.Fatalf("Failed to initialize renderer: %v", err)
	}
	fileStore := render.NewFileStore(cfg.Rendering.FilesDir, cfg.Resolver.ExtendedIDPaths, logger)

	// Access policy delegates the template-file requirement to the renderer
	policy := auth.NewPolicy(store, func(tpl pages.Template) bool {
		return renderer.HasTemplateFile(tpl.Name)
	}, logger)

	resolverConfig := resolverConfigFrom(cfg.Resolver, logger)
	dispatcher := resolve.NewDispatcher(
		resolverConfig,
		store,
		policy,
		renderer,
		nil, // the front controller supplies a per-request file sender
		security.NormalizePageName,
		resolve.Hooks{
			NotifyFailure: func(err error, reason string, pg pages.Page, url string) {
				logger.Warn("resolution failure",
					"reason", reason,
					"page_id", pg.ID,
					"url", url,
					"error", err,
				)
			},
		},
	)

	// A misconfigured not-found page is a deployment fault; fail fast
	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := dispatcher.ValidateConfig(startupCtx); err != nil {
		cancel()
		log.Fatalf("Invalid resolver configuration: %v", err)
	}
	cancel()

	front := pageview.NewHandler(dispatcher, sessions, fileStore, metrics, logger)

	mux := http.NewServeMux()
	mux.Handle("/healthz", observability.HealthHandler(&observability.HealthConfig{
		Logger:       logger,
		DatabasePool: pool,
		Cache:        sharedCache,
	}))
	mux.Handle("/live", observability.LivenessHandler())
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.Handle("/", front)

	// Middleware chain; each wrap sits outside the previous one, so the
	// request id exists before recovery and logging run
	var handler http.Handler = mux
	handler = middlewares.RateLimit(&middlewares.RateLimitConfig{
		Logger: logger,
		Store:  middlewares.NewCacheTokenBucketStore(sharedCache),
	})(handler)
	handler = middlewares.Security(middlewares.DefaultSecurityConfig())(handler)
	handler = middlewares.Logger(&middlewares.LoggerConfig{Logger: logger, IncludeUserAgent: true, IncludeQueryParams: true, SkipPaths: []string{"/healthz", "/live", "/metrics"}})(handler)
	handler = middlewares.Recovery(&middlewares.RecoveryConfig{Logger: logger})(handler)
	handler = observability.RequestID(observability.DefaultRequestIDConfig())(handler)

	serverConfig := server.DefaultConfig(":" + cfg.Server.Port)
	serverConfig.Logger = logger
	serverConfig.TLSCertFile = cfg.TLS.CertFile
	serverConfig.TLSKeyFile = cfg.TLS.KeyFile

	resources := []server.Resource{
		server.NewDatabaseResource("postgres", pool),
		server.NewCustomResource("cache", func(ctx context.Context) error {
			return sharedCache.Close()
		}),
	}

	logger.Info("starting content server",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
	)

	if err := server.Start(handler, serverConfig, resources); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// resolverConfigFrom maps loaded settings onto the resolver configuration
func resolverConfigFrom(rc config.ResolverConfig, logger *slog.Logger) *resolve.Config {
	cfg := resolve.DefaultConfig()
	cfg.Logger = logger
	cfg.RootPrefix = rc.RootPrefix
	if rc.MaxPathDepth > 0 {
		cfg.MaxPathDepth = rc.MaxPathDepth
	}
	if rc.MaxURLSegments > 0 {
		cfg.MaxURLSegments = rc.MaxURLSegments
	}
	if rc.PageNumPrefix != "" {
		cfg.PageNumPrefix = rc.PageNumPrefix
	}
	if rc.MaxPageNum > 0 {
		cfg.MaxPageNum = rc.MaxPageNum
	}
	cfg.SecureFiles = rc.SecureFiles
	if rc.FilesRoot != "" {
		cfg.FilesRoot = rc.FilesRoot
	}
	cfg.ExtendedIDPaths = rc.ExtendedIDPaths
	cfg.LegacyFilePrefix = rc.LegacyFilePrefix
	cfg.DisableSchemeEnforcement = rc.DisableSchemeEnforcement
	cfg.DelayRedirects = rc.DelayRedirects
	if rc.ComponentPrefix != "" {
		cfg.ComponentPrefix = rc.ComponentPrefix
	}
	if rc.MaxComponentDepth > 0 {
		cfg.MaxComponentDepth = rc.MaxComponentDepth
	}
	cfg.NotFoundPageID = rc.NotFoundPageID
	cfg.DisallowIDs = rc.DisallowIDs
	return cfg
}
