package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-catalogue/db"
	"github.com/noah-isme/backend-catalogue/internal/agent"
	"github.com/noah-isme/backend-catalogue/internal/auth"
	"github.com/noah-isme/backend-catalogue/internal/cart"
	"github.com/noah-isme/backend-catalogue/internal/catalog"
	"github.com/noah-isme/backend-catalogue/internal/checkout"
	"github.com/noah-isme/backend-catalogue/internal/common"
	"github.com/noah-isme/backend-catalogue/internal/config"
	"github.com/noah-isme/backend-catalogue/internal/health"
	"github.com/noah-isme/backend-catalogue/internal/lock"
	"github.com/noah-isme/backend-catalogue/internal/obs"
	"github.com/noah-isme/backend-catalogue/internal/ratelimit"
	"github.com/noah-isme/backend-catalogue/internal/security"
	"github.com/noah-isme/backend-catalogue/internal/settings"
	"github.com/noah-isme/backend-catalogue/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "catalogue")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "catalogue-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "catalogue-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	catalogStore := catalog.NewPGStore(pool)
	catalogService, err := catalog.NewService(catalog.ServiceConfig{
		Store: catalogStore,
		Cache: catalog.NewCache(redisClient, cfg.CatalogCacheTTL),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise catalog service")
	}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: catalogService})
	catalogAdmin := catalog.NewAdminHandler(catalogService)

	agentStore := agent.NewPGStore(pool)
	agentHandler := agent.NewHandler(agentStore)

	settingsStore := settings.NewPGStore(pool)
	settingsHandler := settings.NewHandler(settingsStore)

	authService, err := auth.NewService(auth.Config{
		Store:          auth.NewPGStore(pool),
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Service: authService}
	authMiddleware := auth.Middleware{Service: authService}

	cartService := &cart.Service{
		Store: &cart.RedisStore{Client: redisClient, TTL: cfg.CartTTL},
		Lock:  lock.Locker{R: redisClient},
	}
	cartHandler := &cart.Handler{Svc: cartService, Catalog: catalogService}

	checkoutService := checkout.NewService(cartService, agentStore, settingsStore, logger)
	checkoutHandler := &checkout.Handler{Svc: checkoutService}

	uploadStorage := &upload.DiskStorage{
		Dir:      cfg.UploadDir,
		BaseURL:  cfg.UploadBaseURL,
		MaxBytes: cfg.MaxUploadBytes,
	}
	uploadHandler := &upload.Handler{Storage: uploadStorage, MaxBytes: cfg.MaxUploadBytes}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	loginLimiter, err := ratelimit.NewLoginLimiter(redisClient,
		int64(envInt("LOGIN_RATE_MAX", 10)),
		envDurationMillis("LOGIN_RATE_WINDOW_MS", 60_000))
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise login limiter")
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: envBool("SECURE_HEADERS", true)}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if envBool("OBS_ENABLE_PPROF", true) {
		user := envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", "")
		pass := envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", "")
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), user, pass))
	}

	healthHandler := health.Handler{
		Checker:      health.Probes{Pool: pool, Redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	// Uploaded files are served straight from disk.
	fileServer := http.StripPrefix(cfg.UploadBaseURL+"/", http.FileServer(http.Dir(cfg.UploadDir)))
	r.Get(cfg.UploadBaseURL+"/*", fileServer.ServeHTTP)

	bodyLimit := security.BodyLimit{Max: int64(envInt("SECURE_BODY_LIMIT_BYTES", 1<<20))}

	r.Route("/api/v1", func(v chi.Router) {
		v.Group(func(public chi.Router) {
			public.Use(bodyLimit.Middleware)

			public.Get("/products", catalogHandler.Products)
			public.Get("/products/{id}", catalogHandler.ProductDetail)
			public.Get("/categories", catalogHandler.Categories)
			public.Get("/carousel", catalogHandler.Carousel)
			public.Get("/agents/{slug}", agentHandler.GetBySlug)
			public.Get("/settings/{key}", settingsHandler.Get)

			cartLimiter := ratelimit.Handler{
				Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "catalog:ratelimit:cart:"},
				Config: ratelimit.Config{
					Key:    clientKey,
					Window: envDurationMillis("CART_RATE_WINDOW_MS", 60_000),
					Max:    envInt("CART_RATE_MAX", 120),
				},
				OnError: func(err error) { logger.Warn().Err(err).Msg("cart rate limiter") },
			}

			public.Route("/carts", func(c chi.Router) {
				c.Get("/{id}", cartHandler.Get)
				c.Group(func(g chi.Router) {
					g.Use(cartLimiter.Middleware)
					g.Use(idem.Middleware)
					g.Post("/", cartHandler.Create)
					g.Post("/{id}/items", cartHandler.AddItem)
					g.Patch("/{id}/items/{productId}", cartHandler.UpdateItem)
					g.Delete("/{id}/items/{productId}", cartHandler.RemoveItem)
					g.Delete("/{id}", cartHandler.Clear)
				})
			})

			public.With(cartLimiter.Middleware, idem.Middleware).Post("/checkout", checkoutHandler.Checkout)

			public.Route("/auth", func(a chi.Router) {
				a.With(loginLimiter).Post("/login", authHandler.Login)
				a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
			})
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)

			admin.Group(func(g chi.Router) {
				g.Use(bodyLimit.Middleware)

				g.Put("/credentials", authHandler.UpdateCredentials)

				g.Get("/products", catalogAdmin.Products)
				g.Post("/products", catalogAdmin.CreateProduct)
				g.Put("/products/{id}", catalogAdmin.UpdateProduct)
				g.Delete("/products/{id}", catalogAdmin.DeleteProduct)

				g.Post("/categories", catalogAdmin.CreateCategory)
				g.Put("/categories/{id}", catalogAdmin.UpdateCategory)
				g.Delete("/categories/{id}", catalogAdmin.DeleteCategory)

				g.Get("/agents", agentHandler.List)
				g.Post("/agents", agentHandler.Create)
				g.Put("/agents/{id}", agentHandler.Update)
				g.Delete("/agents/{id}", agentHandler.Delete)

				g.Get("/settings/{key}", settingsHandler.AdminGet)
				g.Put("/settings/{key}", settingsHandler.AdminPut)
			})

			// Multipart uploads enforce their own size cap.
			admin.Post("/uploads", uploadHandler.Create)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
	logger.Info().Msg("server stopped")
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/block", pprof.Handler("block"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	mux.Handle("/threadcreate", pprof.Handler("threadcreate"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
