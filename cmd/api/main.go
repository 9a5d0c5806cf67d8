package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/storefront/catalogapi/internal/auth"
	"github.com/storefront/catalogapi/internal/config"
	"github.com/storefront/catalogapi/internal/db"
	httpx "github.com/storefront/catalogapi/internal/http"
	"github.com/storefront/catalogapi/internal/http/handlers"
	"github.com/storefront/catalogapi/internal/observability"
	"github.com/storefront/catalogapi/internal/ratelimit"
	"github.com/storefront/catalogapi/internal/redisclient"
	"github.com/storefront/catalogapi/internal/repo/memory"
	"github.com/storefront/catalogapi/internal/repo/postgres"
	"github.com/storefront/catalogapi/internal/security"
	"github.com/storefront/catalogapi/internal/validation"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if err := validation.Register(); err != nil {
		log.Error("validator setup failed", "err", err)
		os.Exit(1)
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, "storefront-api", cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	deps := httpx.Deps{
		Log:     log,
		Cfg:     cfg,
		Hasher:  hasher,
		Tokens:  tokens,
		Prom:    prom,
		Ready:   map[string]handlers.Pinger{},
		Tracing: cfg.OTLPEndpoint != "",
	}

	var closers []func()

	switch cfg.StoreDriver {
	case config.DriverMemory:
		mem := memory.New()
		deps.Users = mem.Users()
		deps.Products = mem.Products()
		log.Warn("using in-memory store, data is lost on restart")

	default:
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			log.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		closers = append(closers, pool.Close)

		if err := db.Migrate(ctx, pool); err != nil {
			log.Error("database migration failed", "err", err)
			pool.Close()
			os.Exit(1)
		}

		deps.Users = postgres.NewUsersRepo(pool, prom)
		deps.Products = postgres.NewProductsRepo(pool, prom)
		deps.Ready["database"] = pool
		log.Info("database connected", "max_conns", cfg.DBMaxConns)
	}

	switch cfg.RateLimitStore {
	case config.RateStoreRedis:
		rdb := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx)
		cancel()
		if err != nil {
			// counting still fails open per request; report and keep going
			log.Warn("redis unavailable at startup", "addr", cfg.RedisAddr, "err", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		deps.RateStore = ratelimit.NewRedisStore(rdb.Raw(), "storefront:ratelimit:")
		deps.Ready["redis"] = rdb
	default:
		deps.RateStore = ratelimit.NewMemoryStore()
	}

	seedCtx, cancel := config.WithTimeout(ctx, 5*time.Second)
	created, err := db.EnsureAdminUser(seedCtx, deps.Users, hasher, cfg)
	cancel()
	if err != nil {
		log.Error("admin seed failed", "err", err)
	} else if created {
		log.Info("admin user created", "email", cfg.AdminEmail)
	}

	router := httpx.NewRouter(deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCtx, cancelShutdown := config.WithTimeout(ctx, 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "err", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	log.Info("shutdown complete")
}
