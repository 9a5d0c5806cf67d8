package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/storefront/catalogapi/internal/config"
	"github.com/storefront/catalogapi/internal/domain/user"
	"github.com/storefront/catalogapi/internal/http/handlers"
	"github.com/storefront/catalogapi/internal/http/middlewares"
	"github.com/storefront/catalogapi/internal/observability"
	"github.com/storefront/catalogapi/internal/ratelimit"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const Version = "1.0.0"

type Deps struct {
	Log      *slog.Logger
	Cfg      config.Config
	Users    handlers.UserStore
	Products handlers.ProductStore
	Hasher   handlers.PasswordHasher
	Tokens   interface {
		handlers.TokenIssuer
		middlewares.TokenVerifier
	}
	RateStore ratelimit.Store
	Prom      *observability.Prom
	// Ready lists what /readyz pings, keyed by name.
	Ready   map[string]handlers.Pinger
	Tracing bool
}

func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	dev := d.Cfg.IsDevelopment()

	r := gin.New()
	r.HandleMethodNotAllowed = false

	if err := r.SetTrustedProxies(d.Cfg.TrustedProxies); err != nil {
		log.Warn("invalid TRUSTED_PROXIES, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(middlewares.Recovery(log, dev))
	r.Use(middlewares.RequestID())
	if d.Tracing {
		r.Use(otelgin.Middleware("storefront-api"))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Cfg.IsProduction()))
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins, !d.Cfg.IsProduction()))
	r.Use(middlewares.ExposeErrors(dev))
	r.Use(middlewares.RequestLogger(log, dev))

	health := handlers.NewHealthHandler(d.Cfg.Env, Version, d.Ready)
	r.GET("/", health.Welcome)
	r.GET("/health", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Prom != nil {
		r.GET("/metrics", d.Prom.Handler())
	}

	r.NoRoute(handlers.NotFound)

	var rejected prometheus.Counter
	if d.Prom != nil {
		rejected = d.Prom.RateLimited
	}
	limiter := middlewares.NewRateLimiter(d.RateStore, d.Cfg.RateLimitMax, d.Cfg.RateLimitWindow, log, rejected)

	api := r.Group("/api")
	api.Use(limiter.Middleware(middlewares.KeyByIP))
	api.Use(middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())

	authMw := middlewares.NewAuthMiddleware(d.Tokens)
	requireAuth := authMw.RequireAuth()
	requireAdmin := authMw.RequireRole(user.RoleAdmin)

	usersHandler := handlers.NewUsersHandler(d.Users, d.Hasher, d.Tokens)
	users := api.Group("/users")
	{
		users.POST("/register", usersHandler.Register)
		users.POST("", usersHandler.Register)
		users.POST("/login", usersHandler.Login)

		users.GET("/profile", requireAuth, usersHandler.Profile)
		users.PUT("/profile", requireAuth, usersHandler.UpdateProfile)

		users.GET("", requireAuth, requireAdmin, usersHandler.List)
		users.GET("/:id", requireAuth, usersHandler.GetByID)
		users.PUT("/:id", requireAuth, usersHandler.UpdateByID)
		users.DELETE("/:id", requireAuth, usersHandler.DeleteByID)
	}

	productsHandler := handlers.NewProductsHandler(d.Products)
	products := api.Group("/products")
	{
		products.GET("", productsHandler.List)
		products.GET("/category/:category", productsHandler.ListByCategory)
		products.GET("/:id", productsHandler.Get)

		products.POST("", requireAuth, productsHandler.Create)
		products.PUT("/:id", requireAuth, productsHandler.Update)
		products.DELETE("/:id", requireAuth, productsHandler.Delete)
	}

	return r
}
