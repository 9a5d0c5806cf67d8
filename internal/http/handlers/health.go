package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	env     string
	version string
	deps    map[string]Pinger
}

// NewHealthHandler takes the dependencies /readyz should ping, keyed by name.
func NewHealthHandler(env, version string, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{env: env, version: version, deps: deps}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Server is running",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"environment": h.env,
	})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := gin.H{}
	ready := true
	for _, name := range names {
		if err := h.deps[name].Ping(cctx); err != nil {
			_ = ctx.Error(err)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	ctx.JSON(status, gin.H{"success": ready, "checks": checks})
}

func (h *HealthHandler) Welcome(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Welcome to the Storefront API",
		"version": h.version,
		"endpoints": gin.H{
			"health":   "/health",
			"ready":    "/readyz",
			"metrics":  "/metrics",
			"users":    "/api/users",
			"products": "/api/products",
		},
	})
}

// NotFound answers unmatched routes with the standard envelope.
func NotFound(ctx *gin.Context) {
	RespondNotFound(ctx, "Route "+ctx.Request.Method+" "+ctx.Request.URL.Path+" not found")
}
