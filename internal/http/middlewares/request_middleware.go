package middlewares

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/storefront/catalogapi/internal/observability"
)

const requestIDHeader = "X-Request-Id"

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		ctx.Writer.Header().Set(requestIDHeader, id)

		ctx.Set(CtxRequestID, id)
		ctx.Request = ctx.Request.WithContext(observability.WithRequestID(ctx.Request.Context(), id))

		ctx.Next()
	}
}

// ExposeErrors lets handlers echo raw error text in 500 responses.
func ExposeErrors(enabled bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(CtxExposeErrors, enabled)
		ctx.Next()
	}
}

// RequestLogger always reports server errors and throttled requests. With verbose set
// every request gets an http_request line.
func RequestLogger(log *slog.Logger, verbose bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // fallback (e.g. 404)
		}

		attrs := []any{
			"method", ctx.Request.Method,
			"route", route,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", ctx.ClientIP(),
		}

		rctx := ctx.Request.Context()
		switch {
		case status >= 500:
			if len(ctx.Errors) > 0 {
				attrs = append(attrs, "err", ctx.Errors.String())
			}
			log.ErrorContext(rctx, "http_request", attrs...)
		case status == 429:
			log.WarnContext(rctx, "http_request", attrs...)
		case !verbose:
		case status >= 400:
			log.DebugContext(rctx, "http_request", attrs...)
		default:
			log.InfoContext(rctx, "http_request", attrs...)
		}
	}
}
