package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("whatever"))
}

func TestTraceHandler_AddsSpanIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "info")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "inside span")
	span.End()

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, span.SpanContext().TraceID().String(), rec["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), rec["span_id"])
}

func TestTraceHandler_NoSpan(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "info").Info("plain")

	assert.NotContains(t, buf.String(), "trace_id")
}

func TestObserveDB_ClassifiesErrors(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	_ = p.ObserveDB("users.get", func() error { return pgx.ErrNoRows })
	_ = p.ObserveDB("users.get", func() error { return fmt.Errorf("wrapped: %w", context.DeadlineExceeded) })

	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.get", "timeout")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.get", "unknown")))
}

func TestClassifyDBErr(t *testing.T) {
	assert.Equal(t, "foreign_key_violation", classifyDBErr(&pgconn.PgError{Code: "23503"}))
	assert.Equal(t, "pg_42P01", classifyDBErr(&pgconn.PgError{Code: "42P01"}))
	assert.Equal(t, "connection", classifyDBErr(errors.New("connection refused")))
}

func TestGinMiddleware_CountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := NewProm(prometheus.NewRegistry())

	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", p.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/ping", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(w.Body.String(), "storefront_http_requests_total"))
}

func TestInitTracer_DisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "storefront", "test", "")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestTraceHandler_AddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "info")

	log.InfoContext(WithRequestID(context.Background(), "req-123"), "tagged")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "req-123", rec["request_id"])
}
