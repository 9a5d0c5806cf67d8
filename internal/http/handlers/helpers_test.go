package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storefront/catalogapi/internal/http/handlers"
	"github.com/storefront/catalogapi/internal/http/middlewares"
	"github.com/storefront/catalogapi/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	Error      string          `json:"error"`
	Pagination *struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

// as pretends RequireAuth already ran for the given identity.
func as(userID int64, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, userID)
		c.Set(middlewares.CtxRole, role)
		c.Next()
	}
}

func newEngine(exposeErrors bool) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.ExposeErrors(exposeErrors))
	r.NoRoute(handlers.NotFound)
	return r
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("response is not an envelope: %v body=%s", err, w.Body.String())
		}
	}
	return w, env
}

func ptr[T any](v T) *T { return &v }
