package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/catalogapi/internal/auth"
	"github.com/storefront/catalogapi/internal/config"
	"github.com/storefront/catalogapi/internal/db"
	apphttp "github.com/storefront/catalogapi/internal/http"
	"github.com/storefront/catalogapi/internal/observability"
	"github.com/storefront/catalogapi/internal/ratelimit"
	"github.com/storefront/catalogapi/internal/repo/memory"
	"github.com/storefront/catalogapi/internal/security"
	"github.com/storefront/catalogapi/internal/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	mem    *memory.DB
	tokens *auth.Manager
}

func testConfig() config.Config {
	return config.Config{
		Env:             config.EnvTest,
		JWTSecret:       "test-secret-key",
		JWTTTL:          time.Hour,
		BcryptCost:      bcrypt.MinCost,
		RateLimitWindow: time.Minute,
		RateLimitMax:    1000,
		MaxBodyBytes:    1 << 20,
		AdminEmail:      "admin@example.com",
		AdminPassword:   "Admin123",
		AdminName:       "Admin",
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	mem := memory.New()
	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	_, err := db.EnsureAdminUser(context.Background(), mem.Users(), hasher, cfg)
	require.NoError(t, err)

	router := apphttp.NewRouter(apphttp.Deps{
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Cfg:       cfg,
		Users:     mem.Users(),
		Products:  mem.Products(),
		Hasher:    hasher,
		Tokens:    tokens,
		RateStore: ratelimit.NewMemoryStore(),
		Prom:      observability.NewProm(prometheus.NewRegistry()),
	})

	return &testServer{t: t, router: router, mem: mem, tokens: tokens}
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Errors     []string        `json:"errors"`
	RetryAfter int             `json:"retryAfter"`
	Pagination struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

type session struct {
	ID    int64
	Token string
}

func (s *testServer) register(name, email string) session {
	s.t.Helper()

	w, env := s.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"name": name, "email": email, "password": "Secret123",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		User  struct{ ID int64 } `json:"user"`
		Token string             `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return session{ID: data.User.ID, Token: data.Token}
}

func (s *testServer) login(email, password string) session {
	s.t.Helper()

	w, env := s.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var data struct {
		User  struct{ ID int64 } `json:"user"`
		Token string             `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return session{ID: data.User.ID, Token: data.Token}
}

func (s *testServer) createProduct(token string, body map[string]any) string {
	s.t.Helper()

	w, env := s.do(http.MethodPost, "/api/products", token, body)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var data struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &data))
	return data.ID
}

func productBody(name string, price float64, category string, stock int) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "Description for " + name,
		"price":       price,
		"category":    category,
		"stock":       stock,
	}
}

func TestHealthAndWelcome(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	w, _ = s.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, env.Message, "Welcome")

	w, _ = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)

	w, env := s.do(http.MethodPatch, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Route PATCH /api/nowhere not found", env.Message)
}

func TestRegistrationAndLogin(t *testing.T) {
	s := newTestServer(t, nil)

	ada := s.register("Ada Lovelace", "ada@example.com")
	assert.NotZero(t, ada.ID)

	// stored hash is not the password and still verifies
	stored, err := s.mem.Users().GetByID(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", stored.PasswordHash)
	assert.NoError(t, security.NewHasher(bcrypt.MinCost).Compare(stored.PasswordHash, "Secret123"))
	assert.Nil(t, stored.LastLogin)

	// duplicate is rejected and nothing new is stored
	w, _ := s.do(http.MethodPost, "/api/users", "", map[string]string{
		"name": "Ada Again", "email": "ADA@example.com", "password": "Secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	_, total, err := s.mem.Users().List(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total, "admin plus ada")

	sess := s.login("ada@example.com", "Secret123")
	claims, err := s.tokens.VerifyToken(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, ada.ID, claims.UserID)

	stored, err = s.mem.Users().GetByID(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)

	w1, _ := s.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "ada@example.com", "password": "Wrong123"})
	w2, _ := s.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "nobody@example.com", "password": "Wrong123"})
	assert.Equal(t, http.StatusUnauthorized, w1.Code)
	assert.Equal(t, w1.Body.String(), w2.Body.String())
}

func TestProfileRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)

	w, _ := s.do(http.MethodGet, "/api/users/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = s.do(http.MethodGet, "/api/users/profile", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ada := s.register("Ada Lovelace", "ada@example.com")
	w, env := s.do(http.MethodGet, "/api/users/profile", ada.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "ada@example.com")
	assert.NotContains(t, string(env.Data), "Secret123")
	assert.NotContains(t, string(env.Data), "password")

	w, env = s.do(http.MethodPut, "/api/users/profile", ada.Token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, env.Errors)
}

func TestUserAdministration(t *testing.T) {
	s := newTestServer(t, nil)

	admin := s.login("admin@example.com", "Admin123")
	ada := s.register("Ada Lovelace", "ada@example.com")
	bob := s.register("Bob Builder", "bob@example.com")

	w, _ := s.do(http.MethodGet, "/api/users", ada.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(http.MethodGet, "/api/users?limit=2", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, env.Pagination.Total)
	assert.Equal(t, 2, env.Pagination.Pages)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", bob.ID), ada.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/api/users/not-a-number", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", bob.ID), admin.Token, map[string]string{"name": "Robert"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Robert")

	// a user who owns products cannot be removed
	s.createProduct(bob.Token, productBody("Hammer", 12, "home", 3))
	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", bob.ID), admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// hard delete
	w, _ = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", ada.ID), ada.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	_, err := s.mem.Users().GetByID(context.Background(), ada.ID)
	assert.Error(t, err)

	w, _ = s.do(http.MethodGet, fmt.Sprintf("/api/users/%d", ada.ID), admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t, nil)

	owner := s.register("Olive Owner", "olive@example.com")
	other := s.register("Oscar Other", "oscar@example.com")
	admin := s.login("admin@example.com", "Admin123")

	w, _ := s.do(http.MethodPost, "/api/products", "", productBody("Phone", 99, "electronics", 5))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	id := s.createProduct(owner.Token, productBody("Phone", 99, "Electronics", 60))

	w, env := s.do(http.MethodGet, "/api/products/"+id, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		Category        string  `json:"category"`
		InStock         bool    `json:"inStock"`
		DiscountedPrice float64 `json:"discountedPrice"`
		Owner           struct {
			Email string `json:"email"`
		} `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, "electronics", view.Category)
	assert.True(t, view.InStock)
	assert.InDelta(t, 89.1, view.DiscountedPrice, 1e-9)
	assert.Equal(t, "olive@example.com", view.Owner.Email)

	w, _ = s.do(http.MethodPut, "/api/products/"+id, other.Token, map[string]any{"stock": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodPut, "/api/products/"+id, owner.Token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPut, "/api/products/"+id, admin.Token, map[string]any{"stock": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"inStock":false`)

	w, _ = s.do(http.MethodDelete, "/api/products/"+id, other.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodDelete, "/api/products/"+id, owner.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// gone from every read path, but still stored
	w, _ = s.do(http.MethodGet, "/api/products/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	_, env = s.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, 0, env.Pagination.Total)
	_, env = s.do(http.MethodGet, "/api/products/category/electronics", "", nil)
	assert.Equal(t, 0, env.Pagination.Total)
	w, _ = s.do(http.MethodDelete, "/api/products/"+id, owner.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/api/products/12345", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductValidationListsEveryViolation(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.register("Olive Owner", "olive@example.com")

	w, env := s.do(http.MethodPost, "/api/products", owner.Token, map[string]any{
		"name":        "X",
		"description": "tiny",
		"price":       0,
		"category":    "weapons",
		"stock":       -5,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, env.Errors, 5, env.Errors)
}

func TestProductListingFilterAndPagination(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.register("Olive Owner", "olive@example.com")

	// 12 electronics in [10,20], two outside the range, one book, one soft-deleted
	for i := 0; i < 12; i++ {
		s.createProduct(owner.Token, productBody(fmt.Sprintf("Cable %02d", i), 10+float64(i)*0.5, "electronics", 1))
	}
	s.createProduct(owner.Token, productBody("Cheap cable", 5, "electronics", 1))
	s.createProduct(owner.Token, productBody("Fancy cable", 25, "electronics", 1))
	s.createProduct(owner.Token, productBody("Cable book", 15, "books", 1))
	gone := s.createProduct(owner.Token, productBody("Gone cable", 15, "electronics", 1))
	w, _ := s.do(http.MethodDelete, "/api/products/"+gone, owner.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(http.MethodGet, "/api/products?category=electronics&minPrice=10&maxPrice=20&page=2&limit=5&sortBy=price&sortOrder=asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12, env.Pagination.Total)
	assert.Equal(t, 3, env.Pagination.Pages)

	var items []struct {
		Category string  `json:"category"`
		Price    float64 `json:"price"`
		IsActive bool    `json:"isActive"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 5)
	for i, it := range items {
		assert.Equal(t, "electronics", it.Category)
		assert.True(t, it.IsActive)
		assert.InDelta(t, 12.5+float64(i)*0.5, it.Price, 1e-9)
	}

	_, env = s.do(http.MethodGet, "/api/products?page=99", "", nil)
	assert.Equal(t, 15, env.Pagination.Total)
	assert.Equal(t, "[]", string(env.Data))

	w, _ = s.do(http.MethodGet, "/api/products?sortBy=secret", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, env = s.do(http.MethodGet, "/api/products?search=fancy", "", nil)
	assert.Equal(t, 1, env.Pagination.Total)
}

func TestProductListing_ExtremePageStaysUsable(t *testing.T) {
	s := newTestServer(t, nil)
	owner := s.register("Olive Owner", "olive@example.com")
	s.createProduct(owner.Token, productBody("Phone", 99, "electronics", 5))

	for _, path := range []string{
		"/api/products?page=9223372036854775807",
		"/api/products/category/electronics?page=9223372036854775807",
		"/api/products?page=9223372036854775807&limit=1",
	} {
		w, env := s.do(http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, "[]", string(env.Data), path)
		assert.Equal(t, 1, env.Pagination.Total, path)
	}

	admin := s.login("admin@example.com", "Admin123")
	w, env := s.do(http.MethodGet, "/api/users?page=9223372036854775807", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(env.Data))

	// writes still go through afterwards
	s.createProduct(owner.Token, productBody("Tablet", 199, "electronics", 5))
	s.login("olive@example.com", "Secret123")
}

func TestRegister_RejectsPasswordOverBcryptLimit(t *testing.T) {
	s := newTestServer(t, nil)

	long := "Aa1" + strings.Repeat("x", 77)
	w, env := s.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Ada Lovelace", "email": "ada@example.com", "password": long,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, []string{"password must be at most 72 bytes"}, env.Errors)

	ada := s.register("Ada Lovelace", "ada@example.com")
	w, _ = s.do(http.MethodPut, "/api/users/profile", ada.Token, map[string]string{"password": long})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d", ada.ID), ada.Token, map[string]string{"password": long})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RateLimitMax = 2 })

	for i := 0; i < 2; i++ {
		w, _ := s.do(http.MethodGet, "/api/products", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w, env := s.do(http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Greater(t, env.RetryAfter, 0)

	// health checks are not throttled
	w, _ = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireJSON(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader("email=a"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestPanicIsRecovered(t *testing.T) {
	cfg := testConfig()
	router := apphttp.NewRouter(apphttp.Deps{
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Cfg:       cfg,
		Users:     nil,
		Products:  memory.New().Products(),
		Hasher:    security.NewHasher(bcrypt.MinCost),
		Tokens:    auth.NewManager(cfg.JWTSecret, cfg.JWTTTL),
		RateStore: ratelimit.NewMemoryStore(),
	})

	// nil user store: the handler panics on first use
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(`{"email":"a@example.com","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "server keeps serving after a panic")
}
