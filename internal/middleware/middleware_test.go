package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cinema-ticketing-backend/internal/config"
	"cinema-ticketing-backend/internal/metrics"
	"cinema-ticketing-backend/internal/models"
	"cinema-ticketing-backend/internal/repository"
	"cinema-ticketing-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUsers map[uint]*models.User

func (f fakeUsers) FindUserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

type brokenUsers struct{}

func (brokenUsers) FindUserByID(context.Context, uint) (*models.User, error) {
	return nil, errors.New("connection refused")
}

type revokedSet map[string]bool

func (r revokedSet) Revoke(_ context.Context, id string, _ time.Duration) error {
	r[id] = true
	return nil
}

func (r revokedSet) IsRevoked(_ context.Context, id string) (bool, error) {
	return r[id], nil
}

func testTokens(accessExpiry time.Duration) *utils.TokenManager {
	return utils.NewTokenManager(utils.TokenConfig{
		AccessSecret:       "mw-access",
		RefreshSecret:      "mw-refresh",
		AccessTokenExpiry:  accessExpiry,
		RefreshTokenExpiry: time.Hour,
	})
}

func issue(t *testing.T, tm *utils.TokenManager, id uint, role string) *utils.TokenPair {
	t.Helper()
	pair, err := tm.GeneratePair(utils.TokenPayload{UserID: id, Username: "user", Role: role})
	require.NoError(t, err)
	return pair
}

func newGatedRouter(gate gin.HandlerFunc, extra ...gin.HandlerFunc) (*gin.Engine, *bool) {
	reached := false
	r := gin.New()
	handlers := append([]gin.HandlerFunc{gate}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		reached = true
		claims, _ := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID, "role": claims.Role})
	})
	r.GET("/protected", handlers...)
	return r, &reached
}

func doGet(r http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tm := testTokens(15 * time.Minute)
	users := fakeUsers{1: {ID: 1, Username: "user", Role: models.RoleClient}}
	valid := issue(t, tm, 1, models.RoleClient)
	orphan := issue(t, tm, 2, models.RoleClient)
	expired := issue(t, testTokens(-time.Minute), 1, models.RoleClient)
	foreign := issue(t, utils.NewTokenManager(utils.TokenConfig{
		AccessSecret: "other", RefreshSecret: "other-r", AccessTokenExpiry: time.Minute, RefreshTokenExpiry: time.Hour,
	}), 1, models.RoleClient)

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing header", "", http.StatusUnauthorized, "Access token required"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Access token required"},
		{"garbage token", "Bearer not-a-jwt", http.StatusForbidden, "Invalid token"},
		{"wrong secret", "Bearer " + foreign.AccessToken, http.StatusForbidden, "Invalid token"},
		{"refresh token used as access", "Bearer " + valid.RefreshToken, http.StatusForbidden, "Invalid token"},
		{"expired", "Bearer " + expired.AccessToken, http.StatusForbidden, "Token expired"},
		{"deleted user", "Bearer " + orphan.AccessToken, http.StatusUnauthorized, "User not found or deactivated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, reached := newGatedRouter(AuthMiddleware(tm, users, nil))
			w := doGet(r, tt.header)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
			assert.Contains(t, w.Body.String(), `"success":false`)
			assert.False(t, *reached, "handler must not run")
		})
	}

	t.Run("valid token", func(t *testing.T) {
		r, reached := newGatedRouter(AuthMiddleware(tm, users, nil))
		w := doGet(r, "Bearer "+valid.AccessToken)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, *reached)
		assert.JSONEq(t, `{"userId":1,"role":"Client"}`, w.Body.String())
	})
}

func TestAuthMiddleware_Revoked(t *testing.T) {
	tm := testTokens(15 * time.Minute)
	pair := issue(t, tm, 1, models.RoleClient)
	claims, err := tm.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	deny := revokedSet{claims.ID: true}
	r, reached := newGatedRouter(AuthMiddleware(tm, fakeUsers{1: {ID: 1}}, deny))
	w := doGet(r, "Bearer "+pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token has been revoked")
	assert.False(t, *reached)
}

func TestAuthMiddleware_StoreError(t *testing.T) {
	tm := testTokens(15 * time.Minute)
	pair := issue(t, tm, 1, models.RoleClient)

	r, reached := newGatedRouter(AuthMiddleware(tm, brokenUsers{}, nil))
	w := doGet(r, "Bearer "+pair.AccessToken)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.False(t, *reached)
}

func TestAuthorize(t *testing.T) {
	tm := testTokens(15 * time.Minute)
	users := fakeUsers{
		1: {ID: 1, Role: models.RoleAdmin},
		2: {ID: 2, Role: models.RoleClient},
	}

	r, _ := newGatedRouter(AuthMiddleware(tm, users, nil), Authorize(models.RoleAdmin))

	w := doGet(r, "Bearer "+issue(t, tm, 1, models.RoleAdmin).AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGet(r, "Bearer "+issue(t, tm, 2, models.RoleClient).AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied. Required roles: Admin")

	// lowercase role is a different role
	w = doGet(r, "Bearer "+issue(t, tm, 1, "admin").AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthorize_WithoutGate(t *testing.T) {
	r := gin.New()
	r.GET("/protected", Authorize(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doGet(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authentication required")
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS(config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestLogger(base))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, reg)

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/users/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/users/1", "/users/2", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	count, err := testutil.GatherAndCount(reg, "cinema_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
