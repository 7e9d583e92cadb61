package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protectedRouter(roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/ledger", RequireRole(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUserID(c))
	})
	return r
}

func TestRequireRole(t *testing.T) {
	InitAuth(testSecret)
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		cookie string
		status int
		body   string
	}{
		{name: "missing token", status: http.StatusUnauthorized},
		{name: "malformed header", header: "Token abc", status: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": "u1", "role": RoleManager, "exp": exp}), status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u1", "role": RoleManager, "exp": time.Now().Add(-time.Hour).Unix()}), status: http.StatusUnauthorized},
		{name: "no role claim", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u1", "exp": exp}), status: http.StatusForbidden},
		{name: "role not allowed", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u1", "role": RoleCashier, "exp": exp}), status: http.StatusForbidden},
		{name: "allowed role", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "u1", "role": RoleManager, "exp": exp}), status: http.StatusOK, body: "u1"},
		{name: "admin always allowed", header: "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "root", "role": RoleAdmin, "exp": exp}), status: http.StatusOK, body: "root"},
		{name: "cookie", cookie: signToken(t, testSecret, jwt.MapClaims{"sub": "u2", "role": RoleManager, "exp": exp}), status: http.StatusOK, body: "u2"},
	}

	router := protectedRouter(RoleManager)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/ledger", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "access_token", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRateLimiterPerCaller(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := gin.New()
	r.GET("/invoices", func(c *gin.Context) {
		if u := c.GetHeader("X-Test-User"); u != "" {
			c.Set(ContextUserID, u)
		}
		c.Next()
	}, rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	call := func(user string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
		if user != "" {
			req.Header.Set("X-Test-User", user)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, call("cashier-1").Code)
	assert.Equal(t, http.StatusCreated, call("cashier-1").Code)
	limited := call("cashier-1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "1", limited.Header().Get("Retry-After"))
	assert.Equal(t, "2", limited.Header().Get("X-RateLimit-Limit"))

	// another user and anonymous callers have their own buckets
	assert.Equal(t, http.StatusCreated, call("cashier-2").Code)
	assert.Equal(t, http.StatusCreated, call("").Code)
}

func TestRateLimiterSweepsIdleCallers(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.getLimiter("a")
	now = now.Add(rl.entryTTL + time.Minute)
	rl.getLimiter("b")

	assert.NotContains(t, rl.limiters, "a")
	assert.Contains(t, rl.limiters, "b")
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	log, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "req-42", hook.LastEntry().Data["request_id"])
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
