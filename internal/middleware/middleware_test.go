package middleware

import (
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.Any("/api/tvshows", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(api.RequestIDKey))
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	r := newEngine(RequestID())

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/tvshows", nil))
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/api/tvshows", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = do(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/tvshows", nil)
	req.Header.Set(RequestIDHeader, "bad id\x01")
	w = do(r, req)
	assert.NotEqual(t, "bad id\x01", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := newEngine(CORS([]string{"https://app.example"}))

	req := httptest.NewRequest(http.MethodOptions, "/api/tvshows", nil)
	req.Header.Set("Origin", "https://app.example")
	w := do(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/tvshows", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = do(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = do(newEngine(CORS(nil)), httptest.NewRequest(http.MethodGet, "/api/tvshows", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequireHTTPS(t *testing.T) {
	mw, err := RequireHTTPS([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	r := newEngine(mw)

	t.Run("get redirects", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://shows.example:8080/api/tvshows?query=x", nil)
		w := do(r, req)
		assert.Equal(t, http.StatusMovedPermanently, w.Code)
		assert.Equal(t, "https://shows.example/api/tvshows?query=x", w.Header().Get("Location"))
	})

	t.Run("post rejected", func(t *testing.T) {
		w := do(r, httptest.NewRequest(http.MethodPost, "/api/tvshows", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)

		var body api.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "HTTPS_REQUIRED", body.Error.Code)
	})

	t.Run("tls passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tvshows", nil)
		req.TLS = &tls.ConnectionState{}
		assert.Equal(t, http.StatusOK, do(r, req).Code)
	})

	t.Run("trusted proxy header passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tvshows", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		req.Header.Set("X-Forwarded-Proto", "https")
		assert.Equal(t, http.StatusOK, do(r, req).Code)
	})

	t.Run("untrusted proxy header ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tvshows", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		req.Header.Set("X-Forwarded-Proto", "https")
		assert.Equal(t, http.StatusForbidden, do(r, req).Code)
	})
}

func TestRequireHTTPSInvalidProxy(t *testing.T) {
	_, err := RequireHTTPS([]string{"not-an-ip"})
	assert.Error(t, err)
}

func TestRateLimiterAllowAndRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(60, 2)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.InDelta(t, time.Second, retry, float64(10*time.Millisecond))

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok, "limits are per client")

	now = now.Add(time.Second)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok, "token refilled")
}

func TestRateLimiterSweep(t *testing.T) {
	now := time.Now()
	rl := NewRateLimiter(60, 1)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(5 * time.Minute)
	rl.Allow("b")

	assert.Equal(t, 1, rl.Sweep())
}

func TestRateLimitMiddleware(t *testing.T) {
	r := newEngine(NewRateLimiter(1, 1).Middleware())

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/api/tvshows", nil)).Code)

	w := do(r, httptest.NewRequest(http.MethodGet, "/api/tvshows", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestMetricsAndLoggerPassThrough(t *testing.T) {
	r := newEngine(RequestID(), RequestLogger(), ErrorLogger(), Metrics())

	assert.Equal(t, http.StatusOK, do(r, httptest.NewRequest(http.MethodGet, "/api/tvshows", nil)).Code)
	assert.Equal(t, http.StatusNotFound, do(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil)).Code)
}
