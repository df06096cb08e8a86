package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/seasontracker/internal/apiroutes"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/modules/modulemanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticHealth []modulemanager.HealthStatus

func (s staticHealth) HealthReport(context.Context) []modulemanager.HealthStatus { return s }

func get(r *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAPIRootHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	routes := apiroutes.New()
	routes.Register(apiroutes.APIRoute{Path: "/api", Method: "GET", Description: "API root discovery."})
	routes.Register(apiroutes.APIRoute{Path: "/api/tvshows", Method: "GET", Description: "List TV shows"})
	routes.Register(apiroutes.APIRoute{Path: "/api/tvshows/:id", Method: "PUT", Description: "Update"})
	routes.Register(apiroutes.APIRoute{Path: "/api/watchlist", Method: "GET", Description: "Watch list"})
	routes.Register(apiroutes.APIRoute{Path: "/metrics", Method: "GET", Description: "Metrics"})

	r := gin.New()
	r.GET("/api", APIRootHandler(routes))

	w, body := get(r, "/api")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", body["status"])

	endpoints, ok := body["endpoints"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"self":      "/api",
		"tvshows":   "/api/tvshows",
		"watchlist": "/api/watchlist",
	}, endpoints)

	registered, ok := body["registered_routes"].([]interface{})
	require.True(t, ok)
	assert.Len(t, registered, 5)
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	healthy := staticHealth{{Module: "system.tvshows", Status: modulemanager.HealthStateHealthy}}
	r := gin.New()
	r.GET("/health", NewHealthHandler(nil, healthy, "test").HandleHealthCheck)
	w, body := get(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])

	sick := staticHealth{
		{Module: "system.tvshows", Status: modulemanager.HealthStateHealthy},
		{Module: "system.watchlist", Status: modulemanager.HealthStateUnhealthy, Message: "db gone"},
	}
	r = gin.New()
	r.GET("/health", NewHealthHandler(nil, sick, "test").HandleHealthCheck)
	w, body = get(r, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestDatabaseHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := database.OpenInMemory()
	require.NoError(t, err)

	r := gin.New()
	r.GET("/health/db", NewHealthHandler(db, nil, "test").HandleDatabaseHealth)

	w, body := get(r, "/health/db")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Contains(t, body, "connection_pool")

	require.NoError(t, database.Close(db))
	w, body = get(r, "/health/db")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
}

func TestSystemHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health/system", NewHealthHandler(nil, nil, "test").HandleSystemHealth)

	w, body := get(r, "/health/system")
	require.Equal(t, http.StatusOK, w.Code)
	system, ok := body["system"].(map[string]interface{})
	require.True(t, ok)
	assert.Greater(t, system["cpu_count"], float64(0))
	assert.Greater(t, system["goroutines"], float64(0))
	assert.Greater(t, system["memory_total"], float64(0))
}
