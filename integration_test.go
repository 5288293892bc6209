package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/autoteile-schmidt/service-portal-api/config"
	"github.com/autoteile-schmidt/service-portal-api/controllers"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/popup"
	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/tests/testutil"
)

const (
	testOrigin        = "http://localhost:3000"
	testAdminUser     = "werkstatt"
	testAdminPassword = "richtig-geheim-123"
)

// newTestRouter creates the full router on an in-memory database
func newTestRouter(t *testing.T, opts ...func(*config.Config)) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	previous := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(previous) })

	cfg := &config.Config{
		GoEnv:              "test",
		CorsAllowedOrigins: []string{testOrigin},
		Timezone:           "Europe/Berlin",
		AdminUsername:      testAdminUser,
		AdminPassword:      testAdminPassword,
		SessionSecret:      "integration-secret",
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := logger.NewNop()
	dispatcher := services.NewDispatcher(services.NewNoopNotifier(log), time.Second, log)
	t.Cleanup(dispatcher.Wait)

	local := services.NewLocalAttachmentService(t.TempDir())
	router := setupRouter(cfg, log, controllers.Dependencies{
		DB:           db,
		Log:          log,
		Auth:         services.NewAuthService(db, cfg, log),
		Dispatcher:   dispatcher,
		Attachments:  local,
		LocalFiles:   local,
		History:      popup.NewMemoryStore(),
		Location:     cfg.Location(),
		StoreTimeout: time.Second,
	})
	return router, db
}

// TestHealthEndpointIntegration tests the /api/v1/health endpoint with full routing
func TestHealthEndpointIntegration(t *testing.T) {
	router, _ := newTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "Expected status 200 OK")

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err, "Response should be valid JSON")
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "Service portal API is running", response["message"])
}

// TestHealthEndpointMethod tests that only GET method is allowed
func TestHealthEndpointMethod(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, method := range []string{"POST", "PUT", "DELETE"} {
		req, _ := http.NewRequest(method, "/api/v1/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s should not be allowed", method)
	}
}

// TestAPIV1Prefix tests that the endpoint requires /api/v1 prefix
func TestAPIV1Prefix(t *testing.T) {
	router, _ := newTestRouter(t)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "Endpoint should require /api/v1 prefix")

	req, _ = http.NewRequest("GET", "/api/v1/health", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "Endpoint should work with /api/v1 prefix")
}

// TestDatabaseStatusListsTables checks the status endpoint on the test database
func TestDatabaseStatusListsTables(t *testing.T) {
	router, _ := newTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/database/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var response struct {
		Success bool     `json:"success"`
		Tables  []string `json:"tables"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Contains(t, response.Tables, "complaints")
	assert.Contains(t, response.Tables, "appointments")
}

// TestCORSPreflight tests that the configured frontend may send credentials
func TestCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t)

	req, _ := http.NewRequest("OPTIONS", "/api/v1/contact", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req, _ = http.NewRequest("OPTIONS", "/api/v1/contact", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

// failedLogins sends n wrong passwords, each claiming a different client
// address in X-Forwarded-For, and counts the status codes.
func failedLogins(router *gin.Engine, n int) map[int]int {
	codes := make(map[int]int)
	for i := 0; i < n; i++ {
		body := bytes.NewBufferString(`{"username":"werkstatt","password":"falsch"}`)
		req, _ := http.NewRequest("POST", "/api/v1/admin/login", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.RemoteAddr = "198.51.100.7:40000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes[w.Code]++
	}
	return codes
}

// TestLoginThrottleIgnoresForwardedFor checks that a client cannot dodge the
// login throttle by rotating X-Forwarded-For
func TestLoginThrottleIgnoresForwardedFor(t *testing.T) {
	router, _ := newTestRouter(t)

	codes := failedLogins(router, 20)

	assert.Equal(t, 5, codes[http.StatusUnauthorized])
	assert.Equal(t, 15, codes[http.StatusTooManyRequests])
}

// TestLoginThrottleUsesForwardedForFromTrustedProxy checks that behind a
// configured proxy every forwarded client is throttled on its own
func TestLoginThrottleUsesForwardedForFromTrustedProxy(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *config.Config) {
		cfg.TrustedProxies = []string{"198.51.100.7"}
	})

	codes := failedLogins(router, 20)

	assert.Equal(t, 20, codes[http.StatusUnauthorized])
	assert.Zero(t, codes[http.StatusTooManyRequests])
}

// TestHealthEndpointHeaders tests that proper headers are set
func TestHealthEndpointHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	req, _ := http.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}
