// Package harness wires the complete API on an in-memory database for the
// integration and acceptance suites.
package harness

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/autoteile-schmidt/service-portal-api/config"
	"github.com/autoteile-schmidt/service-portal-api/controllers"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/middleware"
	"github.com/autoteile-schmidt/service-portal-api/popup"
	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/tests/testutil"
)

const (
	AdminUser     = "werkstatt"
	AdminPassword = "richtig-geheim-123"
	BreakGlass    = "notfall-schluessel-2030"
)

// App is a fully mounted router plus the fakes behind it.
type App struct {
	Router     *gin.Engine
	DB         *gorm.DB
	Config     *config.Config
	Notifier   *services.MockNotifier
	Dispatcher *services.Dispatcher
	S3         *services.MockS3Service
	History    *popup.MemoryStore
	Handlers   *controllers.Handlers
	Logs       *observer.ObservedLogs
}

// New builds an App. Options adjust the config before anything is wired.
func New(t *testing.T, opts ...func(*config.Config)) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutil.MustSetTestEnvironment(t)

	cfg := &config.Config{
		GoEnv:            "test",
		Timezone:         "Europe/Berlin",
		AdminUsername:    AdminUser,
		AdminPassword:    AdminPassword,
		SessionSecret:    "suite-secret",
		BreakGlassSecret: BreakGlass,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))
	db := testutil.NewTestDB(t)

	app := &App{
		DB:       db,
		Config:   cfg,
		Notifier: services.NewMockNotifier(),
		S3:       services.NewMockS3Service(),
		History:  popup.NewMemoryStore(),
		Logs:     logs,
	}
	app.Dispatcher = services.NewDispatcher(app.Notifier, time.Second, log)
	t.Cleanup(app.Dispatcher.Wait)

	app.Router = gin.New()
	require.NoError(t, app.Router.SetTrustedProxies(cfg.TrustedProxies))
	app.Router.Use(middleware.Recovery(log), middleware.RequestLogger(log))
	app.Handlers = controllers.Mount(app.Router.Group("/api/v1"), controllers.Dependencies{
		DB:           db,
		Log:          log,
		Auth:         services.NewAuthService(db, cfg, log),
		Dispatcher:   app.Dispatcher,
		Attachments:  services.NewS3AttachmentService(app.S3),
		LocalFiles:   services.NewLocalAttachmentService(t.TempDir()),
		History:      app.History,
		Location:     cfg.Location(),
		StoreTimeout: time.Second,
	})
	return app
}

// Do sends a JSON request. A string body is sent verbatim.
func (a *App) Do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return a.Send(req, cookies...)
}

// Send serves a prepared request.
func (a *App) Send(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

// Login signs in as the configured operator and returns the session cookie.
func (a *App) Login(t *testing.T) *http.Cookie {
	t.Helper()
	w := a.Do(t, http.MethodPost, "/api/v1/admin/login", map[string]string{
		"username": AdminUser,
		"password": AdminPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := Cookie(w, services.SessionCookie)
	require.NotNil(t, cookie)
	return cookie
}

// Cookie finds a cookie set by the response.
func Cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Envelope is the response wrapper every endpoint writes.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

// Decode reads the envelope and, when out is non-nil, its data.
func Decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}
