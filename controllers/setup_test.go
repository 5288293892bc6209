package controllers

import (
	"bytes"
	"encoding/json"
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
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/popup"
	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/tests/testutil"
)

const (
	testAdminUser     = "werkstatt"
	testAdminPassword = "richtig-geheim-123"
	testBreakGlass    = "notfall-schluessel-2030"
)

// fixedNow is a Wednesday morning in Berlin.
var fixedNow = time.Date(2030, 1, 9, 10, 0, 0, 0, time.UTC)

type testApp struct {
	router     *gin.Engine
	db         *gorm.DB
	cfg        *config.Config
	auth       *services.AuthService
	notifier   *services.MockNotifier
	dispatcher *services.Dispatcher
	s3         *services.MockS3Service
	handlers   *Handlers
	logs       *observer.ObservedLogs
}

func newTestApp(t *testing.T, opts ...func(*config.Config)) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		GoEnv:            "test",
		Timezone:         "Europe/Berlin",
		AdminUsername:    testAdminUser,
		AdminPassword:    testAdminPassword,
		SessionSecret:    "controller-test-secret",
		BreakGlassSecret: testBreakGlass,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))
	db := testutil.NewTestDB(t)

	app := &testApp{
		db:       db,
		cfg:      cfg,
		auth:     services.NewAuthService(db, cfg, log),
		notifier: services.NewMockNotifier(),
		s3:       services.NewMockS3Service(),
		logs:     logs,
	}
	app.dispatcher = services.NewDispatcher(app.notifier, time.Second, log)

	app.router = gin.New()
	app.handlers = Mount(app.router.Group("/api/v1"), Dependencies{
		DB:           db,
		Log:          log,
		Auth:         app.auth,
		Dispatcher:   app.dispatcher,
		Attachments:  services.NewS3AttachmentService(app.s3),
		LocalFiles:   services.NewLocalAttachmentService(t.TempDir()),
		History:      popup.NewMemoryStore(),
		Location:     cfg.Location(),
		StoreTimeout: time.Second,
	})
	app.handlers.Appointments.Now = func() time.Time { return fixedNow }
	return app
}

func (a *testApp) request(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// login signs in with the configured operator and returns the session cookie.
func (a *testApp) login(t *testing.T) *http.Cookie {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/v1/admin/login", map[string]string{
		"username": testAdminUser,
		"password": testAdminPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	return cookie
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == services.SessionCookie {
			return c
		}
	}
	return nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, out))
}
