package controllers

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoteile-schmidt/service-portal-api/middleware"
	"github.com/autoteile-schmidt/service-portal-api/services"
)

func newUploadRouter(dir string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctl := NewUploadController(services.NewLocalAttachmentService(dir))
	router := gin.New()
	router.GET("/uploads/:filename", func(c *gin.Context) {
		middleware.SetAdminContext(c, testAdminUser, services.MethodPassword)
	}, ctl.GetUploadedAttachment)
	return router
}

func TestGetUploadedAttachment_Success(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte("%PDF-1.4 fake")
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "beleg.pdf"), content, 0o644))

	w := httptest.NewRecorder()
	newUploadRouter(tmpDir).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/beleg.pdf", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "private, max-age=3600", w.Header().Get("Cache-Control"))
	assert.Equal(t, content, w.Body.Bytes())
}

func TestGetUploadedAttachment_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"missing file", "/uploads/fehlt.png", http.StatusNotFound, "FILE_NOT_FOUND"},
		{"traversal", "/uploads/..secret.pdf", http.StatusBadRequest, "INVALID_FILENAME"},
		{"wrong type", "/uploads/script.js", http.StatusBadRequest, "INVALID_FILE_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newUploadRouter(t.TempDir()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode(t, w).Error.Code)
		})
	}
}

func TestGetUploadedAttachment_RequiresAdmin(t *testing.T) {
	app := newTestApp(t)

	w := app.request(t, http.MethodGet, "/api/v1/uploads/beleg.pdf", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
