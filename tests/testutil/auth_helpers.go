package testutil

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
)

// CreateTestContext creates a test Gin context around req. A nil request
// becomes an empty GET on /.
func CreateTestContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	if req == nil {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// WithSessionCookie returns a copy of req carrying a session cookie named name.
func WithSessionCookie(req *http.Request, name, token string) *http.Request {
	clone := req.Clone(req.Context())
	clone.AddCookie(&http.Cookie{Name: name, Value: token})
	return clone
}
