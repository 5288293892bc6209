package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/tests/testutil"
)

type fakeVerifier map[string]*services.SessionClaims

func (f fakeVerifier) Verify(token string) (*services.SessionClaims, error) {
	claims, ok := f[token]
	if !ok {
		return nil, services.ErrInvalidSession
	}
	return claims, nil
}

func newGuardedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	verifier := fakeVerifier{"good": {Method: services.MethodPassword}}
	verifier["good"].Subject = "werkstatt"

	router := gin.New()
	router.GET("/admin/summary", RequireAdmin(verifier), func(c *gin.Context) {
		username, err := GetAdminUsername(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": username, "method": GetSessionMethod(c)})
	})
	return router
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		accept     string
		wantStatus int
		wantBody   string
		wantLoc    string
	}{
		{
			name:       "valid session",
			cookie:     "good",
			wantStatus: http.StatusOK,
			wantBody:   `{"method":"password","username":"werkstatt"}`,
		},
		{
			name:       "missing cookie",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"authenticated":false}`,
		},
		{
			name:       "forged cookie",
			cookie:     "authenticated",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"authenticated":false}`,
		},
		{
			name:       "browser is redirected",
			accept:     "text/html,application/xhtml+xml",
			wantStatus: http.StatusFound,
			wantLoc:    LoginPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newGuardedRouter()
			req := httptest.NewRequest(http.MethodGet, "/admin/summary", nil)
			if tt.cookie != "" {
				req = testutil.WithSessionCookie(req, services.SessionCookie, tt.cookie)
			}
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			if tt.wantLoc != "" {
				assert.Equal(t, tt.wantLoc, w.Header().Get("Location"))
			}
		})
	}
}

func TestGetAdminUsername(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		setupFunc func(*gin.Context)
		want      string
		wantErr   bool
	}{
		{
			name:      "set by middleware",
			setupFunc: func(c *gin.Context) { SetAdminContext(c, "admin", services.MethodSetup) },
			want:      "admin",
		},
		{
			name:      "not in context",
			setupFunc: func(c *gin.Context) {},
			wantErr:   true,
		},
		{
			name:      "wrong type",
			setupFunc: func(c *gin.Context) { c.Set(adminUsernameKey, 42) },
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := testutil.CreateTestContext(nil)
			tt.setupFunc(c)

			got, err := GetAdminUsername(c)
			if tt.wantErr {
				require.Error(t, err)
				var authErr *AuthError
				assert.ErrorAs(t, err, &authErr)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
