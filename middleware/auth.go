package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/services"
)

const (
	adminUsernameKey = "admin_username"
	sessionMethodKey = "session_method"

	// LoginPath is where browsers without a session are sent.
	LoginPath = "/admin/login"
)

// SessionVerifier validates admin session tokens.
type SessionVerifier interface {
	Verify(token string) (*services.SessionClaims, error)
}

// RequireAdmin guards admin routes with the session cookie. API clients get
// 401 {"authenticated": false}; browsers asking for HTML are redirected to
// the login page.
func RequireAdmin(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(services.SessionCookie)
		if err != nil || token == "" {
			reject(c)
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			reject(c)
			return
		}

		c.Set(adminUsernameKey, claims.Subject)
		c.Set(sessionMethodKey, claims.Method)
		c.Next()
	}
}

func reject(c *gin.Context) {
	if wantsHTML(c.Request) {
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"authenticated": false})
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// GetAdminUsername returns the operator behind the current request.
func GetAdminUsername(c *gin.Context) (string, error) {
	v, exists := c.Get(adminUsernameKey)
	if !exists {
		return "", &AuthError{Code: "MISSING_ADMIN", Message: "Admin not found in context"}
	}

	username, ok := v.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_ADMIN", Message: "Admin username is not a string"}
	}

	return username, nil
}

// GetSessionMethod returns how the current session was obtained.
func GetSessionMethod(c *gin.Context) string {
	return c.GetString(sessionMethodKey)
}

// SetAdminContext marks a request as authenticated, for handlers mounted
// without RequireAdmin in tests.
func SetAdminContext(c *gin.Context, username, method string) {
	c.Set(adminUsernameKey, username)
	c.Set(sessionMethodKey, method)
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
