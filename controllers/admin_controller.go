package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/forms"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/store"
	"github.com/autoteile-schmidt/service-portal-api/triage"
	"github.com/autoteile-schmidt/service-portal-api/validation"
)

const (
	msgInvalidCredentials = "Ungültige Anmeldedaten"
	msgTooManyAttempts    = "Zu viele Anmeldeversuche. Bitte später erneut versuchen."
)

// StatusCounter counts records matching a filter.
type StatusCounter interface {
	Count(ctx context.Context, filter store.Filter) (int64, error)
}

// SummarySource is one submission kind on the admin dashboard.
type SummarySource struct {
	Machine triage.Machine
	Repo    StatusCounter
}

// AdminController handles operator sign-in and the dashboard summary.
type AdminController struct {
	auth         *services.AuthService
	sources      []SummarySource
	secureCookie bool
	log          logger.Logger
}

func NewAdminController(auth *services.AuthService, sources []SummarySource, secureCookie bool, log logger.Logger) *AdminController {
	return &AdminController{auth: auth, sources: sources, secureCookie: secureCookie, log: log}
}

func (ctl *AdminController) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/admin/login", ctl.Login)
	public.GET("/admin/setup", ctl.SetupStatus)
	public.POST("/admin/setup", ctl.Setup)
	public.POST("/admin/emergency-access", ctl.EmergencyAccess)
	public.GET("/admin/check-auth", ctl.CheckAuth)
	public.POST("/admin/logout", ctl.Logout)
	admin.GET("/admin/summary", ctl.Summary)
}

// Login handles POST /api/v1/admin/login
func (ctl *AdminController) Login(c *gin.Context) {
	var form forms.AdminLoginForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	session, err := ctl.auth.Login(c.Request.Context(), form.Username, form.Password, c.ClientIP())
	if err != nil {
		ctl.respondAuthError(c, err)
		return
	}
	ctl.startSession(c, session)
}

// SetupStatus handles GET /api/v1/admin/setup
func (ctl *AdminController) SetupStatus(c *gin.Context) {
	required, err := ctl.auth.SetupRequired(c.Request.Context())
	if err != nil {
		ctl.log.Error("auth", "setup status failed", map[string]interface{}{"error": err})
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", msgInternal)
		return
	}
	respondOK(c, gin.H{"setupRequired": required})
}

// Setup handles POST /api/v1/admin/setup. It only works while no operator
// identity exists.
func (ctl *AdminController) Setup(c *gin.Context) {
	var form forms.AdminSetupForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	session, err := ctl.auth.Setup(c.Request.Context(), form.Username, form.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, services.ErrSetupCompleted) {
			respondError(c, http.StatusConflict, "SETUP_COMPLETED", "Die Einrichtung wurde bereits abgeschlossen")
			return
		}
		ctl.log.Error("auth", "admin setup failed", map[string]interface{}{"error": err})
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", msgInternal)
		return
	}
	ctl.startSession(c, session)
}

// EmergencyAccess handles POST /api/v1/admin/emergency-access. The route
// answers 404 unless a break-glass secret is configured.
func (ctl *AdminController) EmergencyAccess(c *gin.Context) {
	var form forms.BreakGlassForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	session, err := ctl.auth.BreakGlass(c.Request.Context(), form.Secret, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		if errors.Is(err, services.ErrBreakGlassDisabled) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", msgNotFound)
			return
		}
		ctl.respondAuthError(c, err)
		return
	}
	ctl.startSession(c, session)
}

// CheckAuth handles GET /api/v1/admin/check-auth
func (ctl *AdminController) CheckAuth(c *gin.Context) {
	token, err := c.Cookie(services.SessionCookie)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	claims, err := ctl.auth.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"username":      claims.Subject,
		"method":        claims.Method,
		"expiresAt":     claims.ExpiresAt.Time,
	})
}

// Logout handles POST /api/v1/admin/logout. It always succeeds.
func (ctl *AdminController) Logout(c *gin.Context) {
	if token, err := c.Cookie(services.SessionCookie); err == nil && token != "" {
		ctl.auth.Revoke(token)
	}
	ctl.setCookie(c, "", -1)
	respondOK(c, gin.H{"authenticated": false})
}

// Summary handles GET /api/v1/admin/summary: record counts per kind and status
func (ctl *AdminController) Summary(c *gin.Context) {
	summary := make(map[string]map[string]int64, len(ctl.sources))
	for _, src := range ctl.sources {
		counts := make(map[string]int64, len(src.Machine.States)+1)
		var total int64
		for _, status := range src.Machine.States {
			n, err := src.Repo.Count(c.Request.Context(), store.Filter{Status: status})
			if err != nil {
				respondStoreError(c, ctl.log, "admin", "summary", err)
				return
			}
			counts[status] = n
			total += n
		}
		counts["total"] = total
		summary[src.Machine.Kind] = counts
	}
	respondOK(c, summary)
}

func (ctl *AdminController) respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", msgInvalidCredentials)
	case errors.Is(err, services.ErrTooManyAttempts):
		respondError(c, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", msgTooManyAttempts)
	default:
		ctl.log.Error("auth", "authentication failed", map[string]interface{}{"error": err})
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", msgInternal)
	}
}

func (ctl *AdminController) startSession(c *gin.Context, session *services.Session) {
	ctl.setCookie(c, session.Token, int(services.SessionTTL/time.Second))
	respondOK(c, gin.H{
		"authenticated": true,
		"expiresAt":     session.ExpiresAt,
	})
}

func (ctl *AdminController) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(services.SessionCookie, value, maxAge, "/", "", ctl.secureCookie, true)
}
