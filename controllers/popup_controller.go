package controllers

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/autoteile-schmidt/service-portal-api/forms"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/popup"
	"github.com/autoteile-schmidt/service-portal-api/store"
	"github.com/autoteile-schmidt/service-portal-api/validation"
)

const (
	// VisitorCookie identifies a browser across visits for frequency capping.
	VisitorCookie = "popup_visitor"
	visitorMaxAge = 400 * 24 * time.Hour
)

var campaignID = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,63}$`)

// PopupController evaluates popup campaigns for visitors and lets admins
// configure them.
type PopupController struct {
	campaigns    store.Repository[models.PopupCampaign]
	tracker      *popup.Tracker
	secureCookie bool
	log          logger.Logger
}

func NewPopupController(campaigns store.Repository[models.PopupCampaign], tracker *popup.Tracker, secureCookie bool, log logger.Logger) *PopupController {
	return &PopupController{campaigns: campaigns, tracker: tracker, secureCookie: secureCookie, log: log}
}

func (ctl *PopupController) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/popup/:id/evaluate", ctl.Evaluate)
	admin.GET("/admin/popup-campaigns", ctl.List)
	admin.GET("/admin/popup-campaigns/:id", ctl.Get)
	admin.PUT("/admin/popup-campaigns/:id", ctl.Put)
}

// Evaluate handles POST /api/v1/popup/:id/evaluate. A visitor without the
// cookie gets a fresh id.
func (ctl *PopupController) Evaluate(c *gin.Context) {
	visitor, err := c.Cookie(VisitorCookie)
	if _, perr := uuid.Parse(visitor); err != nil || perr != nil {
		visitor = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(VisitorCookie, visitor, int(visitorMaxAge/time.Second), "/", "", ctl.secureCookie, true)
	}

	decision, err := ctl.tracker.Evaluate(c.Request.Context(), c.Param("id"), visitor)
	if err != nil {
		if errors.Is(err, popup.ErrCampaignNotFound) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", msgNotFound)
			return
		}
		ctl.log.Error("popup", "evaluation failed", map[string]interface{}{"campaign": c.Param("id"), "error": err})
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", msgInternal)
		return
	}
	respondOK(c, decision)
}

// List handles GET /api/v1/admin/popup-campaigns
func (ctl *PopupController) List(c *gin.Context) {
	campaigns, err := ctl.campaigns.List(c.Request.Context(), store.Filter{})
	if err != nil {
		respondStoreError(c, ctl.log, "popup", "list", err)
		return
	}
	respondOK(c, campaigns)
}

// Get handles GET /api/v1/admin/popup-campaigns/:id
func (ctl *PopupController) Get(c *gin.Context) {
	campaign, err := ctl.campaigns.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, ctl.log, "popup", "get", err)
		return
	}
	respondOK(c, campaign)
}

// Put handles PUT /api/v1/admin/popup-campaigns/:id, creating the campaign
// when it does not exist yet. The creation time, which the duration counts
// from, is kept on updates.
func (ctl *PopupController) Put(c *gin.Context) {
	id := c.Param("id")
	if !campaignID.MatchString(id) {
		respondValidation(c, validation.New(map[string]string{"id": "Ungültige Kennung"}))
		return
	}

	var form forms.PopupCampaignForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}
	ctx := c.Request.Context()

	_, err := ctl.campaigns.Get(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		campaign := form.ToModel(id)
		if err := ctl.campaigns.Create(ctx, campaign); err != nil {
			respondStoreError(c, ctl.log, "popup", "create", err)
			return
		}
		ctl.log.Info("popup", "campaign created", map[string]interface{}{"id": id})
		respondOK(c, campaign)
		return
	case err != nil:
		respondStoreError(c, ctl.log, "popup", "get", err)
		return
	}

	updated, err := ctl.campaigns.Update(ctx, id, store.Patch{
		"title":         form.Title,
		"body":          form.Body,
		"active":        form.Active,
		"duration_days": form.DurationDays.Int(),
		"max_views":     form.MaxViews.Int(),
		"interval_days": form.IntervalDays.Int(),
	})
	if err != nil {
		respondStoreError(c, ctl.log, "popup", "update", err)
		return
	}
	ctl.log.Info("popup", "campaign updated", map[string]interface{}{"id": id, "active": form.Active})
	respondOK(c, updated)
}
