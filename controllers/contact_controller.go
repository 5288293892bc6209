package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/forms"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/store"
	"github.com/autoteile-schmidt/service-portal-api/triage"
	"github.com/autoteile-schmidt/service-portal-api/validation"
)

// ContactController handles general contact inquiries.
type ContactController struct {
	repo     store.Repository[models.ContactInquiry]
	dispatch *services.Dispatcher
	log      logger.Logger
	admin    *triageHandlers[models.ContactInquiry]
}

func NewContactController(repo store.Repository[models.ContactInquiry], dispatch *services.Dispatcher, log logger.Logger) *ContactController {
	return &ContactController{
		repo:     repo,
		dispatch: dispatch,
		log:      log,
		admin:    &triageHandlers[models.ContactInquiry]{repo: repo, machine: triage.Contact, module: "contact", log: log},
	}
}

func (ctl *ContactController) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/contact", ctl.Create)
	admin.GET("/contact", ctl.admin.list)
	admin.GET("/contact/:id", ctl.admin.get)
	admin.PATCH("/contact/:id", ctl.admin.update)
}

// Create handles POST /api/v1/contact and returns the receipt id
func (ctl *ContactController) Create(c *gin.Context) {
	var form forms.ContactForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	inquiry := form.ToModel()
	if err := ctl.repo.Create(c.Request.Context(), inquiry); err != nil {
		respondStoreError(c, ctl.log, "contact", "create", err)
		return
	}

	ctl.log.Info("contact", "contact inquiry received", map[string]interface{}{"id": inquiry.ID})
	ctl.dispatch.Dispatch(services.KindContact, inquiry)
	respondOK(c, gin.H{"id": inquiry.ID})
}
