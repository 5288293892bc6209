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

// B2BController handles trade customer registrations.
type B2BController struct {
	repo     store.Repository[models.B2BRegistration]
	dispatch *services.Dispatcher
	log      logger.Logger
	admin    *triageHandlers[models.B2BRegistration]
}

func NewB2BController(repo store.Repository[models.B2BRegistration], dispatch *services.Dispatcher, log logger.Logger) *B2BController {
	return &B2BController{
		repo:     repo,
		dispatch: dispatch,
		log:      log,
		admin:    &triageHandlers[models.B2BRegistration]{repo: repo, machine: triage.B2BRegistration, module: "b2b", log: log},
	}
}

func (ctl *B2BController) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/b2b-registration", ctl.Create)
	admin.GET("/b2b-registration", ctl.admin.list)
	admin.GET("/b2b-registration/:id", ctl.admin.get)
	admin.PUT("/b2b-registration/:id", ctl.admin.update)
}

// Create handles POST /api/v1/b2b-registration
func (ctl *B2BController) Create(c *gin.Context) {
	var form forms.B2BRegistrationForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	registration := form.ToModel()
	if err := ctl.repo.Create(c.Request.Context(), registration); err != nil {
		respondStoreError(c, ctl.log, "b2b", "create", err)
		return
	}

	ctl.log.Info("b2b", "b2b registration received", map[string]interface{}{"id": registration.ID})
	ctl.dispatch.Dispatch(services.KindB2BRegistration, registration)
	respondOK(c, registration)
}
