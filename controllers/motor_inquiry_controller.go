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

// MotorInquiryController handles engine procurement requests.
type MotorInquiryController struct {
	repo     store.Repository[models.MotorInquiry]
	dispatch *services.Dispatcher
	log      logger.Logger
	admin    *triageHandlers[models.MotorInquiry]
}

func NewMotorInquiryController(repo store.Repository[models.MotorInquiry], dispatch *services.Dispatcher, log logger.Logger) *MotorInquiryController {
	return &MotorInquiryController{
		repo:     repo,
		dispatch: dispatch,
		log:      log,
		admin:    &triageHandlers[models.MotorInquiry]{repo: repo, machine: triage.MotorInquiry, module: "motor_inquiry", log: log},
	}
}

func (ctl *MotorInquiryController) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/motor-inquiry", ctl.Create)
	admin.GET("/motor-inquiry", ctl.admin.list)
	admin.GET("/motor-inquiry/:id", ctl.admin.get)
	admin.PUT("/motor-inquiry/:id", ctl.admin.update)
	admin.DELETE("/motor-inquiry/:id", ctl.admin.delete)
}

// Create handles POST /api/v1/motor-inquiry
func (ctl *MotorInquiryController) Create(c *gin.Context) {
	var form forms.MotorInquiryForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	inquiry := form.ToModel()
	if err := ctl.repo.Create(c.Request.Context(), inquiry); err != nil {
		respondStoreError(c, ctl.log, "motor_inquiry", "create", err)
		return
	}

	ctl.log.Info("motor_inquiry", "motor inquiry received", map[string]interface{}{"id": inquiry.ID})
	ctl.dispatch.Dispatch(services.KindMotorInquiry, inquiry)
	respondOK(c, gin.H{"id": inquiry.ID})
}
