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

// ReturnController handles article returns.
type ReturnController struct {
	repo     store.Repository[models.Return]
	dispatch *services.Dispatcher
	log      logger.Logger
	admin    *triageHandlers[models.Return]
}

func NewReturnController(repo store.Repository[models.Return], dispatch *services.Dispatcher, log logger.Logger) *ReturnController {
	return &ReturnController{
		repo:     repo,
		dispatch: dispatch,
		log:      log,
		admin:    &triageHandlers[models.Return]{repo: repo, machine: triage.Return, module: "returns", log: log},
	}
}

func (ctl *ReturnController) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/returns", ctl.Create)
	admin.GET("/returns", ctl.admin.list)
	admin.GET("/returns/:id", ctl.admin.get)
	admin.PUT("/returns/:id", ctl.admin.update)
}

// Create handles POST /api/v1/returns. A return without articles is
// rejected with the generic required-fields message.
func (ctl *ReturnController) Create(c *gin.Context) {
	var form forms.ReturnForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	ret := form.ToModel()
	if err := ctl.repo.Create(c.Request.Context(), ret); err != nil {
		respondStoreError(c, ctl.log, "returns", "create", err)
		return
	}

	ctl.log.Info("returns", "return received", map[string]interface{}{
		"id":       ret.ID,
		"articles": len(form.Articles),
	})
	ctl.dispatch.Dispatch(services.KindReturn, ret)
	respondOK(c, ret)
}
