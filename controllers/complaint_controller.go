package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/forms"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/middleware"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/store"
	"github.com/autoteile-schmidt/service-portal-api/triage"
	"github.com/autoteile-schmidt/service-portal-api/utils"
	"github.com/autoteile-schmidt/service-portal-api/validation"
)

// ComplaintController handles warranty claims and their attachments.
type ComplaintController struct {
	repo        *store.ComplaintRepository
	attachments services.AttachmentService
	dispatch    *services.Dispatcher
	log         logger.Logger
	admin       *triageHandlers[models.Complaint]
}

func NewComplaintController(repo *store.ComplaintRepository, attachments services.AttachmentService, dispatch *services.Dispatcher, log logger.Logger) *ComplaintController {
	return &ComplaintController{
		repo:        repo,
		attachments: attachments,
		dispatch:    dispatch,
		log:         log,
		admin:       &triageHandlers[models.Complaint]{repo: repo, machine: triage.Complaint, module: "complaints", log: log},
	}
}

func (ctl *ComplaintController) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/complaints", ctl.Create)
	public.POST("/complaints/attachments", ctl.UploadAttachment)
	admin.GET("/complaints", ctl.admin.list)
	admin.GET("/complaints/:id", ctl.Get)
	admin.PATCH("/complaints/:id", ctl.admin.update)
	admin.DELETE("/complaints/:id", ctl.Delete)
}

// Create handles POST /api/v1/complaints. The complaint and its items,
// vehicle data and attachment records are stored together or not at all.
func (ctl *ComplaintController) Create(c *gin.Context) {
	var form forms.ComplaintForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	complaint := form.ToModel()
	if err := ctl.repo.Create(c.Request.Context(), complaint); err != nil {
		respondStoreError(c, ctl.log, "complaints", "create", err)
		return
	}

	ctl.log.Info("complaints", "complaint received", map[string]interface{}{
		"id":          complaint.ID,
		"items":       len(complaint.Items),
		"attachments": len(complaint.Attachments),
	})
	ctl.dispatch.Dispatch(services.KindComplaint, complaint)
	respondOK(c, gin.H{"id": complaint.ID})
}

// UploadAttachment handles POST /api/v1/complaints/attachments (multipart
// field "file") and returns the storage path to reference in the complaint.
func (ctl *ComplaintController) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "Keine Datei übermittelt")
		return
	}

	storagePath, err := ctl.attachments.Upload(c.Request.Context(), fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}
		ctl.log.Error("complaints", "attachment upload failed", map[string]interface{}{
			"file":  fileHeader.Filename,
			"error": err,
		})
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Die Datei konnte nicht gespeichert werden")
		return
	}

	contentType, _ := utils.AttachmentContentType(fileHeader.Filename)
	respondOK(c, gin.H{
		"fileName":    fileHeader.Filename,
		"fileType":    contentType,
		"storagePath": storagePath,
	})
}

// Get handles GET /api/v1/complaints/:id with download links for attachments
func (ctl *ComplaintController) Get(c *gin.Context) {
	complaint, err := ctl.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, ctl.log, "complaints", "get", err)
		return
	}
	services.ResolveURLs(c.Request.Context(), ctl.attachments, complaint.Attachments)
	respondOK(c, complaint)
}

// Delete handles DELETE /api/v1/complaints/:id. Rows go in one transaction;
// stored files are removed afterwards and failures are only logged.
func (ctl *ComplaintController) Delete(c *gin.Context) {
	id := c.Param("id")
	removed, err := ctl.repo.DeleteCascade(c.Request.Context(), id)
	if err != nil {
		respondStoreError(c, ctl.log, "complaints", "delete", err)
		return
	}

	orphaned := 0
	for _, a := range removed {
		if err := ctl.attachments.Delete(c.Request.Context(), a.StoragePath); err != nil {
			orphaned++
			ctl.log.Error("complaints", "attachment file left behind after delete", map[string]interface{}{
				"complaint":   id,
				"storagePath": a.StoragePath,
				"error":       err,
			})
		}
	}

	admin, _ := middleware.GetAdminUsername(c)
	ctl.log.Info("complaints", "complaint deleted", map[string]interface{}{
		"id":          id,
		"attachments": len(removed),
		"orphaned":    orphaned,
		"admin":       admin,
	})
	respondOK(c, gin.H{"id": id})
}
