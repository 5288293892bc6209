package controllers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/utils"
)

// LocalFiles resolves attachment names to files on disk.
type LocalFiles interface {
	Path(name string) (string, bool)
}

// UploadController serves locally stored complaint attachments to admins.
type UploadController struct {
	files LocalFiles
}

func NewUploadController(files LocalFiles) *UploadController {
	return &UploadController{files: files}
}

func (ctl *UploadController) RegisterRoutes(public, admin *gin.RouterGroup) {
	admin.GET("/uploads/:filename", ctl.GetUploadedAttachment)
}

// GetUploadedAttachment handles GET /api/v1/uploads/:filename
func (ctl *UploadController) GetUploadedAttachment(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Dateiname fehlt")
		return
	}

	// rejects traversal and anything outside the accepted types
	filePath, ok := ctl.files.Path(filename)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Ungültiger Dateiname")
		return
	}
	contentType, ok := utils.AttachmentContentType(filename)
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Erlaubt sind nur PDF, PNG und JPG")
		return
	}

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Datei nicht gefunden")
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=3600")
	c.Header("X-Content-Type-Options", "nosniff")
	c.File(filePath)
}
