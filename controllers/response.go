package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/store"
	"github.com/autoteile-schmidt/service-portal-api/triage"
	"github.com/autoteile-schmidt/service-portal-api/validation"
)

const (
	msgInternal = "Interner Serverfehler"
	msgNotFound = "Eintrag nicht gefunden"
	maxPageSize = 500
)

func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondValidation writes a 400 with the per-field messages.
func respondValidation(c *gin.Context, err error) {
	var verr *validation.ValidationError
	if !errors.As(validation.FromError(err), &verr) {
		verr = validation.New(nil)
	}
	body := gin.H{
		"code":    "VALIDATION_ERROR",
		"message": verr.Message,
	}
	if len(verr.Fields) > 0 {
		body["fields"] = verr.Fields
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": body})
}

// respondStoreError maps repository failures: missing records are 404,
// everything else is logged and answered with 500.
func respondStoreError(c *gin.Context, log logger.Logger, module, action string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", msgNotFound)
		return
	}
	log.Error(module, action+" failed", map[string]interface{}{"error": err})
	respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", msgInternal)
}

// respondTriageError maps status machine and store failures.
func respondTriageError(c *gin.Context, log logger.Logger, module string, err error) {
	switch {
	case errors.Is(err, triage.ErrUnknownStatus):
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Ungültiger Status")
	case errors.Is(err, triage.ErrTerminalState):
		respondError(c, http.StatusConflict, "TERMINAL_STATUS", "Der Vorgang ist abgeschlossen und muss erst wieder geöffnet werden")
	default:
		respondStoreError(c, log, module, "status update", err)
	}
}

// listFilter reads ?status=, ?limit= and ?offset= from the query string.
func listFilter(c *gin.Context) store.Filter {
	f := store.Filter{Status: c.Query("status")}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		if n > maxPageSize {
			n = maxPageSize
		}
		f.Limit = n
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		f.Offset = n
	}
	return f
}
