package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/forms"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/middleware"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/store"
	"github.com/autoteile-schmidt/service-portal-api/triage"
	"github.com/autoteile-schmidt/service-portal-api/validation"
)

// triageHandlers serves the admin side every submission kind shares:
// listing, detail, status changes and deletion.
type triageHandlers[T models.Submission] struct {
	repo    store.Repository[T]
	machine triage.Machine
	module  string
	log     logger.Logger
}

func (h *triageHandlers[T]) list(c *gin.Context) {
	filter := listFilter(c)
	if filter.Status != "" && !h.machine.Valid(filter.Status) {
		respondError(c, http.StatusBadRequest, "INVALID_STATUS", "Ungültiger Status")
		return
	}

	records, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		respondStoreError(c, h.log, h.module, "list", err)
		return
	}
	total, err := h.repo.Count(c.Request.Context(), store.Filter{Status: filter.Status})
	if err != nil {
		respondStoreError(c, h.log, h.module, "count", err)
		return
	}
	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	respondOK(c, records)
}

func (h *triageHandlers[T]) get(c *gin.Context) {
	record, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondStoreError(c, h.log, h.module, "get", err)
		return
	}
	respondOK(c, record)
}

func (h *triageHandlers[T]) update(c *gin.Context) {
	var form forms.TriageForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	id := c.Param("id")
	updated, from, err := triage.Apply(c.Request.Context(), h.repo, h.machine, id, triage.Change{
		Status:        form.Status,
		ProcessorName: form.ProcessorName,
		AdminNotes:    form.AdminNotes,
		Reopen:        form.Reopen,
	})
	if err != nil {
		respondTriageError(c, h.log, h.module, err)
		return
	}

	admin, _ := middleware.GetAdminUsername(c)
	h.log.Info(h.module, "status changed", map[string]interface{}{
		"id":     id,
		"from":   from,
		"to":     form.Status,
		"reopen": form.Reopen,
		"admin":  admin,
	})
	respondOK(c, updated)
}

func (h *triageHandlers[T]) delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		respondStoreError(c, h.log, h.module, "delete", err)
		return
	}
	admin, _ := middleware.GetAdminUsername(c)
	h.log.Info(h.module, "record deleted", map[string]interface{}{"id": id, "admin": admin})
	respondOK(c, gin.H{"id": id})
}
