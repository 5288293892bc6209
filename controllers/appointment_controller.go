package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autoteile-schmidt/service-portal-api/forms"
	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/store"
	"github.com/autoteile-schmidt/service-portal-api/validation"
)

const (
	msgInvalidDate     = "Ungültiges Datum"
	msgDateTaken       = "Dieser Termin ist bereits vergeben"
	msgAppointmentGone = "Termin nicht gefunden"
)

// AppointmentController books and confirms workshop appointments.
type AppointmentController struct {
	svc      *services.AppointmentService
	dispatch *services.Dispatcher
	log      logger.Logger
}

func NewAppointmentController(svc *services.AppointmentService, dispatch *services.Dispatcher, log logger.Logger) *AppointmentController {
	return &AppointmentController{svc: svc, dispatch: dispatch, log: log}
}

func (ctl *AppointmentController) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/book-appointment", ctl.Book)
	public.POST("/confirm-appointment", ctl.Confirm)
	public.GET("/appointments/booked-dates", ctl.BookedDates)
	admin.GET("/appointments", ctl.List)
	admin.DELETE("/appointments/:id", ctl.Cancel)
}

// Book handles POST /api/v1/book-appointment
func (ctl *AppointmentController) Book(c *gin.Context) {
	var form forms.AppointmentForm
	if err := validation.BindJSON(c, &form); err != nil {
		var verr *validation.ValidationError
		if errors.As(err, &verr) && verr.Fields["date"] != "" {
			respondError(c, http.StatusBadRequest, "INVALID_DATE", msgInvalidDate)
			return
		}
		respondValidation(c, err)
		return
	}

	appointment := form.ToModel()
	if err := ctl.svc.Book(c.Request.Context(), appointment); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDate):
			respondError(c, http.StatusBadRequest, "INVALID_DATE", msgInvalidDate)
		case errors.Is(err, services.ErrDateTaken):
			respondError(c, http.StatusBadRequest, "DATE_TAKEN", msgDateTaken)
		default:
			respondStoreError(c, ctl.log, "appointments", "book", err)
		}
		return
	}

	ctl.dispatch.Dispatch(services.KindAppointmentRequested, appointment)
	respondOK(c, appointment)
}

// Confirm handles POST /api/v1/confirm-appointment
func (ctl *AppointmentController) Confirm(c *gin.Context) {
	var form forms.ConfirmAppointmentForm
	if err := validation.BindJSON(c, &form); err != nil {
		respondValidation(c, err)
		return
	}

	appointment, err := ctl.svc.Confirm(c.Request.Context(), form.Date, form.Name, form.Email)
	if err != nil {
		if errors.Is(err, services.ErrAppointmentNotFound) {
			respondError(c, http.StatusBadRequest, "APPOINTMENT_NOT_FOUND", msgAppointmentGone)
			return
		}
		respondStoreError(c, ctl.log, "appointments", "confirm", err)
		return
	}

	ctl.dispatch.Dispatch(services.KindAppointmentConfirmed, appointment)
	respondOK(c, appointment)
}

// BookedDates handles GET /api/v1/appointments/booked-dates
func (ctl *AppointmentController) BookedDates(c *gin.Context) {
	dates, err := ctl.svc.BookedDates(c.Request.Context())
	if err != nil {
		respondStoreError(c, ctl.log, "appointments", "booked dates", err)
		return
	}
	respondOK(c, dates)
}

// List handles GET /api/v1/appointments
func (ctl *AppointmentController) List(c *gin.Context) {
	appointments, err := ctl.svc.List(c.Request.Context())
	if err != nil {
		respondStoreError(c, ctl.log, "appointments", "list", err)
		return
	}
	respondOK(c, appointments)
}

// Cancel handles DELETE /api/v1/appointments/:id
func (ctl *AppointmentController) Cancel(c *gin.Context) {
	id := c.Param("id")
	if err := ctl.svc.Cancel(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(c, http.StatusNotFound, "APPOINTMENT_NOT_FOUND", msgAppointmentGone)
			return
		}
		respondStoreError(c, ctl.log, "appointments", "cancel", err)
		return
	}
	respondOK(c, gin.H{"id": id})
}
