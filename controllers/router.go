package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/autoteile-schmidt/service-portal-api/logger"
	"github.com/autoteile-schmidt/service-portal-api/middleware"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/popup"
	"github.com/autoteile-schmidt/service-portal-api/services"
	"github.com/autoteile-schmidt/service-portal-api/store"
	"github.com/autoteile-schmidt/service-portal-api/triage"
)

// Registrar adds a controller's routes. Admin routes are already guarded.
type Registrar interface {
	RegisterRoutes(public, admin *gin.RouterGroup)
}

// Dependencies are what the HTTP layer is built from.
type Dependencies struct {
	DB            *gorm.DB
	Log           logger.Logger
	Auth          *services.AuthService
	Dispatcher    *services.Dispatcher
	Attachments   services.AttachmentService
	LocalFiles    LocalFiles
	History       popup.HistoryStore
	Location      *time.Location
	StoreTimeout  time.Duration
	SecureCookies bool
}

// Handlers exposes the services behind the routes, mainly so tests can
// replace their clocks.
type Handlers struct {
	Appointments *services.AppointmentService
	Tracker      *popup.Tracker
	Complaints   *store.ComplaintRepository
}

// Mount registers every controller under group. Admin routes share one
// group guarded by the session middleware.
func Mount(group *gin.RouterGroup, deps Dependencies) *Handlers {
	contacts := store.NewGormRepository[models.ContactInquiry](deps.DB, deps.StoreTimeout)
	b2b := store.NewGormRepository[models.B2BRegistration](deps.DB, deps.StoreTimeout)
	motors := store.NewGormRepository[models.MotorInquiry](deps.DB, deps.StoreTimeout)
	returns := store.NewGormRepository[models.Return](deps.DB, deps.StoreTimeout)
	complaints := store.NewComplaintRepository(deps.DB, deps.StoreTimeout)
	appointments := store.NewGormRepository[models.Appointment](deps.DB, deps.StoreTimeout)
	campaigns := store.NewGormRepository[models.PopupCampaign](deps.DB, deps.StoreTimeout)

	h := &Handlers{
		Appointments: services.NewAppointmentService(appointments, deps.Location, deps.Log),
		Tracker:      popup.NewTracker(campaigns, deps.History, deps.Log),
		Complaints:   complaints,
	}

	summary := []SummarySource{
		{Machine: triage.Complaint, Repo: complaints},
		{Machine: triage.Return, Repo: returns},
		{Machine: triage.B2BRegistration, Repo: b2b},
		{Machine: triage.MotorInquiry, Repo: motors},
		{Machine: triage.Contact, Repo: contacts},
	}

	registrars := []Registrar{
		NewContactController(contacts, deps.Dispatcher, deps.Log),
		NewB2BController(b2b, deps.Dispatcher, deps.Log),
		NewMotorInquiryController(motors, deps.Dispatcher, deps.Log),
		NewReturnController(returns, deps.Dispatcher, deps.Log),
		NewComplaintController(complaints, deps.Attachments, deps.Dispatcher, deps.Log),
		NewAppointmentController(h.Appointments, deps.Dispatcher, deps.Log),
		NewAdminController(deps.Auth, summary, deps.SecureCookies, deps.Log),
		NewPopupController(campaigns, h.Tracker, deps.SecureCookies, deps.Log),
		NewUploadController(deps.LocalFiles),
	}

	admin := group.Group("", middleware.RequireAdmin(deps.Auth))
	for _, r := range registrars {
		r.RegisterRoutes(group, admin)
	}
	return h
}
