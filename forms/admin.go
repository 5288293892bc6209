package forms

import (
	"strings"

	"github.com/autoteile-schmidt/service-portal-api/models"
)

// AppointmentForm books a workshop appointment.
type AppointmentForm struct {
	Date  string `json:"date" binding:"required,isodate"`
	Name  string `json:"name" binding:"required,min=2,max=200"`
	Email string `json:"email" binding:"required,email"`
}

func (f *AppointmentForm) Normalize() {
	f.Date = strings.TrimSpace(f.Date)
	f.Name = clean(f.Name)
	f.Email = cleanEmail(f.Email)
}

func (f *AppointmentForm) ToModel() *models.Appointment {
	return &models.Appointment{
		Date:  f.Date,
		Name:  f.Name,
		Email: f.Email,
	}
}

// ConfirmAppointmentForm matches an existing booking by date, name and email.
type ConfirmAppointmentForm = AppointmentForm

// AdminLoginForm carries operator credentials.
type AdminLoginForm struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=200"`
}

func (f *AdminLoginForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

// AdminSetupForm stores the first operator identity.
type AdminSetupForm struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=12,max=200"`
}

func (f *AdminSetupForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

// BreakGlassForm carries the emergency access secret.
type BreakGlassForm struct {
	Secret string `json:"secret" binding:"required,max=500"`
}

// TriageForm is the only mutation admins may apply to a submission.
// Reopen must be set to move a record out of a terminal status.
type TriageForm struct {
	Status        string  `json:"status" binding:"required,max=50"`
	ProcessorName *string `json:"processorName" binding:"omitempty,max=200"`
	AdminNotes    *string `json:"adminNotes" binding:"omitempty,max=10000"`
	Reopen        bool    `json:"reopen"`
}

func (f *TriageForm) Normalize() {
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))
	if f.ProcessorName != nil {
		name := clean(*f.ProcessorName)
		f.ProcessorName = &name
	}
	if f.AdminNotes != nil {
		notes := strings.TrimSpace(*f.AdminNotes)
		f.AdminNotes = &notes
	}
}

// PopupCampaignForm configures a popup campaign. Thresholds are in days.
type PopupCampaignForm struct {
	Title        string  `json:"title" binding:"required,max=200"`
	Body         string  `json:"body" binding:"max=5000"`
	Active       bool    `json:"active"`
	DurationDays FlexInt `json:"duration" binding:"gte=0,max=3650"`
	MaxViews     FlexInt `json:"maxViews" binding:"gte=0,max=1000"`
	IntervalDays FlexInt `json:"viewInterval" binding:"gte=0,max=3650"`
}

func (f *PopupCampaignForm) Normalize() {
	f.Title = clean(f.Title)
	f.Body = strings.TrimSpace(f.Body)
}

func (f *PopupCampaignForm) ToModel(id string) *models.PopupCampaign {
	return &models.PopupCampaign{
		ID:           id,
		Title:        f.Title,
		Body:         f.Body,
		Active:       f.Active,
		DurationDays: f.DurationDays.Int(),
		MaxViews:     f.MaxViews.Int(),
		IntervalDays: f.IntervalDays.Int(),
	}
}
