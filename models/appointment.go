package models

import (
	"time"

	"gorm.io/gorm"
)

// AppointmentDateLayout is the calendar-day format stored in Appointment.Date.
const AppointmentDateLayout = "2006-01-02"

// Appointment is a workshop booking. Only one appointment may exist per
// calendar day; the unique index on date is what enforces it.
type Appointment struct {
	ID          string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Date        string     `gorm:"type:varchar(10);not null;uniqueIndex" json:"date"`
	Name        string     `gorm:"not null" json:"name"`
	Email       string     `gorm:"not null" json:"email"`
	Confirmed   bool       `gorm:"not null;default:false" json:"confirmed"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for Appointment
func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
