package models

import (
	"time"

	"gorm.io/gorm"
)

// Business types accepted on the B2B registration form.
var BusinessTypes = []string{"werkstatt", "autohaus", "teilehandel", "flotte", "sonstiges"}

// B2BRegistration is a trade customer asking for a business account
type B2BRegistration struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CompanyName   string    `gorm:"not null" json:"companyName"`
	ContactPerson string    `gorm:"not null" json:"contactPerson"`
	Email         string    `gorm:"not null;index" json:"email"`
	Phone         string    `gorm:"not null" json:"phone"`
	Address       string    `gorm:"not null" json:"address"`
	BusinessType  string    `gorm:"not null" json:"businessType"`
	Message       string    `gorm:"type:text" json:"message,omitempty"`
	Status        string    `gorm:"not null;default:'new';index" json:"status"` // new, contacted, approved, rejected
	ProcessorName *string   `json:"processorName,omitempty"`
	AdminNotes    *string   `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName specifies the table name for B2BRegistration
func (B2BRegistration) TableName() string {
	return "b2b_registrations"
}

func (b *B2BRegistration) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	if b.Status == "" {
		b.Status = B2BStatusNew
	}
	return nil
}

func (b B2BRegistration) CurrentStatus() string { return b.Status }
