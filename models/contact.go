package models

import (
	"time"

	"gorm.io/gorm"
)

// ContactInquiry represents a contact form submission
type ContactInquiry struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Email         string    `gorm:"not null;index" json:"email"`
	Phone         string    `json:"phone,omitempty"`
	Subject       string    `json:"subject,omitempty"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	Status        string    `gorm:"not null;default:'new';index" json:"status"` // new, read, replied
	ProcessorName *string   `json:"processorName,omitempty"`
	AdminNotes    *string   `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName specifies the table name for ContactInquiry
func (ContactInquiry) TableName() string {
	return "contact_inquiries"
}

func (c *ContactInquiry) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	if c.Status == "" {
		c.Status = ContactStatusNew
	}
	return nil
}

func (c ContactInquiry) CurrentStatus() string { return c.Status }
