package models

import (
	"time"

	"gorm.io/gorm"
)

// MotorInquiry is a lead for an engine repair or overhaul
type MotorInquiry struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	Email         string    `gorm:"not null;index" json:"email"`
	Phone         string    `gorm:"not null" json:"phone"`
	VehicleModel  string    `gorm:"not null" json:"vehicleModel"`
	VehicleYear   int       `json:"vehicleYear"`
	VIN           string    `gorm:"column:vin" json:"vin,omitempty"`
	EngineType    string    `json:"engineType,omitempty"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Status        string    `gorm:"not null;default:'new';index" json:"status"` // new, in_review, quoted, closed
	ProcessorName *string   `json:"processorName,omitempty"`
	AdminNotes    *string   `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// TableName specifies the table name for MotorInquiry
func (MotorInquiry) TableName() string {
	return "motor_inquiries"
}

func (m *MotorInquiry) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	if m.Status == "" {
		m.Status = MotorStatusNew
	}
	return nil
}

func (m MotorInquiry) CurrentStatus() string { return m.Status }
