package models

import "time"

// PopupCampaign configures a promotional overlay. Thresholds are in days,
// except MaxViews.
type PopupCampaign struct {
	ID           string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	Title        string    `gorm:"not null" json:"title"`
	Body         string    `gorm:"type:text" json:"body,omitempty"`
	Active       bool      `gorm:"not null;default:false" json:"active"`
	DurationDays int       `gorm:"not null" json:"duration"`
	MaxViews     int       `gorm:"not null" json:"maxViews"`
	IntervalDays int       `gorm:"not null" json:"viewInterval"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name for PopupCampaign
func (PopupCampaign) TableName() string {
	return "popup_campaigns"
}
