package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	PackageConditions = []string{"originalverpackt", "geoeffnet", "beschaedigt"}
	ProductConditions = []string{"neu", "eingebaut", "defekt"}
)

// ReturnArticle is one line of a return request; the list is embedded in the
// return row as JSON.
type ReturnArticle struct {
	ArticleNumber string `json:"articleNumber"`
	Name          string `json:"name"`
	Quantity      int    `json:"quantity"`
}

// Return represents a customer's return request
type Return struct {
	ID               string                             `gorm:"type:varchar(36);primaryKey" json:"id"`
	OrderNumber      string                             `gorm:"not null;index" json:"orderNumber"`
	CustomerNumber   string                             `gorm:"not null;index" json:"customerNumber"`
	CustomerName     string                             `gorm:"not null" json:"customerName"`
	Email            string                             `gorm:"not null" json:"email"`
	Phone            string                             `json:"phone,omitempty"`
	PackageCondition string                             `gorm:"not null" json:"packageCondition"`
	ProductCondition string                             `gorm:"not null" json:"productCondition"`
	Reason           string                             `gorm:"type:text;not null" json:"reason"`
	Articles         datatypes.JSONSlice[ReturnArticle] `gorm:"not null" json:"articles"`
	Status           string                             `gorm:"not null;default:'pending';index" json:"status"` // pending, approved, rejected, completed
	ProcessorName    *string                            `json:"processorName,omitempty"`
	AdminNotes       *string                            `gorm:"type:text" json:"adminNotes,omitempty"`
	CreatedAt        time.Time                          `json:"createdAt"`
	UpdatedAt        time.Time                          `json:"updatedAt"`
}

// TableName specifies the table name for Return
func (Return) TableName() string {
	return "returns"
}

func (r *Return) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	if r.Status == "" {
		r.Status = ReturnStatusPending
	}
	return nil
}

func (r Return) CurrentStatus() string { return r.Status }
