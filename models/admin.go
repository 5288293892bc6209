package models

import "time"

// AdminCredential is the operator identity stored by the first-run setup.
type AdminCredential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name for AdminCredential
func (AdminCredential) TableName() string {
	return "admin_credentials"
}

// Audit event names.
const (
	AuditSetup            = "admin_setup"
	AuditBreakGlass       = "break_glass_access"
	AuditBreakGlassDenied = "break_glass_denied"
)

// AdminAuditEvent records security-relevant admin actions.
type AdminAuditEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Event      string    `gorm:"not null;index" json:"event"`
	Username   string    `json:"username,omitempty"`
	RemoteAddr string    `json:"remoteAddr"`
	UserAgent  string    `json:"userAgent,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName specifies the table name for AdminAuditEvent
func (AdminAuditEvent) TableName() string {
	return "admin_audit_events"
}
