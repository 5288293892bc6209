// Package models holds the gorm records persisted by the service portal.
package models

// All lists every model for auto-migration.
func All() []interface{} {
	return []interface{}{
		&ContactInquiry{},
		&B2BRegistration{},
		&MotorInquiry{},
		&Return{},
		&Complaint{},
		&ComplaintItem{},
		&VehicleData{},
		&Attachment{},
		&Appointment{},
		&AdminCredential{},
		&AdminAuditEvent{},
		&PopupCampaign{},
	}
}
