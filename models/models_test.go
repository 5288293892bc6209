package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestTableNames(t *testing.T) {
	tests := []struct {
		name  string
		table string
		got   string
	}{
		{"contact", "contact_inquiries", ContactInquiry{}.TableName()},
		{"b2b", "b2b_registrations", B2BRegistration{}.TableName()},
		{"motor", "motor_inquiries", MotorInquiry{}.TableName()},
		{"return", "returns", Return{}.TableName()},
		{"complaint", "complaints", Complaint{}.TableName()},
		{"complaint items", "complaint_items", ComplaintItem{}.TableName()},
		{"vehicle data", "complaint_vehicle_data", VehicleData{}.TableName()},
		{"attachments", "complaint_attachments", Attachment{}.TableName()},
		{"appointments", "appointments", Appointment{}.TableName()},
		{"popup campaigns", "popup_campaigns", PopupCampaign{}.TableName()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.table, tt.got)
		})
	}
}

func TestCreateAssignsIDAndInitialStatus(t *testing.T) {
	db := openTestDB(t)

	contact := ContactInquiry{Name: "Eva Roth", Email: "eva@example.de", Message: "Haben Sie Zündkerzen für den Golf IV?"}
	require.NoError(t, db.Create(&contact).Error)
	_, err := uuid.Parse(contact.ID)
	assert.NoError(t, err, "ID should be a UUID")
	assert.Equal(t, ContactStatusNew, contact.Status)

	ret := Return{
		OrderNumber:      "A-1",
		CustomerNumber:   "K-1",
		CustomerName:     "Eva Roth",
		Email:            "eva@example.de",
		PackageCondition: "original",
		ProductCondition: "unbenutzt",
		Reason:           "Falsch bestellt",
		Articles:         datatypes.NewJSONSlice([]ReturnArticle{{ArticleNumber: "0 242 235 666", Name: "Zündkerze", Quantity: 4}}),
	}
	require.NoError(t, db.Create(&ret).Error)
	assert.Equal(t, ReturnStatusPending, ret.Status)

	var loaded Return
	require.NoError(t, db.First(&loaded, "id = ?", ret.ID).Error)
	require.Len(t, loaded.Articles, 1)
	assert.Equal(t, 4, loaded.Articles[0].Quantity)
}

func TestCreateKeepsExplicitStatus(t *testing.T) {
	db := openTestDB(t)

	contact := ContactInquiry{Name: "Eva Roth", Email: "eva@example.de", Message: "Rückruf erbeten", Status: ContactStatusRead}
	require.NoError(t, db.Create(&contact).Error)

	assert.Equal(t, ContactStatusRead, contact.Status)
}

func TestComplaintChildrenGetIDs(t *testing.T) {
	db := openTestDB(t)

	complaint := Complaint{
		CustomerNumber:    "K-9",
		CustomerName:      "Werkstatt Nord",
		Email:             "nord@example.de",
		Phone:             "040 1234",
		ReceiptNumber:     "R-9",
		Description:       "Lichtmaschine lädt nicht.",
		DeliveryForm:      "paket",
		PreferredHandling: "pruefung",
		Items:             []ComplaintItem{{Manufacturer: "Bosch", ArticleIndex: "0 986 04", ArticleName: "Lichtmaschine", Quantity: 1}},
		Attachments:       []Attachment{{FileName: "foto.jpg", FileType: "image/jpeg", StoragePath: "attachments/foto.jpg"}},
	}
	require.NoError(t, db.Create(&complaint).Error)

	assert.Equal(t, ComplaintStatusNew, complaint.Status)
	assert.NotEmpty(t, complaint.Items[0].ID)
	assert.Equal(t, complaint.ID, complaint.Items[0].ComplaintID)
	assert.NotEmpty(t, complaint.Attachments[0].ID)
}
