package models

import (
	"time"

	"gorm.io/gorm"
)

var (
	DeliveryForms      = []string{"paket", "spedition", "abholung"}
	PreferredHandlings = []string{"gutschrift", "ersatzlieferung", "reparatur", "pruefung"}
)

// Complaint is a warranty or defect claim. Items, vehicle data and
// attachments are owned by the complaint and removed together with it.
type Complaint struct {
	ID                string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	CustomerNumber    string          `gorm:"not null;index" json:"customerNumber"`
	CustomerName      string          `gorm:"not null" json:"customerName"`
	Email             string          `gorm:"not null" json:"email"`
	Phone             string          `gorm:"not null" json:"phone"`
	ReceiptNumber     string          `gorm:"not null" json:"receiptNumber"`
	Description       string          `gorm:"type:text;not null" json:"description"`
	ErrorDate         *time.Time      `json:"errorDate,omitempty"`
	DeliveryForm      string          `gorm:"not null" json:"deliveryForm"`
	PreferredHandling string          `gorm:"not null" json:"preferredHandling"`
	AdditionalCosts   bool            `gorm:"not null;default:false" json:"additionalCosts"`
	Status            string          `gorm:"not null;default:'new';index" json:"status"` // new, in_progress, resolved, rejected
	ProcessorName     *string         `json:"processorName,omitempty"`
	AdminNotes        *string         `gorm:"type:text" json:"adminNotes,omitempty"`
	Items             []ComplaintItem `gorm:"foreignKey:ComplaintID" json:"items"`
	VehicleData       *VehicleData    `gorm:"foreignKey:ComplaintID" json:"vehicleData"`
	Attachments       []Attachment    `gorm:"foreignKey:ComplaintID" json:"attachments"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for Complaint
func (Complaint) TableName() string {
	return "complaints"
}

func (c *Complaint) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	if c.Status == "" {
		c.Status = ComplaintStatusNew
	}
	return nil
}

func (c Complaint) CurrentStatus() string { return c.Status }

// ComplaintItem is one affected article of a complaint
type ComplaintItem struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ComplaintID  string     `gorm:"type:varchar(36);not null;index" json:"complaintId"`
	Manufacturer string     `gorm:"not null" json:"manufacturer"`
	ArticleIndex string     `gorm:"not null" json:"articleIndex"`
	ArticleName  string     `gorm:"not null" json:"articleName"`
	PurchaseDate *time.Time `json:"purchaseDate,omitempty"`
	Quantity     int        `gorm:"not null;check:quantity > 0" json:"quantity"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TableName specifies the table name for ComplaintItem
func (ComplaintItem) TableName() string {
	return "complaint_items"
}

func (i *ComplaintItem) BeforeCreate(tx *gorm.DB) error {
	assignID(&i.ID)
	return nil
}

// VehicleData describes the vehicle the complained part was installed in
type VehicleData struct {
	ID               string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	ComplaintID      string     `gorm:"type:varchar(36);not null;uniqueIndex" json:"complaintId"`
	Manufacturer     string     `json:"manufacturer"`
	Model            string     `json:"model"`
	VehicleType      string     `json:"vehicleType,omitempty"`
	BuildYear        int        `json:"buildYear,omitempty"`
	VIN              string     `gorm:"column:vin" json:"vin,omitempty"`
	InstallDate      *time.Time `json:"installDate,omitempty"`
	RemovalDate      *time.Time `json:"removalDate,omitempty"`
	MileageAtInstall int        `json:"mileageAtInstall"`
	MileageAtRemoval int        `json:"mileageAtRemoval"`
	Installer        string     `json:"installer,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// TableName specifies the table name for VehicleData
func (VehicleData) TableName() string {
	return "complaint_vehicle_data"
}

func (v *VehicleData) BeforeCreate(tx *gorm.DB) error {
	assignID(&v.ID)
	return nil
}

// Attachment references a file uploaded for a complaint. The file itself
// lives in object storage under StoragePath.
type Attachment struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	ComplaintID  string    `gorm:"type:varchar(36);not null;index" json:"complaintId"`
	FileName     string    `gorm:"not null" json:"fileName"`
	FileType     string    `gorm:"not null" json:"fileType"`
	StoragePath  string    `gorm:"not null" json:"storagePath"`
	IsDiagnostic bool      `gorm:"not null;default:false" json:"isDiagnostic"`
	URL          *string   `gorm:"-" json:"url,omitempty"` // computed, signed download link
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName specifies the table name for Attachment
func (Attachment) TableName() string {
	return "complaint_attachments"
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	assignID(&a.ID)
	return nil
}
