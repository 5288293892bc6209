package forms

import (
	"strings"

	"github.com/autoteile-schmidt/service-portal-api/models"
)

// ComplaintItemForm is one affected article.
type ComplaintItemForm struct {
	Manufacturer string  `json:"manufacturer" binding:"required,max=200"`
	ArticleIndex string  `json:"articleIndex" binding:"required,max=100"`
	ArticleName  string  `json:"articleName" binding:"required,max=200"`
	PurchaseDate string  `json:"purchaseDate" binding:"omitempty,isodate"`
	Quantity     FlexInt `json:"quantity" binding:"gt=0"`
}

// VehicleForm describes the vehicle the part was fitted to.
type VehicleForm struct {
	Manufacturer     string  `json:"manufacturer" binding:"required,max=200"`
	Model            string  `json:"model" binding:"required,max=200"`
	VehicleType      string  `json:"vehicleType" binding:"max=100"`
	BuildYear        FlexInt `json:"buildYear" binding:"omitempty,plausibleyear"`
	VIN              string  `json:"vin" binding:"omitempty,vin"`
	InstallDate      string  `json:"installDate" binding:"omitempty,isodate"`
	RemovalDate      string  `json:"removalDate" binding:"omitempty,isodate"`
	MileageAtInstall FlexInt `json:"mileageAtInstall" binding:"gte=0"`
	MileageAtRemoval FlexInt `json:"mileageAtRemoval" binding:"gte=0"`
	Installer        string  `json:"installer" binding:"max=200"`
}

// AttachmentForm references a file previously stored through the upload endpoint.
type AttachmentForm struct {
	FileName     string `json:"fileName" binding:"required,max=255"`
	FileType     string `json:"fileType" binding:"required,max=100"`
	StoragePath  string `json:"storagePath" binding:"required,max=500,storagepath"`
	IsDiagnostic bool   `json:"isDiagnostic"`
}

// ComplaintForm is a warranty or defect claim together with its children.
type ComplaintForm struct {
	CustomerNumber    string              `json:"customerNumber" binding:"required,max=100"`
	CustomerName      string              `json:"customerName" binding:"required,min=2,max=200"`
	Email             string              `json:"email" binding:"required,email"`
	Phone             string              `json:"phone" binding:"required,min=5,max=50"`
	ReceiptNumber     string              `json:"receiptNumber" binding:"required,max=100"`
	Description       string              `json:"description" binding:"required,min=10,max=10000"`
	ErrorDate         string              `json:"errorDate" binding:"omitempty,isodate"`
	DeliveryForm      string              `json:"deliveryForm" binding:"required,oneof=paket spedition abholung"`
	PreferredHandling string              `json:"preferredHandling" binding:"required,oneof=gutschrift ersatzlieferung reparatur pruefung"`
	AdditionalCosts   bool                `json:"additionalCosts"`
	Items             []ComplaintItemForm `json:"items" binding:"required,min=1,dive"`
	VehicleData       *VehicleForm        `json:"vehicleData"`
	Attachments       []AttachmentForm    `json:"attachments" binding:"omitempty,dive"`
}

func (f *ComplaintForm) Normalize() {
	f.CustomerNumber = clean(f.CustomerNumber)
	f.CustomerName = clean(f.CustomerName)
	f.Email = cleanEmail(f.Email)
	f.Phone = clean(f.Phone)
	f.ReceiptNumber = clean(f.ReceiptNumber)
	f.Description = strings.TrimSpace(f.Description)
	f.ErrorDate = strings.TrimSpace(f.ErrorDate)
	f.DeliveryForm = strings.ToLower(clean(f.DeliveryForm))
	f.PreferredHandling = strings.ToLower(clean(f.PreferredHandling))

	for i := range f.Items {
		item := &f.Items[i]
		item.Manufacturer = clean(item.Manufacturer)
		item.ArticleIndex = clean(item.ArticleIndex)
		item.ArticleName = clean(item.ArticleName)
		item.PurchaseDate = strings.TrimSpace(item.PurchaseDate)
	}

	if v := f.VehicleData; v != nil {
		v.Manufacturer = clean(v.Manufacturer)
		v.Model = clean(v.Model)
		v.VehicleType = clean(v.VehicleType)
		v.VIN = cleanVIN(v.VIN)
		v.InstallDate = strings.TrimSpace(v.InstallDate)
		v.RemovalDate = strings.TrimSpace(v.RemovalDate)
		v.Installer = clean(v.Installer)
	}

	for i := range f.Attachments {
		a := &f.Attachments[i]
		a.FileName = strings.TrimSpace(a.FileName)
		a.FileType = strings.ToLower(strings.TrimSpace(a.FileType))
		a.StoragePath = strings.TrimSpace(a.StoragePath)
	}
}

func (f *ComplaintForm) ToModel() *models.Complaint {
	c := &models.Complaint{
		CustomerNumber:    f.CustomerNumber,
		CustomerName:      f.CustomerName,
		Email:             f.Email,
		Phone:             f.Phone,
		ReceiptNumber:     f.ReceiptNumber,
		Description:       f.Description,
		ErrorDate:         parseDate(f.ErrorDate),
		DeliveryForm:      f.DeliveryForm,
		PreferredHandling: f.PreferredHandling,
		AdditionalCosts:   f.AdditionalCosts,
	}

	for _, item := range f.Items {
		c.Items = append(c.Items, models.ComplaintItem{
			Manufacturer: item.Manufacturer,
			ArticleIndex: item.ArticleIndex,
			ArticleName:  item.ArticleName,
			PurchaseDate: parseDate(item.PurchaseDate),
			Quantity:     item.Quantity.Int(),
		})
	}

	if v := f.VehicleData; v != nil {
		c.VehicleData = &models.VehicleData{
			Manufacturer:     v.Manufacturer,
			Model:            v.Model,
			VehicleType:      v.VehicleType,
			BuildYear:        v.BuildYear.Int(),
			VIN:              v.VIN,
			InstallDate:      parseDate(v.InstallDate),
			RemovalDate:      parseDate(v.RemovalDate),
			MileageAtInstall: v.MileageAtInstall.Int(),
			MileageAtRemoval: v.MileageAtRemoval.Int(),
			Installer:        v.Installer,
		}
	}

	for _, a := range f.Attachments {
		c.Attachments = append(c.Attachments, models.Attachment{
			FileName:     a.FileName,
			FileType:     a.FileType,
			StoragePath:  a.StoragePath,
			IsDiagnostic: a.IsDiagnostic,
		})
	}

	return c
}
