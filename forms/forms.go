// Package forms defines the request bodies accepted by the portal. Each form
// knows how to normalize itself and how to become the persisted record.
package forms

import (
	"strings"
	"time"

	"github.com/autoteile-schmidt/service-portal-api/models"
	"github.com/autoteile-schmidt/service-portal-api/validation"
)

// ContactForm is posted by the public contact page.
type ContactForm struct {
	Name    string `json:"name" binding:"required,min=2,max=200"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,min=5,max=50"`
	Subject string `json:"subject" binding:"max=200"`
	Message string `json:"message" binding:"required,min=10,max=5000"`
}

func (f *ContactForm) Normalize() {
	f.Name = clean(f.Name)
	f.Email = cleanEmail(f.Email)
	f.Phone = clean(f.Phone)
	f.Subject = clean(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
}

func (f *ContactForm) ToModel() *models.ContactInquiry {
	return &models.ContactInquiry{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Subject: f.Subject,
		Message: f.Message,
	}
}

// B2BRegistrationForm is a trade customer's account request.
type B2BRegistrationForm struct {
	CompanyName   string `json:"companyName" binding:"required,min=2,max=200"`
	ContactPerson string `json:"contactPerson" binding:"required,min=2,max=200"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone" binding:"required,min=5,max=50"`
	Address       string `json:"address" binding:"required,min=5,max=500"`
	BusinessType  string `json:"businessType" binding:"required,oneof=werkstatt autohaus teilehandel flotte sonstiges"`
	Message       string `json:"message" binding:"max=5000"`
}

func (f *B2BRegistrationForm) Normalize() {
	f.CompanyName = clean(f.CompanyName)
	f.ContactPerson = clean(f.ContactPerson)
	f.Email = cleanEmail(f.Email)
	f.Phone = clean(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	f.BusinessType = strings.ToLower(clean(f.BusinessType))
	f.Message = strings.TrimSpace(f.Message)
}

func (f *B2BRegistrationForm) ToModel() *models.B2BRegistration {
	return &models.B2BRegistration{
		CompanyName:   f.CompanyName,
		ContactPerson: f.ContactPerson,
		Email:         f.Email,
		Phone:         f.Phone,
		Address:       f.Address,
		BusinessType:  f.BusinessType,
		Message:       f.Message,
	}
}

// MotorInquiryForm is a request for an engine repair quote.
type MotorInquiryForm struct {
	Name         string  `json:"name" binding:"required,min=2,max=200"`
	Email        string  `json:"email" binding:"required,email"`
	Phone        string  `json:"phone" binding:"required,min=5,max=50"`
	VehicleModel string  `json:"vehicleModel" binding:"required,min=2,max=200"`
	VehicleYear  FlexInt `json:"vehicleYear" binding:"omitempty,plausibleyear"`
	VIN          string  `json:"vin" binding:"omitempty,vin"`
	EngineType   string  `json:"engineType" binding:"max=100"`
	Description  string  `json:"description" binding:"required,min=10,max=5000"`
}

func (f *MotorInquiryForm) Normalize() {
	f.Name = clean(f.Name)
	f.Email = cleanEmail(f.Email)
	f.Phone = clean(f.Phone)
	f.VehicleModel = clean(f.VehicleModel)
	f.VIN = cleanVIN(f.VIN)
	f.EngineType = clean(f.EngineType)
	f.Description = strings.TrimSpace(f.Description)
}

func (f *MotorInquiryForm) ToModel() *models.MotorInquiry {
	return &models.MotorInquiry{
		Name:         f.Name,
		Email:        f.Email,
		Phone:        f.Phone,
		VehicleModel: f.VehicleModel,
		VehicleYear:  f.VehicleYear.Int(),
		VIN:          f.VIN,
		EngineType:   f.EngineType,
		Description:  f.Description,
	}
}

// ReturnArticleForm is one article line of a return request.
type ReturnArticleForm struct {
	ArticleNumber string  `json:"articleNumber" binding:"required,max=100"`
	Name          string  `json:"name" binding:"required,max=200"`
	Quantity      FlexInt `json:"quantity" binding:"gt=0"`
}

// ReturnForm is a customer's return request. At least one article is required.
type ReturnForm struct {
	OrderNumber      string              `json:"orderNumber" binding:"required,max=100"`
	CustomerNumber   string              `json:"customerNumber" binding:"required,max=100"`
	CustomerName     string              `json:"customerName" binding:"required,min=2,max=200"`
	Email            string              `json:"email" binding:"required,email"`
	Phone            string              `json:"phone" binding:"omitempty,min=5,max=50"`
	PackageCondition string              `json:"packageCondition" binding:"required,oneof=originalverpackt geoeffnet beschaedigt"`
	ProductCondition string              `json:"productCondition" binding:"required,oneof=neu eingebaut defekt"`
	Reason           string              `json:"reason" binding:"required,min=10,max=5000"`
	Articles         []ReturnArticleForm `json:"articles" binding:"required,min=1,dive"`
}

func (f *ReturnForm) Normalize() {
	f.OrderNumber = clean(f.OrderNumber)
	f.CustomerNumber = clean(f.CustomerNumber)
	f.CustomerName = clean(f.CustomerName)
	f.Email = cleanEmail(f.Email)
	f.Phone = clean(f.Phone)
	f.PackageCondition = strings.ToLower(clean(f.PackageCondition))
	f.ProductCondition = strings.ToLower(clean(f.ProductCondition))
	f.Reason = strings.TrimSpace(f.Reason)
	for i := range f.Articles {
		f.Articles[i].ArticleNumber = clean(f.Articles[i].ArticleNumber)
		f.Articles[i].Name = clean(f.Articles[i].Name)
	}
}

func (f *ReturnForm) ToModel() *models.Return {
	articles := make([]models.ReturnArticle, 0, len(f.Articles))
	for _, a := range f.Articles {
		articles = append(articles, models.ReturnArticle{
			ArticleNumber: a.ArticleNumber,
			Name:          a.Name,
			Quantity:      a.Quantity.Int(),
		})
	}
	return &models.Return{
		OrderNumber:      f.OrderNumber,
		CustomerNumber:   f.CustomerNumber,
		CustomerName:     f.CustomerName,
		Email:            f.Email,
		Phone:            f.Phone,
		PackageCondition: f.PackageCondition,
		ProductCondition: f.ProductCondition,
		Reason:           f.Reason,
		Articles:         articles,
	}
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cleanEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func cleanVIN(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}

// parseDate reads an already validated YYYY-MM-DD value; empty yields nil.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(validation.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
