package store

import (
	"context"
	"time"

	"github.com/autoteile-schmidt/service-portal-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ComplaintRepository stores complaints together with their items, vehicle
// data and attachments. Parent and children are written and removed in one
// transaction.
type ComplaintRepository struct {
	*GormRepository[models.Complaint]
}

func NewComplaintRepository(db *gorm.DB, timeout time.Duration) *ComplaintRepository {
	return &ComplaintRepository{GormRepository: NewGormRepository[models.Complaint](db, timeout)}
}

// Create inserts the complaint first and its children afterwards. A failure
// at any step rolls back everything.
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(c).Error; err != nil {
			return wrap("create", r.collection, err)
		}

		for i := range c.Items {
			c.Items[i].ComplaintID = c.ID
		}
		if len(c.Items) > 0 {
			if err := tx.Create(&c.Items).Error; err != nil {
				return wrap("create", "complaint_items", err)
			}
		}

		if c.VehicleData != nil {
			c.VehicleData.ComplaintID = c.ID
			if err := tx.Create(c.VehicleData).Error; err != nil {
				return wrap("create", "complaint_vehicle_data", err)
			}
		}

		for i := range c.Attachments {
			c.Attachments[i].ComplaintID = c.ID
		}
		if len(c.Attachments) > 0 {
			if err := tx.Create(&c.Attachments).Error; err != nil {
				return wrap("create", "complaint_attachments", err)
			}
		}
		return nil
	})
	return wrap("create", r.collection, err)
}

// Get loads a complaint with all of its children.
func (r *ComplaintRepository) Get(ctx context.Context, id string) (*models.Complaint, error) {
	var c models.Complaint
	err := r.read(ctx, "get", func(db *gorm.DB) error {
		return preloadChildren(db).Where("id = ?", id).First(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns complaints newest first, children included.
func (r *ComplaintRepository) List(ctx context.Context, filter Filter) ([]models.Complaint, error) {
	var complaints []models.Complaint
	err := r.read(ctx, "list", func(db *gorm.DB) error {
		return apply(preloadChildren(db), filter).Order("created_at DESC").Find(&complaints).Error
	})
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

// Update patches the complaint row and returns the complaint with children.
func (r *ComplaintRepository) Update(ctx context.Context, id string, patch Patch) (*models.Complaint, error) {
	if _, err := r.GormRepository.Update(ctx, id, patch); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Delete removes the complaint and every child row.
func (r *ComplaintRepository) Delete(ctx context.Context, id string) error {
	_, err := r.DeleteCascade(ctx, id)
	return err
}

// DeleteCascade removes children first, then the complaint, inside one
// transaction. It returns the attachment rows that were removed so their
// stored files can be cleaned up by the caller.
func (r *ComplaintRepository) DeleteCascade(ctx context.Context, id string) ([]models.Attachment, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var attachments []models.Attachment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Complaint
		if err := tx.Select("id").Where("id = ?", id).First(&parent).Error; err != nil {
			return err
		}

		if err := tx.Where("complaint_id = ?", id).Find(&attachments).Error; err != nil {
			return err
		}

		children := []interface{}{&models.Attachment{}, &models.VehicleData{}, &models.ComplaintItem{}}
		for _, child := range children {
			if err := tx.Where("complaint_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}

		result := tx.Where("id = ?", id).Delete(&models.Complaint{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, wrap("delete", r.collection, err)
	}
	return attachments, nil
}

func preloadChildren(db *gorm.DB) *gorm.DB {
	return db.Preload("Items").Preload("VehicleData").Preload("Attachments")
}
