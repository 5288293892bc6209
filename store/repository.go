// Package store persists submissions. Every call goes to the database; there
// is no read cache between handlers and the store.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// DefaultTimeout bounds a single store call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Filter narrows List and Count. Zero values mean no restriction.
type Filter struct {
	Status string
	Where  map[string]interface{}
	Limit  int
	Offset int
}

// Patch holds column updates keyed by column name.
type Patch map[string]interface{}

// Repository is the contract every collection offers.
type Repository[T any] interface {
	Create(ctx context.Context, record *T) error
	Get(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, filter Filter) ([]T, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	Update(ctx context.Context, id string, patch Patch) (*T, error)
	Delete(ctx context.Context, id string) error
}

type tabler interface {
	TableName() string
}

// GormRepository implements Repository for a single gorm model.
type GormRepository[T any] struct {
	db         *gorm.DB
	collection string
	timeout    time.Duration
}

// NewGormRepository creates a repository for T. The collection name is the
// model's table name.
func NewGormRepository[T any](db *gorm.DB, timeout time.Duration) *GormRepository[T] {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var zero T
	collection := "records"
	if t, ok := any(zero).(tabler); ok {
		collection = t.TableName()
	}
	return &GormRepository[T]{db: db, collection: collection, timeout: timeout}
}

// Collection returns the table the repository writes to.
func (r *GormRepository[T]) Collection() string {
	return r.collection
}

// Create inserts record. Writes are never retried.
func (r *GormRepository[T]) Create(ctx context.Context, record *T) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return wrap("create", r.collection, r.db.WithContext(ctx).Create(record).Error)
}

// Get loads the record with the given id.
func (r *GormRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	var record T
	err := r.read(ctx, "get", func(db *gorm.DB) error {
		return db.Where("id = ?", id).First(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// List returns records newest first.
func (r *GormRepository[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	var records []T
	err := r.read(ctx, "list", func(db *gorm.DB) error {
		return apply(db, filter).Order("created_at DESC").Find(&records).Error
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Count returns the number of records matching filter; paging is ignored.
func (r *GormRepository[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	var count int64
	filter.Limit, filter.Offset = 0, 0
	err := r.read(ctx, "count", func(db *gorm.DB) error {
		var zero T
		return apply(db.Model(&zero), filter).Count(&count).Error
	})
	return count, err
}

// Update applies patch to the record and returns the stored result.
func (r *GormRepository[T]) Update(ctx context.Context, id string, patch Patch) (*T, error) {
	if len(patch) == 0 {
		return r.Get(ctx, id)
	}

	writeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var zero T
	result := r.db.WithContext(writeCtx).Model(&zero).Where("id = ?", id).Updates(map[string]interface{}(patch))
	if result.Error != nil {
		return nil, wrap("update", r.collection, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, wrap("update", r.collection, ErrNotFound)
	}
	return r.Get(ctx, id)
}

// Delete removes the record with the given id.
func (r *GormRepository[T]) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var zero T
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&zero)
	if result.Error != nil {
		return wrap("delete", r.collection, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrap("delete", r.collection, ErrNotFound)
	}
	return nil
}

// read runs fn with the store timeout and retries once on backend failure.
// Missing records and cancelled callers are not retried.
func (r *GormRepository[T]) read(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = r.attempt(ctx, fn)
		if err == nil || errors.Is(err, gorm.ErrRecordNotFound) || ctx.Err() != nil {
			break
		}
	}
	return wrap(op, r.collection, err)
}

func (r *GormRepository[T]) attempt(ctx context.Context, fn func(db *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return fn(r.db.WithContext(ctx))
}

func apply(db *gorm.DB, filter Filter) *gorm.DB {
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if len(filter.Where) > 0 {
		db = db.Where(filter.Where)
	}
	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		db = db.Offset(filter.Offset)
	}
	return db
}
