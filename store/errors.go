package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate marks a unique-constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

// StoreError wraps every failure of the backing store with the operation
// and collection it happened in.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// wrap classifies err and attaches op and collection. nil stays nil.
func wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		err = ErrNotFound
	case isDuplicate(err):
		err = errors.Join(ErrDuplicate, err)
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}

// isDuplicate recognizes unique violations from drivers that gorm does not
// translate.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, ErrDuplicate) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}
