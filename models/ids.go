package models

import "github.com/google/uuid"

// newID returns the receipt identifier handed back to submitters.
func newID() string {
	return uuid.NewString()
}

func assignID(id *string) {
	if *id == "" {
		*id = newID()
	}
}
