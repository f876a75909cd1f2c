package database

import "github.com/google/uuid"

// NewID returns a new document identifier.
func NewID() string {
	return uuid.New().String()
}
