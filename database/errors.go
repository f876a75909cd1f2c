package database

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Storage-level sentinels shared by the repositories.
var (
	ErrNotFound           = errors.New("document not found")
	ErrDuplicate          = errors.New("duplicate key")
	ErrNotUpdated         = errors.New("document was modified concurrently")
	ErrScheduleNotUpdated = errors.New("schedule slots could not be reserved")
)

// WrapWriteError tags duplicate-key failures with ErrDuplicate.
func WrapWriteError(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
