package customerRepo

import (
	"context"

	"appointly/models"
)

// CustomerRepository stores customers keyed by (phone, email).
type CustomerRepository interface {
	EnsureIndexes(ctx context.Context) error
	FindByContact(ctx context.Context, phone, email string) (*models.Customer, error)
	Create(ctx context.Context, c *models.Customer) error
	AppendBooking(ctx context.Context, customerID, bookingID string) error
	SetBlocked(ctx context.Context, phone, email string, blocked bool) error
}
