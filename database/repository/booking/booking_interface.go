package bookingRepo

import (
	"context"
	"time"

	"appointly/models"
)

// StatusChange is applied only while the booking still has the expected status.
type StatusChange struct {
	Status    *models.BookingStatus
	Total     *float64
	UpdatedAt time.Time
}

// BookingRepository persists bookings. Bookings are never deleted.
type BookingRepository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, f models.BookingFilter) ([]models.Booking, int64, error)
	FindByCustomer(ctx context.Context, q models.CustomerLookup) ([]models.Booking, error)
	ApplyStatusChange(ctx context.Context, id string, expected models.BookingStatus, change StatusChange) error
	CountMissed(ctx context.Context, name, email, phone string) (int64, error)
	CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error)
	DailyIncome(ctx context.Context, from, to time.Time) ([]models.DailyIncome, error)
}
