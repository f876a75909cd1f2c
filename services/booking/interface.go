package booking

import (
	"context"
	"time"

	"appointly/models"
)

// BookingService is the booking transaction coordinator and status engine.
type BookingService interface {
	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error)
	UpdateStatusOrPrice(ctx context.Context, id string, req models.UpdateBookingRequest) (*models.Booking, error)
	Cancel(ctx context.Context, id string) (*models.Booking, error)
	Unblock(ctx context.Context, req models.UnblockRequest) error

	GetByID(ctx context.Context, id string) (*models.Booking, error)
	List(ctx context.Context, f models.BookingFilter) (*models.BookingPage, error)
	FindByCustomer(ctx context.Context, q models.CustomerLookup) ([]models.Booking, error)
	SummaryCounts(ctx context.Context) (*models.StatusSummary, error)
	IncomeReport(ctx context.Context, from, to time.Time) (*models.IncomeReport, error)
}

// TransactionRunner runs fn inside one multi-document transaction.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ScheduleDirectory is what the coordinator needs from the schedule service
// outside the transaction.
type ScheduleDirectory interface {
	IDsBetween(ctx context.Context, from, to time.Time) ([]string, error)
	Invalidate(ctx context.Context, key models.DateKey)
}

// Notifier queues customer and owner notifications. Calls happen after
// commit and their errors are only logged.
type Notifier interface {
	BookingCreated(ctx context.Context, b *models.Booking, appointment time.Time) error
	StatusChanged(ctx context.Context, b *models.Booking) error
	ScheduleReminder(ctx context.Context, b *models.Booking, appointment time.Time) error
	CancelReminder(ctx context.Context, bookingID string) error
}
