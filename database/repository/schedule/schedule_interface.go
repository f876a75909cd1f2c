package scheduleRepo

import (
	"context"
	"time"

	"appointly/models"
)

// ScheduleRepository persists day schedules and their free slot lists.
// Every method honours a transactional session carried by ctx.
type ScheduleRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, s *models.Schedule) error
	GetByID(ctx context.Context, id string) (*models.Schedule, error)
	GetByDate(ctx context.Context, key models.DateKey) (*models.Schedule, error)
	ListByDates(ctx context.Context, keys []models.DateKey) ([]models.Schedule, error)
	List(ctx context.Context) ([]models.Schedule, error)
	// Replace overwrites the schedule if its updatedAt still equals expectedUpdatedAt.
	Replace(ctx context.Context, s *models.Schedule, expectedUpdatedAt time.Time) error
	Delete(ctx context.Context, id string) error
	RemoveSlot(ctx context.Context, id, label string) (*models.Schedule, error)
	// UpdateAfterBooking removes the slots a booking occupies and records the
	// booking on the schedule. It must run inside the booking transaction.
	UpdateAfterBooking(ctx context.Context, scheduleID, bookingID, startTime string, durationMinutes float64) (*models.Schedule, error)
}
