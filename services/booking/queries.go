package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"appointly/apperror"
	"appointly/database"
	"appointly/models"
)

func (s *DefaultBookingService) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("booking not found")
		}
		return nil, storageError("booking lookup", err)
	}
	return b, nil
}

// List pages through bookings. An appointment date range is resolved to the
// schedules of those days first.
func (s *DefaultBookingService) List(ctx context.Context, f models.BookingFilter) (*models.BookingPage, error) {
	f.Normalize()
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperror.Validation("unknown booking status %q", f.Status)
	}
	if !f.CreatedFrom.IsZero() && !f.CreatedTo.IsZero() && f.CreatedTo.Before(f.CreatedFrom) {
		return nil, apperror.Validation("createdTo is before createdFrom")
	}
	if !f.AppointmentFrom.IsZero() || !f.AppointmentTo.IsZero() {
		if f.AppointmentFrom.IsZero() {
			f.AppointmentFrom = f.AppointmentTo
		}
		if f.AppointmentTo.IsZero() {
			f.AppointmentTo = f.AppointmentFrom
		}
		if s.Directory == nil {
			return nil, apperror.Validation("appointment date filtering is not available")
		}
		ids, err := s.Directory.IDsBetween(ctx, f.AppointmentFrom, f.AppointmentTo)
		if err != nil {
			return nil, storageError("schedule lookup", err)
		}
		f.ScheduleIDs = ids
	}

	items, total, err := s.Bookings.List(ctx, f)
	if err != nil {
		return nil, storageError("booking listing", err)
	}
	return &models.BookingPage{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// FindByCustomer needs the name and at least one of phone and email.
func (s *DefaultBookingService) FindByCustomer(ctx context.Context, q models.CustomerLookup) ([]models.Booking, error) {
	q.Name = strings.Join(strings.Fields(q.Name), " ")
	q.Phone = phoneNoise.Replace(strings.TrimSpace(q.Phone))
	q.Email = strings.ToLower(strings.TrimSpace(q.Email))
	if q.Name == "" || (q.Phone == "" && q.Email == "") {
		return nil, apperror.Validation("name and either phone or email are required")
	}
	out, err := s.Bookings.FindByCustomer(ctx, q)
	if err != nil {
		return nil, storageError("customer booking lookup", err)
	}
	return out, nil
}

// SummaryCounts reports the number of bookings per status.
func (s *DefaultBookingService) SummaryCounts(ctx context.Context) (*models.StatusSummary, error) {
	counts, err := s.Bookings.CountByStatus(ctx)
	if err != nil {
		return nil, storageError("booking summary", err)
	}
	sum := &models.StatusSummary{ByStatus: make(map[models.BookingStatus]int64, len(models.AllStatuses))}
	for _, st := range models.AllStatuses {
		sum.ByStatus[st] = counts[st]
		sum.Total += counts[st]
	}
	return sum, nil
}

// IncomeReport sums the totals of completed bookings created in [from, to].
func (s *DefaultBookingService) IncomeReport(ctx context.Context, from, to time.Time) (*models.IncomeReport, error) {
	if from.IsZero() || to.IsZero() {
		return nil, apperror.Validation("from and to are required")
	}
	if to.Before(from) {
		return nil, apperror.Validation("to is before from")
	}
	days, err := s.Bookings.DailyIncome(ctx, from, to)
	if err != nil {
		return nil, storageError("income report", err)
	}
	report := &models.IncomeReport{From: from, To: to, Days: days}
	for _, d := range days {
		report.Total += d.Total
		report.Count += d.Count
	}
	return report, nil
}
