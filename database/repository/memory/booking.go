package memoryRepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"appointly/database"
	"appointly/database/repository"
	"appointly/models"
)

// BookingRepo implements the booking repository on a Store. It enforces the
// (scheduleId, startTime) uniqueness of the Mongo index.
type BookingRepo struct {
	st *Store
}

func NewBookingRepo(st *Store) *BookingRepo {
	return &BookingRepo{st: st}
}

func (r *BookingRepo) EnsureIndexes(context.Context) error { return nil }

func (r *BookingRepo) Insert(ctx context.Context, b *models.Booking) error {
	defer r.st.begin(ctx)()
	for _, existing := range r.st.bookings {
		if existing.ID == b.ID || (existing.ScheduleID == b.ScheduleID && existing.StartTime == b.StartTime) {
			return fmt.Errorf("insert booking: %w", database.ErrDuplicate)
		}
	}
	r.st.bookings[b.ID] = *b
	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	defer r.st.begin(ctx)()
	b, ok := r.st.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, database.ErrNotFound)
	}
	return &b, nil
}

func matches(b models.Booking, f models.BookingFilter) bool {
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if !f.CreatedFrom.IsZero() && b.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedTo.IsZero() && b.CreatedAt.After(f.CreatedTo) {
		return false
	}
	if f.ScheduleIDs != nil || !f.AppointmentFrom.IsZero() || !f.AppointmentTo.IsZero() {
		found := false
		for _, id := range f.ScheduleIDs {
			if id == b.ScheduleID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *BookingRepo) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, int64, error) {
	f.Normalize()
	unlock := r.st.begin(ctx)
	all := []models.Booking{}
	for _, b := range r.st.bookings {
		if matches(b, f) {
			all = append(all, b)
		}
	}
	unlock()

	sortBookingsNewestFirst(all)
	total := int64(len(all))
	start := (f.Page - 1) * f.PageSize
	if start >= len(all) {
		return []models.Booking{}, total, nil
	}
	end := start + f.PageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *BookingRepo) FindByCustomer(ctx context.Context, q models.CustomerLookup) ([]models.Booking, error) {
	unlock := r.st.begin(ctx)
	out := []models.Booking{}
	for _, b := range r.st.bookings {
		if b.Name != q.Name {
			continue
		}
		if q.Phone != "" && b.Phone != q.Phone {
			continue
		}
		if q.Email != "" && b.Email != q.Email {
			continue
		}
		out = append(out, b)
	}
	unlock()
	sortBookingsNewestFirst(out)
	return out, nil
}

func (r *BookingRepo) ApplyStatusChange(ctx context.Context, id string, expected models.BookingStatus, change repository.StatusChange) error {
	defer r.st.begin(ctx)()
	b, ok := r.st.bookings[id]
	if !ok || b.Status != expected {
		return fmt.Errorf("booking %s: %w", id, database.ErrNotUpdated)
	}
	if change.Status != nil {
		b.Status = *change.Status
	}
	if change.Total != nil {
		b.Total = *change.Total
	}
	b.UpdatedAt = change.UpdatedAt
	r.st.bookings[id] = b
	return nil
}

func (r *BookingRepo) CountMissed(ctx context.Context, name, email, phone string) (int64, error) {
	defer r.st.begin(ctx)()
	var n int64
	for _, b := range r.st.bookings {
		if b.Status == models.StatusMissed && b.Name == name && b.Email == email && b.Phone == phone {
			n++
		}
	}
	return n, nil
}

func (r *BookingRepo) CountByStatus(ctx context.Context) (map[models.BookingStatus]int64, error) {
	defer r.st.begin(ctx)()
	out := map[models.BookingStatus]int64{}
	for _, b := range r.st.bookings {
		out[b.Status]++
	}
	return out, nil
}

func (r *BookingRepo) DailyIncome(ctx context.Context, from, to time.Time) ([]models.DailyIncome, error) {
	unlock := r.st.begin(ctx)
	byDay := map[string]*models.DailyIncome{}
	for _, b := range r.st.bookings {
		if b.Status != models.StatusCompleted || b.CreatedAt.Before(from) || b.CreatedAt.After(to) {
			continue
		}
		day := b.CreatedAt.UTC().Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &models.DailyIncome{Date: day}
			byDay[day] = row
		}
		row.Total += b.Total
		row.Count++
	}
	unlock()

	out := make([]models.DailyIncome, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
