package memoryRepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"appointly/database"
	"appointly/models"
	"appointly/services/slots"
)

// ScheduleRepo implements the schedule repository on a Store.
type ScheduleRepo struct {
	st  *Store
	Now func() time.Time
}

func NewScheduleRepo(st *Store) *ScheduleRepo {
	return &ScheduleRepo{st: st, Now: time.Now}
}

func (r *ScheduleRepo) EnsureIndexes(context.Context) error { return nil }

func (r *ScheduleRepo) Create(ctx context.Context, sc *models.Schedule) error {
	defer r.st.begin(ctx)()
	for _, existing := range r.st.schedules {
		if existing.ID == sc.ID || (existing.Year == sc.Year && existing.Month == sc.Month && existing.Day == sc.Day) {
			return fmt.Errorf("insert schedule: %w", database.ErrDuplicate)
		}
	}
	if sc.Bookings == nil {
		sc.Bookings = []string{}
	}
	r.st.schedules[sc.ID] = cloneSchedule(*sc)
	return nil
}

func (r *ScheduleRepo) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	defer r.st.begin(ctx)()
	sc, ok := r.st.schedules[id]
	if !ok {
		return nil, fmt.Errorf("schedule %s: %w", id, database.ErrNotFound)
	}
	out := cloneSchedule(sc)
	return &out, nil
}

func (r *ScheduleRepo) GetByDate(ctx context.Context, key models.DateKey) (*models.Schedule, error) {
	defer r.st.begin(ctx)()
	for _, sc := range r.st.schedules {
		if sc.Year == key.Year && sc.Month == key.Month && sc.Day == key.Day {
			out := cloneSchedule(sc)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("schedule %v: %w", key, database.ErrNotFound)
}

func (r *ScheduleRepo) ListByDates(ctx context.Context, keys []models.DateKey) ([]models.Schedule, error) {
	want := make(map[models.DateKey]struct{}, len(keys))
	for _, k := range keys {
		want[k] = struct{}{}
	}
	defer r.st.begin(ctx)()
	out := []models.Schedule{}
	for _, sc := range r.st.schedules {
		if _, ok := want[models.DateKey{Year: sc.Year, Month: sc.Month, Day: sc.Day}]; ok {
			out = append(out, cloneSchedule(sc))
		}
	}
	return out, nil
}

func (r *ScheduleRepo) List(ctx context.Context) ([]models.Schedule, error) {
	defer r.st.begin(ctx)()
	out := make([]models.Schedule, 0, len(r.st.schedules))
	for _, sc := range r.st.schedules {
		out = append(out, cloneSchedule(sc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ScheduleRepo) Replace(ctx context.Context, sc *models.Schedule, expectedUpdatedAt time.Time) error {
	defer r.st.begin(ctx)()
	cur, ok := r.st.schedules[sc.ID]
	if !ok || !cur.UpdatedAt.Equal(expectedUpdatedAt) {
		return fmt.Errorf("schedule %s: %w", sc.ID, database.ErrNotUpdated)
	}
	for id, other := range r.st.schedules {
		if id != sc.ID && other.Year == sc.Year && other.Month == sc.Month && other.Day == sc.Day {
			return fmt.Errorf("update schedule: %w", database.ErrDuplicate)
		}
	}
	next := cloneSchedule(*sc)
	next.Bookings = cur.Bookings
	next.CreatedAt = cur.CreatedAt
	r.st.schedules[sc.ID] = next
	return nil
}

func (r *ScheduleRepo) Delete(ctx context.Context, id string) error {
	defer r.st.begin(ctx)()
	if _, ok := r.st.schedules[id]; !ok {
		return fmt.Errorf("schedule %s: %w", id, database.ErrNotFound)
	}
	delete(r.st.schedules, id)
	return nil
}

func (r *ScheduleRepo) RemoveSlot(ctx context.Context, id, label string) (*models.Schedule, error) {
	defer r.st.begin(ctx)()
	sc, ok := r.st.schedules[id]
	if !ok {
		return nil, fmt.Errorf("schedule %s: %w", id, database.ErrNotFound)
	}
	remaining := make([]string, 0, len(sc.AvailableSlots))
	found := false
	for _, s := range sc.AvailableSlots {
		if s == label {
			found = true
			continue
		}
		remaining = append(remaining, s)
	}
	if !found {
		return nil, fmt.Errorf("slot %s on schedule %s: %w", label, id, database.ErrNotFound)
	}
	sc.AvailableSlots = remaining
	sc.UpdatedAt = r.Now().UTC().Truncate(time.Millisecond)
	r.st.schedules[id] = sc
	out := cloneSchedule(sc)
	return &out, nil
}

func (r *ScheduleRepo) UpdateAfterBooking(ctx context.Context, scheduleID, bookingID, startTime string, durationMinutes float64) (*models.Schedule, error) {
	defer r.st.begin(ctx)()
	sc, ok := r.st.schedules[scheduleID]
	if !ok {
		return nil, fmt.Errorf("schedule %s: %w", scheduleID, database.ErrNotFound)
	}
	startHour, err := slots.ParseHour(startTime)
	if err != nil {
		return nil, err
	}
	fits, err := slots.Covers(sc.AvailableSlots, startTime, durationMinutes)
	if err != nil {
		return nil, err
	}
	if !fits {
		return nil, fmt.Errorf("schedule %s at %s: %w", scheduleID, startTime, database.ErrScheduleNotUpdated)
	}
	sc.AvailableSlots = slots.ConsumeSlots(sc.AvailableSlots, startHour, durationMinutes)
	sc.Bookings = append(append([]string{}, sc.Bookings...), bookingID)
	sc.UpdatedAt = r.Now().UTC().Truncate(time.Millisecond)
	r.st.schedules[scheduleID] = sc
	out := cloneSchedule(sc)
	return &out, nil
}
