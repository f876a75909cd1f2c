package schedule

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"appointly/apperror"
	"appointly/database"
	"appointly/database/repository"
	"appointly/models"
	"appointly/services/slots"

	"go.uber.org/zap"
)

// Service applies the schedule rules on top of the repository.
type Service struct {
	Repo   repository.ScheduleRepository
	Cache  Cache
	Logger *zap.Logger
	Now    func() time.Time
}

func NewService(repo repository.ScheduleRepository, cache Cache, logger *zap.Logger) *Service {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Service{Repo: repo, Cache: cache, Logger: logger, Now: time.Now}
}

func (s *Service) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

func keyOf(sc *models.Schedule) models.DateKey {
	return models.DateKey{Year: sc.Year, Month: sc.Month, Day: sc.Day}
}

// Create opens a new day. The date must not be before today and the
// start/end pair must produce at least one slot.
func (s *Service) Create(ctx context.Context, req models.CreateScheduleRequest) (*models.Schedule, error) {
	year := strings.TrimSpace(req.Year)
	month := strings.TrimSpace(req.Month)
	day := strings.TrimSpace(req.Day)
	start := strings.TrimSpace(req.StartTime)
	end := strings.TrimSpace(req.EndTime)
	if year == "" || month == "" || day == "" || start == "" || end == "" {
		return nil, apperror.Validation("year, month, day, startTime and endTime are required")
	}

	date, err := parseDate(year, month, day)
	if err != nil {
		return nil, err
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return nil, apperror.Validation("cannot create a schedule for a past date")
	}

	generated, err := slots.GenerateSlots(start, end)
	if err != nil {
		return nil, apperror.Validation("invalid start or end time: %v", err)
	}

	key := models.DateKeyOf(date)
	sc := &models.Schedule{
		ID:             database.NewID(),
		Year:           key.Year,
		Month:          key.Month,
		Day:            key.Day,
		StartTime:      slots.Label(mustHour(start)),
		EndTime:        slots.Label(mustHour(end)),
		AvailableSlots: generated,
		Bookings:       []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.Repo.Create(ctx, sc); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, apperror.Validation("schedule already exists for this date")
		}
		return nil, fmt.Errorf("create schedule: %w", err)
	}
	s.Cache.Invalidate(ctx, key)
	s.Logger.Info("Schedule created", zap.String("scheduleId", sc.ID), zap.String("date", date.Format("2006-01-02")))
	return sc, nil
}

// Update applies a partial change. Year, month and day are each checked
// against the current date on their own. Slots are regenerated only when the
// times change, keeping hours already consumed by bookings out of the list.
func (s *Service) Update(ctx context.Context, id string, req models.UpdateScheduleRequest) (*models.Schedule, error) {
	if req.Empty() {
		return nil, apperror.Validation("no fields to update")
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	next := *current

	if req.Year != nil {
		y, err := strconv.Atoi(strings.TrimSpace(*req.Year))
		if err != nil || y < 1 {
			return nil, apperror.Validation("invalid year %q", *req.Year)
		}
		if y < now.Year() {
			return nil, apperror.Validation("year cannot be in the past")
		}
		next.Year = strconv.Itoa(y)
	}
	if req.Month != nil {
		m, err := parseMonth(*req.Month)
		if err != nil {
			return nil, err
		}
		if m < now.Month() {
			return nil, apperror.Validation("month cannot be in the past")
		}
		next.Month = m.String()
	}
	if req.Day != nil {
		d, err := strconv.Atoi(strings.TrimSpace(*req.Day))
		if err != nil || d < 1 || d > 31 {
			return nil, apperror.Validation("invalid day %q", *req.Day)
		}
		if d < now.Day() {
			return nil, apperror.Validation("day cannot be in the past")
		}
		next.Day = fmt.Sprintf("%02d", d)
	}
	if _, err := parseDate(next.Year, next.Month, next.Day); err != nil {
		return nil, err
	}

	if req.StartTime != nil || req.EndTime != nil {
		start, end := current.StartTime, current.EndTime
		if req.StartTime != nil {
			start = strings.TrimSpace(*req.StartTime)
		}
		if req.EndTime != nil {
			end = strings.TrimSpace(*req.EndTime)
		}
		startHour, err := slots.ParseHour(start)
		if err != nil {
			return nil, apperror.Validation("invalid startTime: %v", err)
		}
		endHour, err := slots.ParseHour(end)
		if err != nil {
			return nil, apperror.Validation("invalid endTime: %v", err)
		}
		if startHour >= endHour {
			return nil, apperror.Validation("startTime must be earlier than endTime")
		}

		generated, _ := slots.GenerateSlots(start, end)
		previous, err := slots.GenerateSlots(current.StartTime, current.EndTime)
		if err != nil {
			previous = current.AvailableSlots
		}
		consumed := slots.Difference(previous, current.AvailableSlots)
		next.StartTime = slots.Label(startHour)
		next.EndTime = slots.Label(endHour)
		next.AvailableSlots = slots.Difference(generated, consumed)
	}

	next.UpdatedAt = now
	if err := s.Repo.Replace(ctx, &next, current.UpdatedAt); err != nil {
		switch {
		case errors.Is(err, database.ErrDuplicate):
			return nil, apperror.Validation("schedule already exists for this date")
		case errors.Is(err, database.ErrNotUpdated):
			return nil, apperror.SlotConflict("schedule was modified concurrently", err)
		}
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	s.Cache.Invalidate(ctx, keyOf(current))
	s.Cache.Invalidate(ctx, keyOf(&next))
	return &next, nil
}

// RemoveSlot takes one label out of the free list.
func (s *Service) RemoveSlot(ctx context.Context, id, label string) (*models.Schedule, error) {
	if !slots.Valid(label) {
		return nil, apperror.Validation("invalid slot %q", label)
	}
	sc, err := s.Repo.RemoveSlot(ctx, id, label)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("slot is not available on this schedule")
		}
		return nil, fmt.Errorf("remove slot: %w", err)
	}
	s.Cache.Invalidate(ctx, keyOf(sc))
	return sc, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	sc, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("schedule not found")
		}
		return fmt.Errorf("delete schedule: %w", err)
	}
	s.Cache.Invalidate(ctx, keyOf(sc))
	s.Logger.Info("Schedule deleted", zap.String("scheduleId", id))
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Schedule, error) {
	sc, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("schedule not found")
		}
		return nil, fmt.Errorf("get schedule: %w", err)
	}
	return sc, nil
}

func (s *Service) List(ctx context.Context) ([]models.Schedule, error) {
	out, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return out, nil
}

// GetByDate looks up the schedule of the calendar day of date.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (*models.Schedule, error) {
	key := models.DateKeyOf(date)
	sc, gen, ok := s.Cache.Get(ctx, key)
	if ok {
		return sc, nil
	}
	sc, err := s.Repo.GetByDate(ctx, key)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperror.NotFound("no schedule for this date")
		}
		return nil, fmt.Errorf("get schedule by date: %w", err)
	}
	s.Cache.Set(ctx, sc, gen)
	return sc, nil
}

// IDsBetween returns the IDs of schedules whose day lies in [from, to].
func (s *Service) IDsBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	const maxDays = 366
	if to.Before(from) {
		return nil, apperror.Validation("appointment range end is before its start")
	}
	var keys []models.DateKey
	for d := truncateDay(from); !d.After(to) && len(keys) <= maxDays; d = d.AddDate(0, 0, 1) {
		keys = append(keys, models.DateKeyOf(d))
	}
	if len(keys) > maxDays {
		return nil, apperror.Validation("appointment range may span at most %d days", maxDays)
	}
	found, err := s.Repo.ListByDates(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("resolve schedules by date: %w", err)
	}
	ids := make([]string, 0, len(found))
	for _, sc := range found {
		ids = append(ids, sc.ID)
	}
	return ids, nil
}

// AvailableStartTimes lists the labels where a service of the given length fits.
func (s *Service) AvailableStartTimes(ctx context.Context, id string, durationMinutes float64) ([]string, error) {
	if durationMinutes <= 0 {
		return nil, apperror.Validation("duration must be positive")
	}
	sc, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return slots.StartTimesFor(sc.AvailableSlots, durationMinutes), nil
}

// Invalidate drops the cached copy of a day.
func (s *Service) Invalidate(ctx context.Context, key models.DateKey) {
	s.Cache.Invalidate(ctx, key)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func mustHour(label string) int {
	h, _ := slots.ParseHour(label)
	return h
}

func parseMonth(raw string) (time.Month, error) {
	v := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(v); err == nil {
		if n < 1 || n > 12 {
			return 0, apperror.Validation("invalid month %q", raw)
		}
		return time.Month(n), nil
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), v) {
			return m, nil
		}
	}
	return 0, apperror.Validation("invalid month %q", raw)
}

// parseDate validates a year/month/day triple and returns the UTC midnight of it.
func parseDate(year, month, day string) (time.Time, error) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y < 1 {
		return time.Time{}, apperror.Validation("invalid year %q", year)
	}
	m, err := parseMonth(month)
	if err != nil {
		return time.Time{}, err
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil || d < 1 || d > 31 {
		return time.Time{}, apperror.Validation("invalid day %q", day)
	}
	date := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if date.Day() != d {
		return time.Time{}, apperror.Validation("%s %d has no day %d", m, y, d)
	}
	return date, nil
}
