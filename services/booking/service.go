package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"appointly/database/repository"
	"appointly/models"
	"appointly/services/slots"

	"go.uber.org/zap"
)

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings  repository.BookingRepository
	Schedules repository.ScheduleRepository
	Customers repository.CustomerRepository
	Tx        TransactionRunner
	Directory ScheduleDirectory
	Notifier  Notifier
	Logger    *zap.Logger
	Now       func() time.Time

	// NotifyTimeout bounds each post-commit notification call.
	NotifyTimeout time.Duration

	pending sync.WaitGroup
}

func NewDefaultBookingService(
	bookings repository.BookingRepository,
	schedules repository.ScheduleRepository,
	customers repository.CustomerRepository,
	tx TransactionRunner,
	directory ScheduleDirectory,
	notifier Notifier,
	logger *zap.Logger,
) (*DefaultBookingService, error) {
	if bookings == nil || schedules == nil || customers == nil || tx == nil {
		return nil, fmt.Errorf("booking service initialization error: repositories and transaction runner are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultBookingService{
		Bookings:      bookings,
		Schedules:     schedules,
		Customers:     customers,
		Tx:            tx,
		Directory:     directory,
		Notifier:      notifier,
		Logger:        logger,
		Now:           time.Now,
		NotifyTimeout: 10 * time.Second,
	}, nil
}

func (s *DefaultBookingService) now() time.Time {
	return s.Now().UTC().Truncate(time.Millisecond)
}

// Wait blocks until every post-commit side effect has finished.
func (s *DefaultBookingService) Wait() {
	s.pending.Wait()
}

// background runs a best-effort side effect detached from the request.
func (s *DefaultBookingService) background(name string, fn func(ctx context.Context) error) {
	if s.Notifier == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.NotifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.Logger.Warn("Post-commit side effect failed", zap.String("effect", name), zap.Error(err))
		}
	}()
}

// appointmentTime combines the schedule's day with the booking's start hour.
func appointmentTime(sc *models.Schedule, startTime string) (time.Time, error) {
	day, err := sc.Date()
	if err != nil {
		return time.Time{}, err
	}
	h, err := slots.ParseHour(startTime)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(h) * time.Hour), nil
}
