package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"appointly/apperror"
	"appointly/database"
	"appointly/metrics"
	"appointly/models"

	"go.uber.org/zap"
)

// CreateBooking validates the request, resolves the customer and then, in one
// transaction, inserts the booking, consumes the schedule's slots and links
// the booking to the customer. Notifications are queued after commit.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (*models.Booking, error) {
	req = sanitizeBooking(req)
	if err := validateStruct(req); err != nil {
		metrics.IncBooking(metrics.OutcomeInvalid)
		return nil, err
	}

	customer, err := s.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	if customer.IsBlocked {
		metrics.IncBooking(metrics.OutcomeBlocked)
		s.Logger.Info("Blocked customer attempted a booking", zap.String("customerId", customer.ID))
		return nil, apperror.Blocked()
	}

	now := s.now()
	b := &models.Booking{
		ID:         database.NewID(),
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		StartTime:  req.StartTime,
		ScheduleID: req.ScheduleID,
		Service:    req.Service,
		Status:     models.StatusUpcoming,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	duration := req.Service.TotalDuration()

	var sc *models.Schedule
	started := time.Now()
	err = s.Tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		if err := s.Bookings.Insert(txCtx, b); err != nil {
			return err
		}
		updated, err := s.Schedules.UpdateAfterBooking(txCtx, b.ScheduleID, b.ID, b.StartTime, duration)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return apperror.NotFound("schedule not found")
			}
			return err
		}
		if err := s.Customers.AppendBooking(txCtx, customer.ID, b.ID); err != nil {
			return err
		}
		sc = updated
		return nil
	})
	metrics.ObserveTransaction(time.Since(started))
	if err != nil {
		return nil, s.mapCreateError(err, b.ID)
	}

	metrics.IncBooking(metrics.OutcomeCreated)
	s.Logger.Info("Booking created",
		zap.String("bookingId", b.ID),
		zap.String("scheduleId", b.ScheduleID),
		zap.String("startTime", b.StartTime),
		zap.Float64("durationMinutes", duration),
	)
	s.afterCreate(*b, sc)
	return b, nil
}

// resolveCustomer finds the customer by phone and email, creating one on the
// first attempt. A concurrent creation is resolved by reading the winner.
func (s *DefaultBookingService) resolveCustomer(ctx context.Context, req models.CreateBookingRequest) (*models.Customer, error) {
	c, err := s.Customers.FindByContact(ctx, req.Phone, req.Email)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, storageError("customer lookup", err)
	}

	now := s.now()
	c = &models.Customer{
		ID:        database.NewID(),
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Bookings:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Customers.Create(ctx, c); err != nil {
		if !errors.Is(err, database.ErrDuplicate) {
			return nil, storageError("customer creation", err)
		}
		existing, ferr := s.Customers.FindByContact(ctx, req.Phone, req.Email)
		if ferr != nil {
			return nil, storageError("customer lookup", fmt.Errorf("after duplicate create: %w", ferr))
		}
		return existing, nil
	}
	return c, nil
}

func (s *DefaultBookingService) afterCreate(b models.Booking, sc *models.Schedule) {
	if sc == nil {
		return
	}
	if s.Directory != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		s.Directory.Invalidate(ctx, models.DateKey{Year: sc.Year, Month: sc.Month, Day: sc.Day})
		cancel()
	}
	at, err := appointmentTime(sc, b.StartTime)
	if err != nil {
		s.Logger.Warn("Cannot derive appointment time", zap.String("bookingId", b.ID), zap.Error(err))
		return
	}
	s.background("booking_created", func(ctx context.Context) error {
		return s.Notifier.BookingCreated(ctx, &b, at)
	})
	s.background("booking_reminder", func(ctx context.Context) error {
		return s.Notifier.ScheduleReminder(ctx, &b, at)
	})
}
