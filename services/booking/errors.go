package booking

import (
	"context"
	"errors"

	"appointly/apperror"
	"appointly/database"
	"appointly/metrics"

	"go.uber.org/zap"
)

// mapCreateError turns a failed booking transaction into the error kind the
// caller sees, and records the outcome.
func (s *DefaultBookingService) mapCreateError(err error, bookingID string) error {
	var appErr *apperror.Error
	switch {
	case errors.Is(err, database.ErrDuplicate), errors.Is(err, database.ErrScheduleNotUpdated):
		metrics.IncBooking(metrics.OutcomeConflict)
		s.Logger.Info("Booking lost slot race", zap.String("bookingId", bookingID), zap.Error(err))
		return apperror.SlotConflict("the requested time is no longer available", err)
	case errors.As(err, &appErr):
		switch appErr.Kind {
		case apperror.KindDependencyUnavailable:
			metrics.IncBooking(metrics.OutcomeUnavailable)
		case apperror.KindValidation, apperror.KindNotFound:
			metrics.IncBooking(metrics.OutcomeInvalid)
		default:
			metrics.IncBooking(metrics.OutcomeAborted)
		}
		return appErr
	case errors.Is(err, context.Canceled):
		metrics.IncBooking(metrics.OutcomeAborted)
		return apperror.Aborted(err)
	}
	metrics.IncBooking(metrics.OutcomeAborted)
	s.Logger.Error("Booking transaction aborted", zap.String("bookingId", bookingID), zap.Error(err))
	return apperror.Aborted(err)
}

// storageError wraps an unexpected repository failure outside a transaction.
func storageError(op string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.New(apperror.KindTransactionAborted, op+" failed", err)
}
