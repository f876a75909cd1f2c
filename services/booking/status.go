package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"appointly/apperror"
	"appointly/database"
	"appointly/database/repository"
	"appointly/metrics"
	"appointly/models"

	"go.uber.org/zap"
)

// missedLimit is the number of missed appointments that blocks a customer.
const missedLimit = 2

// UpdateStatusOrPrice changes a booking's status, its price, or both. A price
// alone may be set on any booking. Completing a booking fixes its total, and
// a second missed appointment blocks the customer in the same transaction.
func (s *DefaultBookingService) UpdateStatusOrPrice(ctx context.Context, id string, req models.UpdateBookingRequest) (*models.Booking, error) {
	if req.Status == nil && req.Price == nil {
		return nil, apperror.Validation("status or price is required")
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, apperror.Validation("unknown booking status %q", *req.Status)
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, apperror.Validation("price must not be negative")
	}

	var (
		updated *models.Booking
		changed bool
		blocked bool
	)
	err := s.Tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		updated, changed, blocked = nil, false, false

		b, err := s.Bookings.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return apperror.NotFound("booking not found")
			}
			return err
		}

		next := *b
		change := repository.StatusChange{UpdatedAt: s.now()}
		if req.Status != nil && *req.Status != b.Status {
			if !b.Status.CanTransitionTo(*req.Status) {
				return apperror.Validation("cannot change status from %s to %s", b.Status, *req.Status)
			}
			change.Status = req.Status
			next.Status = *req.Status
			if next.Status == models.StatusCompleted {
				total := b.Service.TotalPrice()
				if req.Price != nil {
					total = *req.Price
				}
				change.Total = &total
				next.Total = total
			}
		}
		if req.Price != nil && change.Total == nil {
			change.Total = req.Price
			next.Total = *req.Price
		}
		if change.Status == nil && change.Total == nil {
			updated = b
			return nil
		}

		if err := s.Bookings.ApplyStatusChange(txCtx, id, b.Status, change); err != nil {
			if errors.Is(err, database.ErrNotUpdated) {
				return apperror.Validation("booking was modified concurrently, please retry")
			}
			return err
		}
		next.UpdatedAt = change.UpdatedAt
		changed = change.Status != nil

		if change.Status != nil && next.Status == models.StatusMissed {
			missed, err := s.Bookings.CountMissed(txCtx, next.Name, next.Email, next.Phone)
			if err != nil {
				return err
			}
			if missed >= missedLimit {
				err := s.Customers.SetBlocked(txCtx, next.Phone, next.Email, true)
				if err != nil && !errors.Is(err, database.ErrNotFound) {
					return err
				}
				blocked = err == nil
			}
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, mapStatusError(err)
	}

	if changed {
		metrics.IncStatusTransition(string(updated.Status))
		s.Logger.Info("Booking status changed", zap.String("bookingId", id), zap.String("status", string(updated.Status)))
		b := *updated
		s.background("status_changed", func(ctx context.Context) error {
			return s.Notifier.StatusChanged(ctx, &b)
		})
		s.revokeReminder(id)
	}
	if blocked {
		metrics.IncCustomerBlocked()
		s.Logger.Warn("Customer blocked after repeated missed appointments",
			zap.String("phone", updated.Phone), zap.String("email", updated.Email))
	}
	return updated, nil
}

// Cancel moves an upcoming booking to Cancelled. Cancelling a cancelled
// booking succeeds without writing. Freed slots are not returned to the schedule.
func (s *DefaultBookingService) Cancel(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == models.StatusCancelled {
		return b, nil
	}
	if b.Status != models.StatusUpcoming {
		return nil, apperror.Validation("only upcoming bookings can be cancelled, this one is %s", b.Status)
	}

	st := models.StatusCancelled
	change := repository.StatusChange{Status: &st, UpdatedAt: s.now()}
	if err := s.Bookings.ApplyStatusChange(ctx, id, models.StatusUpcoming, change); err != nil {
		if !errors.Is(err, database.ErrNotUpdated) {
			return nil, storageError("booking cancellation", err)
		}
		// Lost a race; succeed only if the winner also cancelled.
		current, gerr := s.GetByID(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		if current.Status == models.StatusCancelled {
			return current, nil
		}
		return nil, apperror.Validation("booking was modified concurrently, please retry")
	}

	b.Status = st
	b.UpdatedAt = change.UpdatedAt
	metrics.IncStatusTransition(string(st))
	s.Logger.Info("Booking cancelled", zap.String("bookingId", id))
	cancelled := *b
	s.background("status_changed", func(ctx context.Context) error {
		return s.Notifier.StatusChanged(ctx, &cancelled)
	})
	s.revokeReminder(id)
	return b, nil
}

// revokeReminder drops the queued reminder of a booking that left Upcoming.
func (s *DefaultBookingService) revokeReminder(id string) {
	s.background("reminder_cancel", func(ctx context.Context) error {
		return s.Notifier.CancelReminder(ctx, id)
	})
}

// Unblock clears the blocked flag of a customer.
func (s *DefaultBookingService) Unblock(ctx context.Context, req models.UnblockRequest) error {
	req.Phone = phoneNoise.Replace(strings.TrimSpace(req.Phone))
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return err
	}
	if err := s.Customers.SetBlocked(ctx, req.Phone, req.Email, false); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("customer not found")
		}
		return storageError("customer unblock", err)
	}
	s.Logger.Info("Customer unblocked", zap.String("phone", req.Phone), zap.String("email", req.Email))
	return nil
}

func mapStatusError(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.New(apperror.KindTransactionAborted, "could not update booking", fmt.Errorf("status update: %w", err))
}
