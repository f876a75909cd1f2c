package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"appointly/database"
	"appointly/metrics"
	"appointly/models"
	"appointly/services/notification"
	"appointly/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// BookingLookup reads the current state of a booking.
type BookingLookup interface {
	GetByID(ctx context.Context, id string) (*models.Booking, error)
}

// NewServeMux routes queued notification tasks to sender. Reminders are
// checked against bookings before delivery.
func NewServeMux(sender notification.Sender, bookings BookingLookup, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNotificationSend, handleNotificationTask(sender, logger))
	mux.HandleFunc(tasks.TypeReminderSend, handleReminderTask(sender, bookings, logger))
	return mux
}

// StartNotificationWorker starts the queue consumer in the background and
// returns the server so the caller can shut it down.
func StartNotificationWorker(redisOpt asynq.RedisClientOpt, concurrency int, sender notification.Sender, bookings BookingLookup, logger *zap.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			tasks.QueueNotifications: 1,
		},
		Logger: logger.Sugar(),
	})
	mux := NewServeMux(sender, bookings, logger)

	go func() {
		const maxAttempts = 5
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := srv.Start(mux)
			if err == nil {
				logger.Info("Notification worker started", zap.Int("concurrency", concurrency))
				return
			}
			if errors.Is(err, asynq.ErrServerClosed) {
				return
			}
			logger.Warn("Notification worker failed to start",
				zap.Int("attempt", attempt), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			time.Sleep(time.Duration(attempt*2) * time.Second)
		}
		logger.Error("Notification worker gave up; notifications stay queued until restart")
	}()
	return srv
}

func deliver(ctx context.Context, sender notification.Sender, payload tasks.NotificationPayload, logger *zap.Logger) error {
	res := sender.Send(ctx, notification.Message{
		Recipients: payload.Recipients,
		Template:   payload.Template,
		Data:       payload.Data,
	})
	metrics.IncNotification(payload.Template, res.Success)
	if !res.Success {
		logger.Warn("Notification delivery failed",
			zap.String("template", payload.Template), zap.String("error", res.Error))
		return fmt.Errorf("deliver %s: %s", payload.Template, res.Error)
	}
	return nil
}

func handleNotificationTask(sender notification.Sender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.NotificationPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid notification payload", zap.Error(err))
			return fmt.Errorf("decode notification payload: %v: %w", err, asynq.SkipRetry)
		}
		return deliver(ctx, sender, p, logger)
	}
}

func handleReminderTask(sender notification.Sender, bookings BookingLookup, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid reminder payload", zap.Error(err))
			return fmt.Errorf("decode reminder payload: %v: %w", err, asynq.SkipRetry)
		}
		if bookings != nil {
			b, err := bookings.GetByID(ctx, p.BookingID)
			switch {
			case errors.Is(err, database.ErrNotFound):
				logger.Info("Dropping reminder of unknown booking", zap.String("bookingId", p.BookingID))
				return nil
			case err != nil:
				return fmt.Errorf("load booking %s: %w", p.BookingID, err)
			case b.Status.Terminal():
				logger.Info("Dropping reminder of closed booking",
					zap.String("bookingId", p.BookingID), zap.String("status", string(b.Status)))
				return nil
			}
		}
		logger.Debug("Sending reminder", zap.String("bookingId", p.BookingID))
		return deliver(ctx, sender, p.NotificationPayload, logger)
	}
}
