package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"appointly/models"
	"appointly/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the subset of *asynq.Client the dispatcher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskDeleter is the subset of *asynq.Inspector used to revoke reminders.
type TaskDeleter interface {
	DeleteTask(queue, id string) error
}

// Dispatcher turns booking events into queued notification tasks. It never
// delivers anything itself.
type Dispatcher struct {
	queue        Enqueuer
	reminders    TaskDeleter
	ownerContact string
	reminderLead time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewDispatcher(queue Enqueuer, reminders TaskDeleter, ownerContact string, reminderLead time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		queue:        queue,
		reminders:    reminders,
		ownerContact: ownerContact,
		reminderLead: reminderLead,
		now:          time.Now,
		logger:       logger,
	}
}

func bookingData(b *models.Booking, appointment time.Time) map[string]string {
	return map[string]string{
		"bookingId": b.ID,
		"name":      b.Name,
		"phone":     b.Phone,
		"service":   b.Service.Title,
		"date":      appointment.Format("Monday, 02 January 2006"),
		"time":      b.StartTime,
		"status":    string(b.Status),
		"total":     strconv.FormatFloat(b.Total, 'f', 2, 64),
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, payload tasks.NotificationPayload) error {
	task, opts, err := tasks.NewNotificationTask(payload)
	if err != nil {
		return fmt.Errorf("build %s task: %w", payload.Template, err)
	}
	if _, err := d.queue.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue %s task: %w", payload.Template, err)
	}
	return nil
}

// BookingCreated notifies the customer and, when configured, the owner.
func (d *Dispatcher) BookingCreated(ctx context.Context, b *models.Booking, appointment time.Time) error {
	data := bookingData(b, appointment)
	if err := d.enqueue(ctx, tasks.NotificationPayload{
		Recipients: []string{b.Phone},
		Template:   TemplateBookingCustomer,
		Data:       data,
	}); err != nil {
		return err
	}
	if d.ownerContact == "" {
		return nil
	}
	return d.enqueue(ctx, tasks.NotificationPayload{
		Recipients: []string{d.ownerContact},
		Template:   TemplateBookingOwner,
		Data:       data,
	})
}

func (d *Dispatcher) StatusChanged(ctx context.Context, b *models.Booking) error {
	return d.enqueue(ctx, tasks.NotificationPayload{
		Recipients: []string{b.Phone},
		Template:   TemplateStatusChanged,
		Data:       bookingData(b, b.UpdatedAt),
	})
}

// ScheduleReminder queues a reminder ahead of the appointment. Appointments
// closer than the lead time get none.
func (d *Dispatcher) ScheduleReminder(ctx context.Context, b *models.Booking, appointment time.Time) error {
	fireAt := appointment.Add(-d.reminderLead)
	if !fireAt.After(d.now()) {
		d.logger.Debug("Skipping reminder inside lead time", zap.String("bookingId", b.ID))
		return nil
	}
	task, opts, err := tasks.NewReminderTask(tasks.ReminderPayload{
		BookingID: b.ID,
		NotificationPayload: tasks.NotificationPayload{
			Recipients: []string{b.Phone},
			Template:   TemplateReminder,
			Data:       bookingData(b, appointment),
		},
	}, fireAt)
	if err != nil {
		return fmt.Errorf("build reminder task: %w", err)
	}
	if _, err := d.queue.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue reminder task: %w", err)
	}
	return nil
}

// CancelReminder revokes the pending reminder of a booking. A reminder that
// was never queued or already ran is not an error.
func (d *Dispatcher) CancelReminder(_ context.Context, bookingID string) error {
	if d.reminders == nil {
		return nil
	}
	err := d.reminders.DeleteTask(tasks.QueueNotifications, tasks.ReminderTaskID(bookingID))
	if err == nil || errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return fmt.Errorf("delete reminder of %s: %w", bookingID, err)
}
