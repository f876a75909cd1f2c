package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeNotificationSend = "notification:send"
	TypeReminderSend     = "reminder:send"

	QueueNotifications = "notifications"
)

// NotificationPayload is a rendered-later message for one or more recipients.
type NotificationPayload struct {
	Recipients []string          `json:"recipients"`
	Template   string            `json:"template"`
	Data       map[string]string `json:"data"`
}

// ReminderPayload is a notification tied to an appointment.
type ReminderPayload struct {
	BookingID string `json:"bookingId"`
	NotificationPayload
}

// NewNotificationTask builds an immediately processed notification task.
func NewNotificationTask(payload NotificationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNotificationSend, b)
	opts := []asynq.Option{asynq.Queue(QueueNotifications), asynq.MaxRetry(3)}
	return task, opts, nil
}

// ReminderTaskID is the queue task ID of the reminder for a booking.
func ReminderTaskID(bookingID string) string {
	return "reminder:" + bookingID
}

// NewReminderTask builds a reminder processed at fireAt. The booking ID doubles
// as the task ID so a booking is reminded at most once.
func NewReminderTask(payload ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeReminderSend, b)
	opts := []asynq.Option{
		asynq.Queue(QueueNotifications),
		asynq.ProcessAt(fireAt),
		asynq.TaskID(ReminderTaskID(payload.BookingID)),
		asynq.MaxRetry(3),
	}
	return task, opts, nil
}
