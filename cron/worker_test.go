package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"appointly/database"
	"appointly/models"
	"appointly/services/notification"
	"appointly/services/tasks"
	"appointly/utils"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []notification.Message
	fail bool
}

func (s *recordingSender) Send(_ context.Context, msg notification.Message) notification.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	if s.fail {
		return notification.Result{Error: "provider rejected message"}
	}
	return notification.Result{Success: true}
}

func TestNotificationTaskDelivers(t *testing.T) {
	sender := &recordingSender{}
	mux := NewServeMux(sender, nil, zap.NewNop())

	task, _, err := tasks.NewNotificationTask(tasks.NotificationPayload{
		Recipients: []string{"+15550001111"},
		Template:   notification.TemplateBookingCustomer,
		Data:       map[string]string{"name": "Ada"},
	})
	require.NoError(t, err)

	require.NoError(t, mux.ProcessTask(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"+15550001111"}, sender.sent[0].Recipients)
	assert.Equal(t, "Ada", sender.sent[0].Data["name"])
}

func TestReminderTaskDelivers(t *testing.T) {
	sender := &recordingSender{}
	mux := NewServeMux(sender, nil, zap.NewNop())

	task, _, err := tasks.NewReminderTask(tasks.ReminderPayload{
		BookingID: "b1",
		NotificationPayload: tasks.NotificationPayload{
			Recipients: []string{"+15550001111"},
			Template:   notification.TemplateReminder,
		},
	}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, mux.ProcessTask(context.Background(), task))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, notification.TemplateReminder, sender.sent[0].Template)
}

type stubBookings map[string]models.BookingStatus

func (s stubBookings) GetByID(_ context.Context, id string) (*models.Booking, error) {
	if id == "broken" {
		return nil, errors.New("mongo unavailable")
	}
	st, ok := s[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &models.Booking{ID: id, Status: st}, nil
}

func reminderFor(t *testing.T, bookingID string) *asynq.Task {
	t.Helper()
	task, _, err := tasks.NewReminderTask(tasks.ReminderPayload{
		BookingID: bookingID,
		NotificationPayload: tasks.NotificationPayload{
			Recipients: []string{"+15550100"},
			Template:   notification.TemplateReminder,
		},
	}, time.Now().Add(time.Hour))
	require.NoError(t, err)
	return task
}

func TestReminderRespectsBookingStatus(t *testing.T) {
	bookings := stubBookings{
		"upcoming":  models.StatusUpcoming,
		"cancelled": models.StatusCancelled,
		"completed": models.StatusCompleted,
		"missed":    models.StatusMissed,
	}
	cases := []struct {
		bookingID string
		delivered int
		wantErr   bool
	}{
		{"upcoming", 1, false},
		{"cancelled", 0, false},
		{"completed", 0, false},
		{"missed", 0, false},
		{"gone", 0, false},
		{"broken", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.bookingID, func(t *testing.T) {
			sender := &recordingSender{}
			mux := NewServeMux(sender, bookings, zap.NewNop())
			err := mux.ProcessTask(context.Background(), reminderFor(t, tc.bookingID))
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Len(t, sender.sent, tc.delivered)
		})
	}
}

func TestFailedDeliveryIsRetried(t *testing.T) {
	sender := &recordingSender{fail: true}
	mux := NewServeMux(sender, nil, zap.NewNop())
	task, _, err := tasks.NewNotificationTask(tasks.NotificationPayload{Template: notification.TemplateStatusChanged})
	require.NoError(t, err)

	err = mux.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestCorruptPayloadSkipsRetry(t *testing.T) {
	mux := NewServeMux(&recordingSender{}, nil, zap.NewNop())
	err := mux.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeNotificationSend, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthMonitorRecordsStatus(t *testing.T) {
	c, err := StartHealthMonitor("@every 1h", stubPinger{}, stubPinger{err: errors.New("down")}, zap.NewNop())
	require.NoError(t, err)
	defer c.Stop()

	status := utils.GetHealthStatus()
	assert.True(t, status.Mongo)
	assert.False(t, status.Redis)
	assert.False(t, status.Healthy())
}

func TestHealthMonitorRejectsBadSpec(t *testing.T) {
	_, err := StartHealthMonitor("every now and then", stubPinger{}, stubPinger{}, zap.NewNop())
	assert.Error(t, err)
}
