package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"appointly/models"
	"appointly/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(task.Type(), string(task.Payload()))
	return &asynq.TaskInfo{}, args.Error(0)
}

func sampleBooking() *models.Booking {
	return &models.Booking{
		ID:        "b1",
		Name:      "Ada",
		Phone:     "+15550100",
		StartTime: "10:00am",
		Service:   models.ServiceInfo{Title: "Cut", Duration: 60},
		Status:    models.StatusUpcoming,
	}
}

func TestDispatcherBookingCreatedNotifiesCustomerAndOwner(t *testing.T) {
	q := new(mockEnqueuer)
	q.On("EnqueueContext", tasks.TypeNotificationSend, mock.Anything).Return(nil).Twice()

	d := NewDispatcher(q, nil, "+15550199", time.Hour, zap.NewNop())
	err := d.BookingCreated(context.Background(), sampleBooking(), time.Date(2030, 3, 5, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	q.AssertExpectations(t)

	var first tasks.NotificationPayload
	require.NoError(t, json.Unmarshal([]byte(q.Calls[0].Arguments.String(1)), &first))
	assert.Equal(t, []string{"+15550100"}, first.Recipients)
	assert.Equal(t, TemplateBookingCustomer, first.Template)
}

func TestDispatcherPropagatesQueueErrors(t *testing.T) {
	q := new(mockEnqueuer)
	q.On("EnqueueContext", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	d := NewDispatcher(q, nil, "", time.Hour, zap.NewNop())
	err := d.StatusChanged(context.Background(), sampleBooking())
	assert.Error(t, err)
}

func TestDispatcherSkipsReminderInsideLeadTime(t *testing.T) {
	q := new(mockEnqueuer)
	d := NewDispatcher(q, nil, "", 24*time.Hour, zap.NewNop())
	d.now = func() time.Time { return time.Date(2030, 3, 5, 0, 0, 0, 0, time.UTC) }

	err := d.ScheduleReminder(context.Background(), sampleBooking(), time.Date(2030, 3, 5, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	q.AssertNotCalled(t, "EnqueueContext", mock.Anything, mock.Anything)

	q.On("EnqueueContext", tasks.TypeReminderSend, mock.Anything).Return(nil).Once()
	err = d.ScheduleReminder(context.Background(), sampleBooking(), time.Date(2030, 3, 9, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	q.AssertExpectations(t)
}

type mockDeleter struct {
	mock.Mock
}

func (m *mockDeleter) DeleteTask(queue, id string) error {
	return m.Called(queue, id).Error(0)
}

func TestDispatcherCancelReminder(t *testing.T) {
	del := new(mockDeleter)
	del.On("DeleteTask", tasks.QueueNotifications, "reminder:b1").Return(nil).Once()
	del.On("DeleteTask", tasks.QueueNotifications, "reminder:b2").Return(asynq.ErrTaskNotFound).Once()
	del.On("DeleteTask", tasks.QueueNotifications, "reminder:b3").Return(errors.New("redis down")).Once()

	d := NewDispatcher(new(mockEnqueuer), del, "", time.Hour, zap.NewNop())
	assert.NoError(t, d.CancelReminder(context.Background(), "b1"))
	assert.NoError(t, d.CancelReminder(context.Background(), "b2"), "already delivered or never queued")
	assert.Error(t, d.CancelReminder(context.Background(), "b3"))
	del.AssertExpectations(t)

	withoutInspector := NewDispatcher(new(mockEnqueuer), nil, "", time.Hour, zap.NewNop())
	assert.NoError(t, withoutInspector.CancelReminder(context.Background(), "b1"))
}

type fakeCreator struct {
	sent []string
	err  error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, *params.To+"|"+*params.Body)
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioSender(t *testing.T) {
	fc := &fakeCreator{}
	s := &TwilioSender{api: fc, from: "+15550000", logger: zap.NewNop()}

	res := s.Send(context.Background(), Message{
		Recipients: []string{"+15550100", ""},
		Template:   TemplateReminder,
		Data:       map[string]string{"service": "Cut", "date": "Tuesday", "time": "10:00am"},
	})
	assert.True(t, res.Success)
	require.Len(t, fc.sent, 1)
	assert.Equal(t, "+15550100|Reminder: your Cut appointment is on Tuesday at 10:00am.", fc.sent[0])

	fc.err = errors.New("invalid number")
	res = s.Send(context.Background(), Message{Recipients: []string{"+1"}, Template: TemplateReminder})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid number")
}

func TestLogSenderAlwaysSucceeds(t *testing.T) {
	res := LogSender{Logger: zap.NewNop()}.Send(context.Background(), Message{Template: "custom", Data: map[string]string{"body": "hi"}})
	assert.True(t, res.Success)
	assert.Equal(t, "hi", Render("custom", map[string]string{"body": "hi"}))
}
