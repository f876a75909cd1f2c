package booking

import (
	"context"
	"sync"
	"testing"

	"appointly/cron"
	"appointly/models"
	"appointly/services/notification"
	"appointly/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLeavingUpcomingRevokesReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cancelled, err := f.svc.CreateBooking(ctx, f.request("ada", "+15550100", "10:00am", 60))
	require.NoError(t, err)
	completed, err := f.svc.CreateBooking(ctx, f.request("bob", "+15550101", "11:00am", 60))
	require.NoError(t, err)
	repriced, err := f.svc.CreateBooking(ctx, f.request("cy", "+15550102", "12:00pm", 60))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	done := models.StatusCompleted
	_, err = f.svc.UpdateStatusOrPrice(ctx, completed.ID, models.UpdateBookingRequest{Status: &done})
	require.NoError(t, err)

	price := 42.0
	_, err = f.svc.UpdateStatusOrPrice(ctx, repriced.ID, models.UpdateBookingRequest{Price: &price})
	require.NoError(t, err)
	f.svc.Wait()

	assert.ElementsMatch(t, []string{cancelled.ID, completed.ID}, f.notifier.revoked,
		"only transitions out of Upcoming revoke, and a repeated cancel does nothing")
}

type capturingQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (q *capturingQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func (q *capturingQueue) ofType(typ string) []*asynq.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*asynq.Task
	for _, task := range q.tasks {
		if task.Type() == typ {
			out = append(out, task)
		}
	}
	return out
}

type recordingDeleter struct {
	mu  sync.Mutex
	ids []string
}

func (d *recordingDeleter) DeleteTask(queue, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, queue+"/"+id)
	return nil
}

type countingSender struct {
	mu   sync.Mutex
	sent []notification.Message
}

func (s *countingSender) Send(_ context.Context, msg notification.Message) notification.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return notification.Result{Success: true}
}

func TestCancelledBookingGetsNoReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	queue := &capturingQueue{}
	deleter := &recordingDeleter{}
	f.svc.Notifier = notification.NewDispatcher(queue, deleter, "", 0, zap.NewNop())

	b, err := f.svc.CreateBooking(ctx, f.request("ada", "+15550100", "10:00am", 60))
	require.NoError(t, err)
	f.svc.Wait()
	reminders := queue.ofType(tasks.TypeReminderSend)
	require.Len(t, reminders, 1)

	_, err = f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	f.svc.Wait()
	assert.Equal(t, []string{tasks.QueueNotifications + "/reminder:" + b.ID}, deleter.ids)

	// A reminder that escaped revocation is still dropped by the worker.
	sender := &countingSender{}
	mux := cron.NewServeMux(sender, f.bookings, zap.NewNop())
	require.NoError(t, mux.ProcessTask(ctx, reminders[0]))
	assert.Empty(t, sender.sent)
}
