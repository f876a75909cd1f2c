package memoryRepo

import (
	"context"
	"errors"
	"testing"

	"appointly/database"
	"appointly/database/repository"
	"appointly/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repository.ScheduleRepository = (*ScheduleRepo)(nil)
	_ repository.BookingRepository  = (*BookingRepo)(nil)
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
)

func TestTransactionRollsBackOnError(t *testing.T) {
	st := NewStore()
	schedules := NewScheduleRepo(st)
	bookings := NewBookingRepo(st)
	ctx := context.Background()

	require.NoError(t, schedules.Create(ctx, &models.Schedule{
		ID: "s1", Year: "2030", Month: "March", Day: "05",
		AvailableSlots: []string{"10:00am", "11:00am"},
	}))

	boom := errors.New("boom")
	err := st.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, bookings.Insert(ctx, &models.Booking{ID: "b1", ScheduleID: "s1", StartTime: "10:00am"}))
		_, err := schedules.UpdateAfterBooking(ctx, "s1", "b1", "10:00am", 60)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = bookings.GetByID(ctx, "b1")
	assert.True(t, errors.Is(err, database.ErrNotFound))
	sc, err := schedules.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00am", "11:00am"}, sc.AvailableSlots)
	assert.Empty(t, sc.Bookings)
}

func TestBookingUniquenessPerSlot(t *testing.T) {
	st := NewStore()
	bookings := NewBookingRepo(st)
	ctx := context.Background()

	require.NoError(t, bookings.Insert(ctx, &models.Booking{ID: "b1", ScheduleID: "s1", StartTime: "10:00am"}))
	err := bookings.Insert(ctx, &models.Booking{ID: "b2", ScheduleID: "s1", StartTime: "10:00am"})
	assert.True(t, errors.Is(err, database.ErrDuplicate))
}
