package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBookingStatus(t *testing.T) {
	for _, st := range AllStatuses {
		got, err := ParseBookingStatus(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseBookingStatus("Pending")
	assert.Error(t, err)
	_, err = ParseBookingStatus("upcoming")
	assert.Error(t, err, "statuses are case sensitive")
}

func TestStatusTransitions(t *testing.T) {
	assert.False(t, StatusUpcoming.Terminal())
	for _, st := range []BookingStatus{StatusCompleted, StatusCancelled, StatusMissed} {
		assert.True(t, st.Terminal(), st)
		assert.True(t, StatusUpcoming.CanTransitionTo(st), st)
		assert.False(t, st.CanTransitionTo(StatusUpcoming), st)
	}
}
