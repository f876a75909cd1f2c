package models

import "fmt"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusUpcoming  BookingStatus = "Upcoming"
	StatusCompleted BookingStatus = "Completed"
	StatusCancelled BookingStatus = "Cancelled"
	StatusMissed    BookingStatus = "Missed"
)

// AllStatuses lists every status in display order.
var AllStatuses = []BookingStatus{StatusUpcoming, StatusCompleted, StatusCancelled, StatusMissed}

var transitions = map[BookingStatus][]BookingStatus{
	StatusUpcoming:  {StatusCompleted, StatusCancelled, StatusMissed},
	StatusCompleted: {},
	StatusCancelled: {},
	StatusMissed:    {},
}

// ParseBookingStatus accepts only the four known statuses.
func ParseBookingStatus(s string) (BookingStatus, error) {
	st := BookingStatus(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("unknown booking status %q", s)
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return len(transitions[s]) == 0
}
