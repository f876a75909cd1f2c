// Package memoryRepo is an in-process test fake of the schedule, booking and
// customer repositories. Transactions are serialized and roll back to a
// snapshot on error.
package memoryRepo

import (
	"context"
	"sort"
	"sync"

	"appointly/models"
)

type txKey struct{}

// Store holds the three collections.
type Store struct {
	txMu sync.Mutex // held by a transaction, or by a single write outside one
	mu   sync.Mutex // guards the maps

	schedules map[string]models.Schedule
	bookings  map[string]models.Booking
	customers map[string]models.Customer
}

func NewStore() *Store {
	return &Store{
		schedules: map[string]models.Schedule{},
		bookings:  map[string]models.Booking{},
		customers: map[string]models.Customer{},
	}
}

type snapshot struct {
	schedules map[string]models.Schedule
	bookings  map[string]models.Booking
	customers map[string]models.Customer
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		schedules: make(map[string]models.Schedule, len(s.schedules)),
		bookings:  make(map[string]models.Booking, len(s.bookings)),
		customers: make(map[string]models.Customer, len(s.customers)),
	}
	for k, v := range s.schedules {
		snap.schedules[k] = cloneSchedule(v)
	}
	for k, v := range s.bookings {
		snap.bookings[k] = v
	}
	for k, v := range s.customers {
		snap.customers[k] = cloneCustomer(v)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = snap.schedules
	s.bookings = snap.bookings
	s.customers = snap.customers
}

// begin locks the store for one operation. Operations inside a transaction
// already own txMu.
func (s *Store) begin(ctx context.Context) func() {
	if ctx.Value(txKey{}) == s {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// RunInTransaction runs fn with all-or-nothing visibility of its writes.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func cloneSchedule(sc models.Schedule) models.Schedule {
	sc.AvailableSlots = append([]string{}, sc.AvailableSlots...)
	sc.Bookings = append([]string{}, sc.Bookings...)
	return sc
}

func cloneCustomer(c models.Customer) models.Customer {
	c.Bookings = append([]string{}, c.Bookings...)
	return c
}

func sortBookingsNewestFirst(out []models.Booking) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
}
