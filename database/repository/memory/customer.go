package memoryRepo

import (
	"context"
	"fmt"
	"time"

	"appointly/database"
	"appointly/models"
)

// CustomerRepo implements the customer repository on a Store.
type CustomerRepo struct {
	st  *Store
	Now func() time.Time
}

func NewCustomerRepo(st *Store) *CustomerRepo {
	return &CustomerRepo{st: st, Now: time.Now}
}

func (r *CustomerRepo) EnsureIndexes(context.Context) error { return nil }

func (r *CustomerRepo) FindByContact(ctx context.Context, phone, email string) (*models.Customer, error) {
	defer r.st.begin(ctx)()
	for _, c := range r.st.customers {
		if c.Phone == phone && c.Email == email {
			out := cloneCustomer(c)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("customer %s/%s: %w", phone, email, database.ErrNotFound)
}

func (r *CustomerRepo) Create(ctx context.Context, c *models.Customer) error {
	defer r.st.begin(ctx)()
	for _, existing := range r.st.customers {
		if existing.ID == c.ID || (existing.Phone == c.Phone && existing.Email == c.Email) {
			return fmt.Errorf("insert customer: %w", database.ErrDuplicate)
		}
	}
	if c.Bookings == nil {
		c.Bookings = []string{}
	}
	r.st.customers[c.ID] = cloneCustomer(*c)
	return nil
}

func (r *CustomerRepo) AppendBooking(ctx context.Context, customerID, bookingID string) error {
	defer r.st.begin(ctx)()
	c, ok := r.st.customers[customerID]
	if !ok {
		return fmt.Errorf("customer %s: %w", customerID, database.ErrNotFound)
	}
	for _, id := range c.Bookings {
		if id == bookingID {
			return nil
		}
	}
	c.Bookings = append(append([]string{}, c.Bookings...), bookingID)
	c.UpdatedAt = r.Now().UTC().Truncate(time.Millisecond)
	r.st.customers[customerID] = c
	return nil
}

func (r *CustomerRepo) SetBlocked(ctx context.Context, phone, email string, blocked bool) error {
	defer r.st.begin(ctx)()
	for id, c := range r.st.customers {
		if c.Phone == phone && c.Email == email {
			c.IsBlocked = blocked
			c.UpdatedAt = r.Now().UTC().Truncate(time.Millisecond)
			r.st.customers[id] = c
			return nil
		}
	}
	return fmt.Errorf("customer %s/%s: %w", phone, email, database.ErrNotFound)
}
