package models

import "time"

// Customer is keyed by (phone, email) and created on the first booking attempt.
type Customer struct {
	ID        string    `bson:"id" json:"id"`
	Name      string    `bson:"name" json:"name"`
	Phone     string    `bson:"phone" json:"phone"`
	Email     string    `bson:"email" json:"email"`
	Bookings  []string  `bson:"bookings" json:"bookings"`
	IsBlocked bool      `bson:"is_blocked" json:"isBlocked"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// UnblockRequest identifies the customer to reinstate.
type UnblockRequest struct {
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}
