package models

import "time"

// AddOn is an optional extra attached to a service.
type AddOn struct {
	Title    string  `bson:"title" json:"title" validate:"required"`
	Price    float64 `bson:"price" json:"price" validate:"gte=0"`
	Duration float64 `bson:"duration" json:"duration" validate:"gte=0"` // minutes
}

// ServiceInfo is the snapshot of the booked service stored on the booking.
type ServiceInfo struct {
	Title    string  `bson:"title" json:"title" validate:"required"`
	Price    float64 `bson:"price" json:"price" validate:"gte=0"`
	Category string  `bson:"category" json:"category"`
	Duration float64 `bson:"duration" json:"duration" validate:"gt=0"` // minutes
	AddOns   []AddOn `bson:"add_ons" json:"addOns" validate:"dive"`
}

// TotalDuration is the service duration plus every add-on, in minutes.
func (s ServiceInfo) TotalDuration() float64 {
	total := s.Duration
	for _, a := range s.AddOns {
		total += a.Duration
	}
	return total
}

// TotalPrice is the service price plus every add-on.
func (s ServiceInfo) TotalPrice() float64 {
	total := s.Price
	for _, a := range s.AddOns {
		total += a.Price
	}
	return total
}

// Booking is a customer's claim on a run of slots of one schedule.
type Booking struct {
	ID         string        `bson:"id" json:"id"`
	Name       string        `bson:"name" json:"name"`
	Phone      string        `bson:"phone" json:"phone"`
	Email      string        `bson:"email" json:"email"`
	StartTime  string        `bson:"start_time" json:"startTime"` // Slot label of the first consumed hour
	ScheduleID string        `bson:"schedule_id" json:"scheduleId"`
	Service    ServiceInfo   `bson:"service" json:"service"`
	Status     BookingStatus `bson:"status" json:"status"`
	Total      float64       `bson:"total" json:"total"`
	CreatedAt  time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updated_at" json:"updatedAt"`
}

// CreateBookingRequest is the input of the booking transaction.
type CreateBookingRequest struct {
	Name       string      `json:"name" validate:"required,max=120"`
	Phone      string      `json:"phone" validate:"required,phone"`
	Email      string      `json:"email" validate:"required,email"`
	StartTime  string      `json:"startTime" validate:"required,slotlabel"`
	ScheduleID string      `json:"scheduleId" validate:"required"`
	Service    ServiceInfo `json:"service"`
}

// UpdateBookingRequest changes the status, the price, or both.
type UpdateBookingRequest struct {
	Status *BookingStatus `json:"status,omitempty"`
	Price  *float64       `json:"price,omitempty"`
}
