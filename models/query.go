package models

import "time"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// BookingFilter narrows booking listings. Zero values mean "no constraint".
type BookingFilter struct {
	Status          BookingStatus
	CreatedFrom     time.Time
	CreatedTo       time.Time
	AppointmentFrom time.Time
	AppointmentTo   time.Time
	ScheduleIDs     []string // resolved from the appointment range by the service
	Page            int
	PageSize        int
}

// Normalize applies paging defaults and limits.
func (f *BookingFilter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
}

// BookingPage is one page of a listing.
type BookingPage struct {
	Items    []Booking `json:"items"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"pageSize"`
}

// CustomerLookup finds bookings by name plus phone or email.
type CustomerLookup struct {
	Name  string `form:"name" json:"name"`
	Phone string `form:"phone" json:"phone"`
	Email string `form:"email" json:"email"`
}

// StatusSummary counts bookings per status.
type StatusSummary struct {
	Total    int64                   `json:"total"`
	ByStatus map[BookingStatus]int64 `json:"byStatus"`
}

// DailyIncome is one row of the income breakdown.
type DailyIncome struct {
	Date  string  `bson:"_id" json:"date"` // YYYY-MM-DD
	Total float64 `bson:"total" json:"total"`
	Count int64   `bson:"count" json:"count"`
}

// IncomeReport sums completed bookings created within a range.
type IncomeReport struct {
	From  time.Time     `json:"from"`
	To    time.Time     `json:"to"`
	Total float64       `json:"total"`
	Count int64         `json:"count"`
	Days  []DailyIncome `json:"days"`
}
