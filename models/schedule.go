package models

import "time"

// Schedule is the bookable calendar of a single day.
type Schedule struct {
	ID             string    `bson:"id" json:"id"`                           // UUID
	Year           string    `bson:"year" json:"year"`                       // e.g. "2025"
	Month          string    `bson:"month" json:"month"`                     // English month name, e.g. "March"
	Day            string    `bson:"day" json:"day"`                         // Zero-padded, e.g. "05"
	StartTime      string    `bson:"start_time" json:"startTime"`            // Opening slot label, e.g. "10:00am"
	EndTime        string    `bson:"end_time" json:"endTime"`                // Closing slot label, e.g. "18:00pm"
	AvailableSlots []string  `bson:"available_slots" json:"availableSlots"`  // Free hourly labels, ascending
	Bookings       []string  `bson:"bookings" json:"bookings"`               // Booking IDs placed on this day
	CreatedAt      time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt"`
}

// Date returns the calendar date the schedule covers.
func (s *Schedule) Date() (time.Time, error) {
	return time.Parse("2006-January-02", s.Year+"-"+s.Month+"-"+s.Day)
}

// CreateScheduleRequest carries the fields required to open a day.
type CreateScheduleRequest struct {
	Year      string `json:"year"`
	Month     string `json:"month"`
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// UpdateScheduleRequest is a partial update; nil fields are left untouched.
type UpdateScheduleRequest struct {
	Year      *string `json:"year,omitempty"`
	Month     *string `json:"month,omitempty"`
	Day       *string `json:"day,omitempty"`
	StartTime *string `json:"startTime,omitempty"`
	EndTime   *string `json:"endTime,omitempty"`
}

// Empty reports whether the request changes nothing.
func (r UpdateScheduleRequest) Empty() bool {
	return r.Year == nil && r.Month == nil && r.Day == nil && r.StartTime == nil && r.EndTime == nil
}

// DateKey identifies the schedule of one calendar day.
type DateKey struct {
	Year  string
	Month string
	Day   string
}

// DateKeyOf derives the year, English month name and zero-padded day of t.
func DateKeyOf(t time.Time) DateKey {
	return DateKey{
		Year:  t.Format("2006"),
		Month: t.Month().String(),
		Day:   t.Format("02"),
	}
}
