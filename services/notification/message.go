package notification

import (
	"context"
	"fmt"
)

// Templates understood by Render.
const (
	TemplateBookingCustomer = "booking_created_customer"
	TemplateBookingOwner    = "booking_created_owner"
	TemplateStatusChanged   = "booking_status_changed"
	TemplateReminder        = "booking_reminder"
)

// Message is one notification to deliver.
type Message struct {
	Recipients []string
	Template   string
	Data       map[string]string
}

// Result reports the outcome of a delivery. Senders never panic or return
// errors; failures are described here.
type Result struct {
	Success bool
	Error   string
}

// Sender delivers a message to its recipients.
type Sender interface {
	Send(ctx context.Context, msg Message) Result
}

// Render produces the text body of a message.
func Render(template string, data map[string]string) string {
	switch template {
	case TemplateBookingCustomer:
		return fmt.Sprintf("Hi %s, your %s appointment is booked for %s at %s.",
			data["name"], data["service"], data["date"], data["time"])
	case TemplateBookingOwner:
		return fmt.Sprintf("New booking: %s (%s) booked %s on %s at %s.",
			data["name"], data["phone"], data["service"], data["date"], data["time"])
	case TemplateStatusChanged:
		return fmt.Sprintf("Hi %s, your %s appointment is now %s.",
			data["name"], data["service"], data["status"])
	case TemplateReminder:
		return fmt.Sprintf("Reminder: your %s appointment is on %s at %s.",
			data["service"], data["date"], data["time"])
	default:
		return data["body"]
	}
}
