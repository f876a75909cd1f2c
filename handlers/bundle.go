package handlers

// HandlerBundle groups the endpoint handlers registered by routes.
type HandlerBundle struct {
	Schedules *ScheduleHandler
	Bookings  *BookingHandler
}
