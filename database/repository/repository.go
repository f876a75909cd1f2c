package repository

import (
	bookingRepo "appointly/database/repository/booking"
	customerRepo "appointly/database/repository/customer"
	scheduleRepo "appointly/database/repository/schedule"
)

// Collection names.
const (
	SchedulesCollection = "schedules"
	BookingsCollection  = "bookings"
	CustomersCollection = "customers"
)

// Re-export the ScheduleRepository interface and constructor.
type ScheduleRepository = scheduleRepo.ScheduleRepository

var NewMongoScheduleRepo = scheduleRepo.NewMongoScheduleRepo

// Re-export the BookingRepository interface and constructor.
type BookingRepository = bookingRepo.BookingRepository

type StatusChange = bookingRepo.StatusChange

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

// Re-export the CustomerRepository interface and constructor.
type CustomerRepository = customerRepo.CustomerRepository

var NewMongoCustomerRepo = customerRepo.NewMongoCustomerRepo
