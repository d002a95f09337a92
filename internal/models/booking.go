package models

import (
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingRejected  BookingStatus = "REJECTED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// RideBooking is a rider's request for N seats on a ride. It moves
// PENDING -> CONFIRMED or REJECTED by the driver, and PENDING or
// CONFIRMED -> CANCELLED by the rider. REJECTED and CANCELLED are terminal.
type RideBooking struct {
	gorm.Model
	RideID uint          `json:"rideId" gorm:"not null;index"`
	Ride   *Ride         `json:"ride,omitempty"`
	UserID uint          `json:"userId" gorm:"not null;index"`
	User   *User         `json:"user,omitempty"`
	Seats  int           `json:"seats" gorm:"not null;default:1"`
	Status BookingStatus `json:"status" gorm:"not null;default:'PENDING'"`
}

func (RideBooking) TableName() string {
	return "ride_bookings"
}

// Active reports whether the booking still holds seats against the ride.
func (b *RideBooking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

// Cancellable reports whether the rider may cancel the booking.
func (b *RideBooking) Cancellable() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}
