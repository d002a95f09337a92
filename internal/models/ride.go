package models

import (
	"time"

	"gorm.io/gorm"
)

type Ride struct {
	gorm.Model
	DriverID      uint      `json:"driverId" gorm:"not null;index"`
	Driver        *User     `json:"driver,omitempty"`
	StartLocation string    `json:"startLocation" gorm:"not null"`
	StartLat      float64   `json:"startLat" gorm:"not null"`
	StartLng      float64   `json:"startLng" gorm:"not null"`
	Destination   string    `json:"destination" gorm:"not null"`
	DestLat       float64   `json:"destLat" gorm:"not null"`
	DestLng       float64   `json:"destLng" gorm:"not null"`
	DateTime      time.Time `json:"dateTime" gorm:"not null"`
	Seats         int       `json:"seats" gorm:"not null"`
	Price         float64   `json:"price" gorm:"not null"`
	VehicleID     uint      `json:"vehicleId" gorm:"not null"`
	Vehicle       *Vehicle  `json:"vehicle,omitempty"`

	Preferences *RidePreference `json:"preferences,omitempty" gorm:"foreignKey:RideID"`
	Bookings    []RideBooking   `json:"bookings,omitempty" gorm:"foreignKey:RideID"`
}

func (Ride) TableName() string {
	return "rides"
}

// ConfirmedSeats sums seats across CONFIRMED bookings. Requires Bookings
// to be loaded.
func (r *Ride) ConfirmedSeats() int {
	total := 0
	for _, b := range r.Bookings {
		if b.Status == BookingConfirmed {
			total += b.Seats
		}
	}
	return total
}

// PendingSeats sums seats across PENDING bookings.
func (r *Ride) PendingSeats() int {
	total := 0
	for _, b := range r.Bookings {
		if b.Status == BookingPending {
			total += b.Seats
		}
	}
	return total
}

// AvailableSeats is the derived availability: capacity minus confirmed
// and pending seats. Capacity is fixed at creation and never decremented,
// so availability is always computed, never stored.
func (r *Ride) AvailableSeats() int {
	return r.Seats - r.ConfirmedSeats() - r.PendingSeats()
}

// ActiveBookingFor returns the user's PENDING or CONFIRMED booking on this
// ride, or nil.
func (r *Ride) ActiveBookingFor(userID uint) *RideBooking {
	for i := range r.Bookings {
		b := &r.Bookings[i]
		if b.UserID == userID && b.Active() {
			return b
		}
	}
	return nil
}

// RidePreference holds the six rider-matching flags, one row per ride.
type RidePreference struct {
	gorm.Model
	RideID         uint `json:"rideId" gorm:"uniqueIndex;not null"`
	VerifiedRiders bool `json:"verifiedRiders" gorm:"default:false"`
	SameGender     bool `json:"sameGender" gorm:"default:false"`
	NonSmoking     bool `json:"nonSmoking" gorm:"default:false"`
	EcoFriendly    bool `json:"ecoFriendly" gorm:"default:false"`
	AllowPets      bool `json:"allowPets" gorm:"default:false"`
	QuietRide      bool `json:"quietRide" gorm:"default:false"`
}

func (RidePreference) TableName() string {
	return "ride_preferences"
}

// Matches reports whether every flag requested as true is set on the ride.
// Flags not requested never exclude a ride.
func (p *RidePreference) Matches(requested map[string]bool) bool {
	flags := map[string]bool{
		"verifiedRiders": p.VerifiedRiders,
		"sameGender":     p.SameGender,
		"nonSmoking":     p.NonSmoking,
		"ecoFriendly":    p.EcoFriendly,
		"allowPets":      p.AllowPets,
		"quietRide":      p.QuietRide,
	}
	for key, wanted := range requested {
		if wanted && !flags[key] {
			return false
		}
	}
	return true
}
