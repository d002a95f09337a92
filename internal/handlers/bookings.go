package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wayfare/wayfare-backend/internal/models"
	"github.com/wayfare/wayfare-backend/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// requestError carries an HTTP status out of a transaction closure so the
// handler can distinguish client errors from store failures.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

// lockForUpdate takes a row lock on postgres so seat accounting for one
// ride is serialized across concurrent requests. SQLite has no FOR UPDATE
// syntax; its single-writer model covers the test database.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func abortWith(c *gin.Context, err error, fallback string) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		c.JSON(reqErr.status, gin.H{"success": false, "message": reqErr.message})
		return
	}
	c.JSON(500, gin.H{"success": false, "message": fallback, "error": err.Error()})
}

type BookRideInput struct {
	Seats int `json:"seats"`
}

// BookRide requests seats on a ride. The availability check and the
// booking insert run in one transaction holding the ride row, so two
// concurrent requests cannot both pass the check and oversell the ride.
func BookRide(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		rideID, err := strconv.ParseUint(c.Param("rideId"), 10, 32)
		if err != nil {
			c.JSON(404, gin.H{"success": false, "message": "Ride not found"})
			return
		}

		var input BookRideInput
		if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(400, gin.H{"success": false, "message": err.Error()})
			return
		}
		if input.Seats < 0 {
			c.JSON(400, gin.H{"success": false, "message": "Invalid seat count"})
			return
		}
		if input.Seats == 0 {
			input.Seats = 1
		}

		var booking models.RideBooking
		var driverID uint
		err = db.Transaction(func(tx *gorm.DB) error {
			var ride models.Ride
			if err := lockForUpdate(tx).First(&ride, rideID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &requestError{404, "Ride not found"}
				}
				return err
			}
			driverID = ride.DriverID

			if ride.DriverID == userId {
				return &requestError{400, "You cannot book your own ride"}
			}

			if err := tx.Where("ride_id = ?", ride.ID).Find(&ride.Bookings).Error; err != nil {
				return err
			}

			if ride.ActiveBookingFor(userId) != nil {
				return &requestError{400, "You already have an active booking request for this ride"}
			}

			available := ride.AvailableSeats()
			if available < input.Seats {
				return &requestError{400, fmt.Sprintf("Only %d seats available for booking", available)}
			}

			booking = models.RideBooking{
				RideID: ride.ID,
				UserID: userId,
				Seats:  input.Seats,
				Status: models.BookingPending,
			}
			return tx.Create(&booking).Error
		})
		if err != nil {
			abortWith(c, err, "Failed to book ride")
			return
		}

		notifyBooking(hub, driverID, "booking_requested", &booking)

		c.JSON(201, gin.H{
			"success": true,
			"message": "Ride booking request sent successfully",
			"booking": booking,
		})
	}
}

// ApproveBooking confirms a pending booking on one of the caller's rides,
// unless confirming it would exceed the ride's capacity. The capacity
// check and the status update share a transaction holding the ride row.
func ApproveBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		bookingID := c.Param("bookingId")

		var booking models.RideBooking
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&booking, "id = ?", bookingID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &requestError{404, "Booking not found"}
				}
				return err
			}

			var ride models.Ride
			if err := lockForUpdate(tx).First(&ride, booking.RideID).Error; err != nil {
				return err
			}

			// A rider's cancel runs outside the ride lock, so the booking
			// can change between the first read and the lock acquisition.
			// Re-read it now that the ride row is held.
			if err := tx.First(&booking, "id = ?", booking.ID).Error; err != nil {
				return err
			}

			if ride.DriverID != userId {
				return &requestError{403, "You are not authorized to approve this booking"}
			}

			if booking.Status != models.BookingPending {
				return &requestError{400, "Only pending bookings can be approved"}
			}

			if err := tx.Where("ride_id = ?", ride.ID).Find(&ride.Bookings).Error; err != nil {
				return err
			}

			if ride.ConfirmedSeats()+booking.Seats > ride.Seats {
				return &requestError{400, "Not enough seats available to approve this booking"}
			}

			booking.Status = models.BookingConfirmed
			return tx.Model(&booking).Update("status", models.BookingConfirmed).Error
		})
		if err != nil {
			abortWith(c, err, "Failed to approve booking")
			return
		}

		notifyBooking(hub, booking.UserID, "booking_approved", &booking)

		c.JSON(200, gin.H{
			"success": true,
			"message": "Booking approved successfully",
			"booking": booking,
		})
	}
}

// RejectBooking rejects a pending booking on one of the caller's rides.
func RejectBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		bookingID := c.Param("bookingId")

		var booking models.RideBooking
		if err := db.Preload("Ride").First(&booking, "id = ?", bookingID).Error; err != nil {
			c.JSON(404, gin.H{"success": false, "message": "Booking not found"})
			return
		}

		if booking.Ride == nil || booking.Ride.DriverID != userId {
			c.JSON(403, gin.H{"success": false, "message": "You are not authorized to reject this booking"})
			return
		}

		if booking.Status != models.BookingPending {
			c.JSON(400, gin.H{"success": false, "message": "Only pending bookings can be rejected"})
			return
		}

		booking.Status = models.BookingRejected
		if err := db.Model(&booking).Update("status", models.BookingRejected).Error; err != nil {
			c.JSON(500, gin.H{"success": false, "message": "Failed to reject booking", "error": err.Error()})
			return
		}

		notifyBooking(hub, booking.UserID, "booking_rejected", &booking)

		c.JSON(200, gin.H{
			"success": true,
			"message": "Booking rejected successfully",
			"booking": booking,
		})
	}
}

// CancelBooking lets a rider withdraw their own pending or confirmed
// booking. Rejected and cancelled bookings are terminal.
func CancelBooking(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		bookingID := c.Param("bookingId")

		var booking models.RideBooking
		if err := db.Preload("Ride").
			Where("id = ? AND user_id = ?", bookingID, userId).
			First(&booking).Error; err != nil {
			c.JSON(404, gin.H{"success": false, "message": "Booking not found or not authorized"})
			return
		}

		if !booking.Cancellable() {
			c.JSON(400, gin.H{"success": false, "message": "Only active bookings can be cancelled"})
			return
		}

		booking.Status = models.BookingCancelled
		if err := db.Model(&booking).Update("status", models.BookingCancelled).Error; err != nil {
			c.JSON(500, gin.H{"success": false, "message": "Failed to cancel booking", "error": err.Error()})
			return
		}

		if booking.Ride != nil {
			notifyBooking(hub, booking.Ride.DriverID, "booking_cancelled", &booking)
		}

		c.JSON(200, gin.H{
			"success": true,
			"message": "Booking cancelled successfully",
			"booking": booking,
		})
	}
}

// GetPendingBookings lists booking requests awaiting the caller's decision
// on their own rides, each enriched with the ride's remaining seats after
// confirmed bookings.
func GetPendingBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var bookings []models.RideBooking
		if err := db.Joins("JOIN rides ON rides.id = ride_bookings.ride_id").
			Where("ride_bookings.status = ? AND rides.driver_id = ?", models.BookingPending, userId).
			Preload("User").
			Preload("Ride").
			Preload("Ride.Vehicle").
			Preload("Ride.Bookings", "status = ?", models.BookingConfirmed).
			Order("ride_bookings.created_at DESC").
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"success": false, "message": "Failed to fetch pending bookings", "error": err.Error()})
			return
		}

		results := make([]gin.H, 0, len(bookings))
		for i := range bookings {
			b := &bookings[i]

			entry := gin.H{
				"id":        b.ID,
				"rideId":    b.RideID,
				"userId":    b.UserID,
				"seats":     b.Seats,
				"status":    b.Status,
				"createdAt": b.CreatedAt,
			}
			if b.User != nil {
				entry["user"] = gin.H{
					"id":                 b.User.ID,
					"fullName":           b.User.FullName,
					"email":              b.User.Email,
					"phoneNumber":        b.User.PhoneNumber,
					"rating":             b.User.Rating,
					"verificationStatus": b.User.VerificationStatus,
				}
			}
			if b.Ride != nil {
				ride := gin.H{
					"id":             b.Ride.ID,
					"startLocation":  b.Ride.StartLocation,
					"destination":    b.Ride.Destination,
					"dateTime":       b.Ride.DateTime,
					"seats":          b.Ride.Seats,
					"price":          b.Ride.Price,
					"vehicle":        b.Ride.Vehicle,
					"availableSeats": b.Ride.Seats - b.Ride.ConfirmedSeats(),
				}
				entry["ride"] = ride
			}
			results = append(results, entry)
		}

		c.JSON(200, gin.H{"success": true, "pendingBookings": results})
	}
}

// GetUserBookings lists the caller's booking history with ride, driver
// and vehicle detail.
func GetUserBookings(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var bookings []models.RideBooking
		if err := db.Where("user_id = ?", userId).
			Preload("Ride").
			Preload("Ride.Driver").
			Preload("Ride.Vehicle").
			Preload("Ride.Preferences").
			Order("created_at DESC").
			Find(&bookings).Error; err != nil {
			c.JSON(500, gin.H{"success": false, "message": "Failed to fetch bookings", "error": err.Error()})
			return
		}

		results := make([]gin.H, 0, len(bookings))
		for i := range bookings {
			b := &bookings[i]

			entry := gin.H{
				"id":        b.ID,
				"rideId":    b.RideID,
				"userId":    b.UserID,
				"seats":     b.Seats,
				"status":    b.Status,
				"createdAt": b.CreatedAt,
			}
			if b.Ride != nil {
				ride := gin.H{
					"id":            b.Ride.ID,
					"startLocation": b.Ride.StartLocation,
					"destination":   b.Ride.Destination,
					"dateTime":      b.Ride.DateTime,
					"seats":         b.Ride.Seats,
					"price":         b.Ride.Price,
					"vehicle":       b.Ride.Vehicle,
					"preferences":   b.Ride.Preferences,
				}
				if b.Ride.Driver != nil {
					ride["driver"] = gin.H{
						"id":          b.Ride.Driver.ID,
						"fullName":    b.Ride.Driver.FullName,
						"email":       b.Ride.Driver.Email,
						"phoneNumber": b.Ride.Driver.PhoneNumber,
						"rating":      b.Ride.Driver.Rating,
					}
				}
				entry["ride"] = ride
			}
			results = append(results, entry)
		}

		c.JSON(200, gin.H{"success": true, "bookings": results})
	}
}

// notifyBooking fans a booking state change out to the websocket hub and
// Redis. Both paths are fire-and-forget.
func notifyBooking(hub *services.Hub, recipientID uint, event string, booking *models.RideBooking) {
	if hub != nil {
		hub.SendBookingEvent(recipientID, event, services.BookingEvent{
			BookingID: booking.ID,
			RideID:    booking.RideID,
			Seats:     booking.Seats,
			Status:    string(booking.Status),
		})
	}

	go func() {
		if err := services.PublishBookingUpdate(context.Background(), event, booking.ID, booking.RideID, booking.UserID, nil); err != nil {
			log.Printf("Failed to publish booking event %s: %v", event, err)
		}
	}()
}
