package handlers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wayfare/wayfare-backend/internal/models"
	"github.com/wayfare/wayfare-backend/internal/services"
	"gorm.io/gorm"
)

type PreferencesInput struct {
	VerifiedRiders bool `json:"verifiedRiders"`
	SameGender     bool `json:"sameGender"`
	NonSmoking     bool `json:"nonSmoking"`
	EcoFriendly    bool `json:"ecoFriendly"`
	AllowPets      bool `json:"allowPets"`
	QuietRide      bool `json:"quietRide"`
}

type OfferRideInput struct {
	StartLocation string           `json:"startLocation" binding:"required"`
	StartLat      float64          `json:"startLat"`
	StartLng      float64          `json:"startLng"`
	Destination   string           `json:"destination" binding:"required"`
	DesLat        float64          `json:"desLat"`
	DesLng        float64          `json:"desLng"`
	DateTime      time.Time        `json:"dateTime" binding:"required"`
	Seats         int              `json:"seats" binding:"required,min=1"`
	Price         float64          `json:"price" binding:"required"`
	VehicleID     *uint            `json:"vehicleId"`
	VehModel      string           `json:"model"`
	Color         string           `json:"color"`
	Plate         string           `json:"plate"`
	Preferences   PreferencesInput `json:"preferences"`
}

// OfferRide creates a ride offer with its preference row. Only APPROVED
// users may offer rides. The vehicle is either one the caller already
// owns (by id or plate) or is created from the submitted details.
func OfferRide(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input OfferRideInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"message": err.Error()})
			return
		}

		var user models.User
		if err := db.Preload("Vehicles").First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"message": "User not found."})
			return
		}

		if !user.IsApproved() {
			c.JSON(403, gin.H{"message": "User is not verified to offer rides."})
			return
		}

		var rideVehicleID uint
		if input.VehicleID != nil {
			owned := false
			for _, v := range user.Vehicles {
				if v.ID == *input.VehicleID {
					owned = true
					break
				}
			}
			if !owned {
				c.JSON(403, gin.H{"message": "Vehicle does not belong to user."})
				return
			}
			rideVehicleID = *input.VehicleID
		} else {
			if input.VehModel == "" || input.Color == "" || input.Plate == "" {
				c.JSON(400, gin.H{"message": "Vehicle details are required."})
				return
			}

			var existing models.Vehicle
			err := db.Where("plate = ?", input.Plate).First(&existing).Error
			switch {
			case err == nil && existing.DriverID != userId:
				c.JSON(400, gin.H{"message": "Vehicle with this plate already exists and belongs to someone else."})
				return
			case err == nil:
				// Caller already owns a vehicle with this plate; reuse it.
				rideVehicleID = existing.ID
			case errors.Is(err, gorm.ErrRecordNotFound):
				vehicle := models.Vehicle{
					DriverID: userId,
					VehModel: input.VehModel,
					Color:    input.Color,
					Plate:    input.Plate,
				}
				if err := db.Create(&vehicle).Error; err != nil {
					c.JSON(500, gin.H{"message": "Failed to create vehicle", "error": err.Error()})
					return
				}
				rideVehicleID = vehicle.ID
			default:
				c.JSON(500, gin.H{"message": "Failed to look up vehicle", "error": err.Error()})
				return
			}
		}

		ride := models.Ride{
			DriverID:      userId,
			StartLocation: input.StartLocation,
			StartLat:      input.StartLat,
			StartLng:      input.StartLng,
			Destination:   input.Destination,
			DestLat:       input.DesLat,
			DestLng:       input.DesLng,
			DateTime:      input.DateTime,
			Seats:         input.Seats,
			Price:         input.Price,
			VehicleID:     rideVehicleID,
			Preferences: &models.RidePreference{
				VerifiedRiders: input.Preferences.VerifiedRiders,
				SameGender:     input.Preferences.SameGender,
				NonSmoking:     input.Preferences.NonSmoking,
				EcoFriendly:    input.Preferences.EcoFriendly,
				AllowPets:      input.Preferences.AllowPets,
				QuietRide:      input.Preferences.QuietRide,
			},
		}

		if err := db.Create(&ride).Error; err != nil {
			c.JSON(500, gin.H{"message": "Failed to create ride", "error": err.Error()})
			return
		}

		if err := db.Preload("Vehicle").Preload("Preferences").First(&ride, ride.ID).Error; err != nil {
			c.JSON(500, gin.H{"message": "Failed to load ride", "error": err.Error()})
			return
		}

		if hub != nil {
			hub.BroadcastRideEvent("ride_offered", services.RideEvent{
				RideID:        ride.ID,
				DriverID:      userId,
				StartLocation: ride.StartLocation,
				Destination:   ride.Destination,
				Seats:         ride.Seats,
				Price:         ride.Price,
			})
		}

		go func() {
			if err := services.PublishRideUpdate(context.Background(), "ride_offered", ride.ID, userId, map[string]interface{}{
				"startLocation": ride.StartLocation,
				"destination":   ride.Destination,
				"seats":         ride.Seats,
				"price":         ride.Price,
			}); err != nil {
				log.Printf("Failed to publish ride offered event: %v", err)
			}
		}()

		c.JSON(201, gin.H{"message": "Ride offered successfully.", "ride": ride})
	}
}

// GetMyRides lists the caller's offered rides, newest first.
func GetMyRides(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var rides []models.Ride
		if err := db.Where("driver_id = ?", userId).
			Preload("Vehicle").
			Preload("Preferences").
			Order("date_time DESC").
			Find(&rides).Error; err != nil {
			c.JSON(500, gin.H{"message": "Failed to fetch rides", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"rides": rides})
	}
}

// GetMyVehicles lists the caller's vehicles.
func GetMyVehicles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var vehicles []models.Vehicle
		if err := db.Where("driver_id = ?", userId).Find(&vehicles).Error; err != nil {
			c.JSON(500, gin.H{"message": "Internal server error.", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{"vehicles": vehicleSummaries(vehicles)})
	}
}

func vehicleSummaries(vehicles []models.Vehicle) []gin.H {
	out := make([]gin.H, 0, len(vehicles))
	for _, v := range vehicles {
		out = append(out, gin.H{
			"id":    v.ID,
			"model": v.VehModel,
			"color": v.Color,
			"plate": v.Plate,
		})
	}
	return out
}
