package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/wayfare/wayfare-backend/internal/models"
	"gorm.io/gorm"
)

// GetProfile returns the caller's profile including KYC state.
func GetProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		c.JSON(200, gin.H{
			"id":                 user.ID,
			"fullName":           user.FullName,
			"email":              user.Email,
			"phoneNumber":        user.PhoneNumber,
			"streetAddress":      user.StreetAddress,
			"city":               user.City,
			"state":              user.State,
			"pincode":            user.Pincode,
			"panNumber":          user.PANNumber,
			"aadharNumber":       user.AadharNumber,
			"verificationStatus": user.VerificationStatus,
			"createdAt":          user.CreatedAt,
			"rating":             user.Rating,
		})
	}
}

// UpdateProfile updates the caller's contact and address fields. Identity
// fields (email, PAN, Aadhar) are fixed after registration.
func UpdateProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var input struct {
			FullName      *string `json:"fullName"`
			PhoneNumber   *string `json:"phoneNumber"`
			StreetAddress *string `json:"streetAddress"`
			City          *string `json:"city"`
			State         *string `json:"state"`
			Pincode       *string `json:"pincode"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if err := db.First(&user, userId).Error; err != nil {
			c.JSON(404, gin.H{"error": "User not found"})
			return
		}

		if input.FullName != nil {
			user.FullName = *input.FullName
		}
		if input.PhoneNumber != nil {
			user.PhoneNumber = *input.PhoneNumber
		}
		if input.StreetAddress != nil {
			user.StreetAddress = *input.StreetAddress
		}
		if input.City != nil {
			user.City = *input.City
		}
		if input.State != nil {
			user.State = *input.State
		}
		if input.Pincode != nil {
			user.Pincode = *input.Pincode
		}

		if err := db.Save(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(400, gin.H{"error": "Phone number already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to update profile"})
			return
		}

		c.JSON(200, gin.H{
			"id":                 user.ID,
			"fullName":           user.FullName,
			"email":              user.Email,
			"phoneNumber":        user.PhoneNumber,
			"streetAddress":      user.StreetAddress,
			"city":               user.City,
			"state":              user.State,
			"pincode":            user.Pincode,
			"verificationStatus": user.VerificationStatus,
			"rating":             user.Rating,
		})
	}
}

// GetUserVehicles lists the caller's vehicles.
func GetUserVehicles(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")

		var vehicles []models.Vehicle
		if err := db.Where("driver_id = ?", userId).Find(&vehicles).Error; err != nil {
			c.JSON(500, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(200, vehicleSummaries(vehicles))
	}
}

// EditVehicle updates a vehicle the caller owns.
func EditVehicle(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := c.GetUint("userId")
		vehicleID := c.Param("vehicleId")

		var input struct {
			VehModel string `json:"model"`
			Color    string `json:"color"`
			Plate    string `json:"plate"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if input.VehModel == "" || input.Color == "" || input.Plate == "" {
			c.JSON(400, gin.H{"error": "All fields are required"})
			return
		}

		var vehicle models.Vehicle
		if err := db.First(&vehicle, "id = ?", vehicleID).Error; err != nil {
			c.JSON(404, gin.H{"error": "Vehicle not found"})
			return
		}

		if vehicle.DriverID != userId {
			c.JSON(403, gin.H{"error": "Unauthorized to update this vehicle"})
			return
		}

		vehicle.VehModel = input.VehModel
		vehicle.Color = input.Color
		vehicle.Plate = input.Plate

		if err := db.Save(&vehicle).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(400, gin.H{"error": "Plate number already exists"})
				return
			}
			c.JSON(500, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(200, gin.H{
			"message": "Vehicle updated successfully",
			"vehicle": gin.H{
				"id":    vehicle.ID,
				"model": vehicle.VehModel,
				"color": vehicle.Color,
				"plate": vehicle.Plate,
			},
		})
	}
}
