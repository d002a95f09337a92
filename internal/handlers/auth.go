package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/wayfare/wayfare-backend/internal/models"
	"github.com/wayfare/wayfare-backend/internal/services"
	"github.com/wayfare/wayfare-backend/pkg/utils"
	"gorm.io/gorm"
)

var registerFields = []string{
	"fullName",
	"email",
	"phoneNumber",
	"password",
	"streetAddress",
	"city",
	"state",
	"pincode",
	"panNumber",
	"aadharNumber",
}

// Register creates a new user from a multipart form carrying the profile
// fields plus PAN and Aadhar proof documents. New users start with
// verification status PENDING and cannot log in until approved.
func Register(db *gorm.DB, store *services.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		values := make(map[string]string, len(registerFields))
		var missing []string
		for _, field := range registerFields {
			v := c.PostForm(field)
			if v == "" {
				missing = append(missing, field)
			}
			values[field] = v
		}

		if len(missing) > 0 {
			c.JSON(400, gin.H{"message": fmt.Sprintf("Missing fields: %s", strings.Join(missing, ", "))})
			return
		}

		panProof, panErr := c.FormFile("panProof")
		aadharProof, aadharErr := c.FormFile("aadharProof")
		if panErr != nil || aadharErr != nil {
			c.JSON(400, gin.H{"message": "PAN and Aadhar proof are required"})
			return
		}

		panProofURL, err := store.UploadDocument(panProof, "kyc")
		if err != nil {
			c.JSON(500, gin.H{"message": "Failed to upload PAN proof", "error": err.Error()})
			return
		}

		aadharProofURL, err := store.UploadDocument(aadharProof, "kyc")
		if err != nil {
			c.JSON(500, gin.H{"message": "Failed to upload Aadhar proof", "error": err.Error()})
			return
		}

		user := models.User{
			FullName:           values["fullName"],
			Email:              values["email"],
			PhoneNumber:        values["phoneNumber"],
			StreetAddress:      values["streetAddress"],
			City:               values["city"],
			State:              values["state"],
			Pincode:            values["pincode"],
			PANNumber:          values["panNumber"],
			AadharNumber:       values["aadharNumber"],
			PANProofURL:        panProofURL,
			AadharProofURL:     aadharProofURL,
			VerificationStatus: models.VerificationPending,
		}

		if err := user.SetPassword(values["password"]); err != nil {
			c.JSON(500, gin.H{"message": "Failed to hash password"})
			return
		}

		if err := db.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(400, gin.H{"message": "Email, Phone, PAN, or Aadhar already exists"})
				return
			}
			c.JSON(500, gin.H{"message": "Server error", "error": err.Error()})
			return
		}

		c.JSON(201, gin.H{
			"message": "User registered successfully",
			"user": gin.H{
				"id":                 user.ID,
				"fullName":           user.FullName,
				"email":              user.Email,
				"phoneNumber":        user.PhoneNumber,
				"verificationStatus": user.VerificationStatus,
			},
		})
	}
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and issues a bearer token. Users whose KYC
// review has not completed are refused with 403.
func Login(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"message": err.Error()})
			return
		}

		var user models.User
		if result := db.Where("email = ?", input.Email).First(&user); result.Error != nil {
			c.JSON(404, gin.H{"message": "User doesn't exist"})
			return
		}

		if err := user.CheckPassword(input.Password); err != nil {
			c.JSON(400, gin.H{"message": "Invalid credentials"})
			return
		}

		if user.VerificationStatus == models.VerificationPending {
			c.JSON(403, gin.H{"message": "Verification is still in progress."})
			return
		}

		token, err := utils.GenerateToken(user.ID, jwtSecret)
		if err != nil {
			c.JSON(500, gin.H{"message": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"message":            "Login successful",
			"token":              token,
			"verificationStatus": user.VerificationStatus,
		})
	}
}
