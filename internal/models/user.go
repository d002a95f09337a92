package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
)

type User struct {
	gorm.Model
	FullName           string             `json:"fullName" gorm:"column:full_name;not null"`
	Email              string             `json:"email" gorm:"column:email;unique;not null"`
	PhoneNumber        string             `json:"phoneNumber" gorm:"column:phone_number;unique;not null"`
	PasswordHash       string             `json:"-" gorm:"column:password_hash;not null"`
	StreetAddress      string             `json:"streetAddress" gorm:"column:street_address"`
	City               string             `json:"city" gorm:"column:city"`
	State              string             `json:"state" gorm:"column:state"`
	Pincode            string             `json:"pincode" gorm:"column:pincode"`
	PANNumber          string             `json:"panNumber" gorm:"column:pan_number;unique;not null"`
	AadharNumber       string             `json:"aadharNumber" gorm:"column:aadhar_number;unique;not null"`
	PANProofURL        string             `json:"panProofUrl" gorm:"column:pan_proof_url"`
	AadharProofURL     string             `json:"aadharProofUrl" gorm:"column:aadhar_proof_url"`
	VerificationStatus VerificationStatus `json:"verificationStatus" gorm:"column:verification_status;not null;default:'PENDING'"`
	Rating             float64            `json:"rating" gorm:"column:rating;default:0"`

	Vehicles []Vehicle `json:"vehicles,omitempty" gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// IsApproved reports whether the user has passed KYC review.
// Only approved users may offer rides.
func (u *User) IsApproved() bool {
	return u.VerificationStatus == VerificationApproved
}
