package models

import (
	"gorm.io/gorm"
)

type Vehicle struct {
	gorm.Model
	DriverID uint   `json:"driverId" gorm:"not null;index"`
	Driver   *User  `json:"driver,omitempty"`
	VehModel string `json:"model" gorm:"column:model;not null"`
	Color    string `json:"color" gorm:"not null"`
	Plate    string `json:"plate" gorm:"unique;not null"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
