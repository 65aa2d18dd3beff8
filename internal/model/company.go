package model

import (
	"time"

	"gorm.io/datatypes"
)

type Location struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	LocationName string    `json:"locationName" gorm:"not null"`
	Latitude     string    `json:"latitude"`
	Longitude    string    `json:"longitude"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Company struct {
	ID             uint   `json:"id" gorm:"primaryKey"`
	CompanyName    string `json:"companyName" gorm:"uniqueIndex;not null"`
	StreetAddress  string `json:"streetAddress"`
	StreetAddress2 string `json:"streetAddress2"`
	LocationID     *uint  `json:"locationId" gorm:"index"`
	Phone          string `json:"phone"`
	Phone2         string `json:"phone2"`
	Email          string `json:"email"`
	// SocialLinks maps a network name to a profile URL.
	SocialLinks datatypes.JSON `json:"socialLinks"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Location *Location `json:"location,omitempty" gorm:"foreignKey:LocationID;constraint:OnDelete:SET NULL"`
}
