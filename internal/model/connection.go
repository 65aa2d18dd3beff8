package model

import "time"

// Connection is a contact-form submission, optionally about a specific property.
type Connection struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PropertyID *uint     `json:"propertyId" gorm:"index"`
	Name       string    `json:"name" gorm:"not null"`
	Email      string    `json:"email" gorm:"not null"`
	Phone      string    `json:"phone"`
	Message    string    `json:"message" gorm:"type:text"`
	ReadStatus bool      `json:"readStatus" gorm:"default:false"`
	CreatedAt  time.Time `json:"createdAt" gorm:"index"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:SET NULL"`
}
