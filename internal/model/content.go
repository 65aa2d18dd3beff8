package model

import "time"

type Blog struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"uniqueIndex;not null"`
	Description      string    `json:"description" gorm:"type:text;not null"`
	ShortDescription string    `json:"shortDescription"`
	ImageURL         string    `json:"imageUrl"`
	ExternalID       string    `json:"externalId"`
	UserID           *uint     `json:"userId" gorm:"index"`
	CreatedAt        time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time `json:"updatedAt"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

type Testimonial struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	ImageURL    string    `json:"imageUrl"`
	ExternalID  string    `json:"externalId"`
	Description string    `json:"description" gorm:"type:text;not null"`
	UserID      *uint     `json:"userId" gorm:"index"`
	OnBehalfOf  string    `json:"onBehalfOf"`
	Rating      int       `json:"rating" gorm:"not null;default:5"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}
