package model

import "time"

// OrphanedImage records a remote object whose delete failed and must be retried.
type OrphanedImage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ExternalID string    `json:"externalId" gorm:"uniqueIndex;not null"`
	Reason     string    `json:"reason"`
	Attempts   int       `json:"attempts" gorm:"not null;default:0"`
	LastError  string    `json:"lastError" gorm:"type:text"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
