package model

import "time"

type AccessStatus string

const (
	AccessStatusPending  AccessStatus = "PENDING"
	AccessStatusApproved AccessStatus = "APPROVED"
	AccessStatusRejected AccessStatus = "REJECTED"
)

type AccessRequest struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	Email     string       `json:"email" gorm:"uniqueIndex;not null"`
	Status    AccessStatus `json:"status" gorm:"type:varchar(10);not null;default:'PENDING';index"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
