package model

import "time"

type PropertyType struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PropertyFeature struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PropertyToFeature is the association row between a property and a feature.
type PropertyToFeature struct {
	PropertyID uint `json:"propertyId" gorm:"primaryKey;autoIncrement:false"`
	FeatureID  uint `json:"featureId" gorm:"primaryKey;autoIncrement:false;index"`

	Property *Property        `json:"-" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`
	Feature  *PropertyFeature `json:"-" gorm:"foreignKey:FeatureID;constraint:OnDelete:CASCADE"`
}
