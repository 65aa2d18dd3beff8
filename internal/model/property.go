package model

import "time"

type SaleType string

const (
	SaleTypeSale  SaleType = "Sale"
	SaleTypeRent  SaleType = "Rent"
	SaleTypeLease SaleType = "Lease"
)

// Valid reports whether s is one of the known sale types.
func (s SaleType) Valid() bool {
	switch s {
	case SaleTypeSale, SaleTypeRent, SaleTypeLease:
		return true
	}
	return false
}

type Property struct {
	ID             uint     `json:"id" gorm:"primaryKey"`
	Name           string   `json:"name" gorm:"uniqueIndex;not null"`
	Description    string   `json:"description" gorm:"type:text;not null"`
	StreetAddress  string   `json:"streetAddress" gorm:"not null"`
	City           string   `json:"city" gorm:"not null;index"`
	Area           string   `json:"area" gorm:"not null"`
	State          string   `json:"state" gorm:"not null"`
	Country        string   `json:"country" gorm:"not null"`
	County         string   `json:"county" gorm:"not null;index"`
	Latitude       string   `json:"latitude"`
	Longitude      string   `json:"longitude"`
	SaleType       SaleType `json:"saleType" gorm:"type:varchar(10);not null;default:'Sale';index"`
	Featured       bool     `json:"featured" gorm:"default:false"`
	PropertyTypeID uint     `json:"propertyTypeId" gorm:"not null;index"`
	Size           string   `json:"size"`
	Distance       string   `json:"distance"`
	Price          float64  `json:"price" gorm:"not null;default:0;index"`
	PricePerMonth  float64  `json:"pricePerMonth" gorm:"not null;default:0"`
	Bedrooms       int      `json:"bedrooms" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	PropertyType *PropertyType   `json:"propertyType,omitempty" gorm:"foreignKey:PropertyTypeID;constraint:OnDelete:RESTRICT"`
	Images       []PropertyImage `json:"images,omitempty" gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE"`

	// Features is resolved through property_to_features on read.
	Features []PropertyFeature `json:"features,omitempty" gorm:"-"`
}

type PropertyImage struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	PropertyID uint      `json:"propertyId" gorm:"not null;index"`
	URL        string    `json:"url" gorm:"not null"`
	ExternalID string    `json:"externalId" gorm:"not null;uniqueIndex"`
	Position   int       `json:"order" gorm:"not null;default:0"`
	CreatedAt  time.Time `json:"createdAt"`
}
