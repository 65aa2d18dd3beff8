package seed

import (
	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/pkg/logger"
)

var propertyTypes = []string{
	"House",
	"Apartment",
	"Condo",
	"Villa",
	"Townhouse",
	"Land",
	"Commercial",
	"Industrial",
}

var propertyFeatures = []model.PropertyFeature{
	{Name: "Swimming Pool", Description: "Private or shared swimming pool"},
	{Name: "Garden", Description: "Private garden or yard"},
	{Name: "Air Conditioning", Description: "Air conditioning in living areas"},
	{Name: "Central Heating", Description: "Central heating system"},
	{Name: "Security System", Description: "Alarm, CCTV or manned security"},
	{Name: "Garage", Description: "Covered parking space"},
	{Name: "Borehole", Description: "On-site borehole water supply"},
	{Name: "Backup Generator", Description: "Standby power supply"},
}

// SeedCatalog inserts the default property types and features when missing.
func SeedCatalog(db *gorm.DB) error {
	log := logger.Default()

	for _, name := range propertyTypes {
		pt := model.PropertyType{Name: name}
		if err := db.Where(model.PropertyType{Name: name}).FirstOrCreate(&pt).Error; err != nil {
			return err
		}
	}

	for _, f := range propertyFeatures {
		feature := f
		if err := db.Where(model.PropertyFeature{Name: f.Name}).Attrs(model.PropertyFeature{Description: f.Description}).FirstOrCreate(&feature).Error; err != nil {
			return err
		}
	}

	log.Infof("catalog seeded: %d property types, %d features", len(propertyTypes), len(propertyFeatures))
	return nil
}
