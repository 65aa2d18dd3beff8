package listing

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/pkg/utils/apperror"
)

const similarLimit = 5

// Summary is the listing card projection. It never carries the description or address.
type Summary struct {
	ID            uint                  `json:"id"`
	Name          string                `json:"name"`
	Area          string                `json:"area"`
	City          string                `json:"city"`
	Price         float64               `json:"price"`
	PricePerMonth float64               `json:"pricePerMonth"`
	Bedrooms      int                   `json:"bedrooms"`
	Size          string                `json:"size"`
	Images        []model.PropertyImage `json:"images"`
	Country       string                `json:"country"`
	State         string                `json:"state"`
	SaleType      model.SaleType        `json:"saleType"`
	Featured      bool                  `json:"featured"`
	PropertyType  *model.PropertyType   `json:"propertyType"`
	County        string                `json:"county"`
	Distance      string                `json:"distance"`
}

type ListResult struct {
	Properties []Summary `json:"properties"`
	TotalPages int       `json:"totalPages"`
}

// Detail is the single-property envelope.
type Detail struct {
	Property *model.Property      `json:"property"`
	Images   []model.PropertyImage `json:"images"`
}

var summaryColumns = []string{
	"id", "name", "area", "city", "price", "price_per_month", "bedrooms", "size",
	"country", "state", "sale_type", "featured", "property_type_id", "county", "distance",
	"created_at",
}

type QueryService struct {
	db *gorm.DB
}

func NewQueryService(db *gorm.DB) *QueryService {
	return &QueryService{db: db}
}

// List returns one page of properties matching preds, newest first.
func (s *QueryService) List(ctx context.Context, preds Predicates, page Page) (*ListResult, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&model.Property{}).Scopes(preds.Scope).Count(&total).Error; err != nil {
		return nil, apperror.Server("could not count properties", err)
	}

	var rows []model.Property
	err := summaryQuery(db).
		Scopes(preds.Scope).
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, apperror.Server("could not list properties", err)
	}

	return &ListResult{
		Properties: toSummaries(rows),
		TotalPages: TotalPages(total, page.Limit),
	}, nil
}

// All returns every property, newest first.
func (s *QueryService) All(ctx context.Context) ([]Summary, error) {
	var rows []model.Property
	if err := summaryQuery(s.db.WithContext(ctx)).Find(&rows).Error; err != nil {
		return nil, apperror.Server("could not list properties", err)
	}
	return toSummaries(rows), nil
}

// GetByID resolves the property, its type, its features and its images. The base row is
// checked first so the dependent queries never run for a missing id.
func (s *QueryService) GetByID(ctx context.Context, id uint) (*Detail, error) {
	db := s.db.WithContext(ctx)

	property, err := findProperty(db, id)
	if err != nil {
		return nil, err
	}

	if err := attachPropertyType(db, property); err != nil {
		return nil, err
	}

	features, err := featuresOf(db, property.ID)
	if err != nil {
		return nil, err
	}
	property.Features = features

	images, err := imagesOf(db, property.ID)
	if err != nil {
		return nil, err
	}

	return &Detail{Property: property, Images: images}, nil
}

// Similar returns up to five other properties in the same county and city with the same
// sale type and property type, priced within 10% of the reference.
func (s *QueryService) Similar(ctx context.Context, id uint) ([]Summary, error) {
	db := s.db.WithContext(ctx)

	ref, err := findProperty(db, id)
	if err != nil {
		return nil, err
	}

	var rows []model.Property
	err = summaryQuery(db).
		Where("county = ? AND city = ?", ref.County, ref.City).
		Where("sale_type = ? AND property_type_id = ?", ref.SaleType, ref.PropertyTypeID).
		Where("price >= ? AND price <= ?", ref.Price*0.9, ref.Price*1.1).
		Where("id <> ?", ref.ID).
		Limit(similarLimit).
		Find(&rows).Error
	if err != nil {
		return nil, apperror.Server("could not find similar properties", err)
	}
	return toSummaries(rows), nil
}

func summaryQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&model.Property{}).
		Select(summaryColumns).
		Preload("Images", orderedImages).
		Preload("PropertyType").
		Order("created_at DESC").
		Order("id DESC")
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC").Order("id ASC")
}

func toSummaries(rows []model.Property) []Summary {
	out := make([]Summary, 0, len(rows))
	for _, p := range rows {
		images := p.Images
		if images == nil {
			images = []model.PropertyImage{}
		}
		out = append(out, Summary{
			ID:            p.ID,
			Name:          p.Name,
			Area:          p.Area,
			City:          p.City,
			Price:         p.Price,
			PricePerMonth: p.PricePerMonth,
			Bedrooms:      p.Bedrooms,
			Size:          p.Size,
			Images:        images,
			Country:       p.Country,
			State:         p.State,
			SaleType:      p.SaleType,
			Featured:      p.Featured,
			PropertyType:  p.PropertyType,
			County:        p.County,
			Distance:      p.Distance,
		})
	}
	return out
}

func findProperty(db *gorm.DB, id uint) (*model.Property, error) {
	var property model.Property
	if err := db.First(&property, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("property")
		}
		return nil, apperror.Server("could not fetch property", err)
	}
	return &property, nil
}

func attachPropertyType(db *gorm.DB, property *model.Property) error {
	var pt model.PropertyType
	err := db.First(&pt, property.PropertyTypeID).Error
	switch {
	case err == nil:
		property.PropertyType = &pt
	case errors.Is(err, gorm.ErrRecordNotFound):
		property.PropertyType = nil
	default:
		return apperror.Server("could not fetch property type", err)
	}
	return nil
}

func featuresOf(db *gorm.DB, propertyID uint) ([]model.PropertyFeature, error) {
	features := []model.PropertyFeature{}
	err := db.
		Joins("JOIN property_to_features ON property_to_features.feature_id = property_features.id").
		Where("property_to_features.property_id = ?", propertyID).
		Order("property_features.id ASC").
		Find(&features).Error
	if err != nil {
		return nil, apperror.Server("could not fetch property features", err)
	}
	return features, nil
}

func imagesOf(db *gorm.DB, propertyID uint) ([]model.PropertyImage, error) {
	images := []model.PropertyImage{}
	if err := orderedImages(db.Where("property_id = ?", propertyID)).Find(&images).Error; err != nil {
		return nil, apperror.Server("could not fetch property images", err)
	}
	return images, nil
}

// loadFull returns the property with type, features and images attached.
func loadFull(db *gorm.DB, id uint) (*model.Property, error) {
	property, err := findProperty(db, id)
	if err != nil {
		return nil, err
	}
	if err := attachPropertyType(db, property); err != nil {
		return nil, err
	}
	if property.Features, err = featuresOf(db, id); err != nil {
		return nil, err
	}
	if property.Images, err = imagesOf(db, id); err != nil {
		return nil, err
	}
	return property, nil
}
