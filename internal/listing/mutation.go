package listing

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"listings_backend/internal/model"
	"listings_backend/pkg/cron"
	"listings_backend/pkg/events"
	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/apperror"
	"listings_backend/pkg/utils/storage"
	"listings_backend/pkg/utils/validation"
)

// CreateInput is the property payload. Features is a comma-separated list of feature ids.
type CreateInput struct {
	Name          string         `json:"name" validate:"required,notblank,max=255"`
	Description   string         `json:"description" validate:"required"`
	StreetAddress string         `json:"street_address" validate:"required"`
	City          string         `json:"city" validate:"required,notblank"`
	Area          string         `json:"area" validate:"required,notblank"`
	State         string         `json:"state" validate:"required,notblank"`
	Country       string         `json:"country" validate:"required,notblank"`
	County        string         `json:"county" validate:"required,notblank"`
	Latitude      string         `json:"latitude" validate:"required"`
	Longitude     string         `json:"longitude" validate:"required"`
	SaleType      model.SaleType `json:"saleType" validate:"omitempty,oneof=Sale Rent Lease"`
	Featured      bool           `json:"featured"`
	PropertyType  uint           `json:"propertyType" validate:"required,gt=0"`
	Size          string         `json:"size" validate:"required"`
	Distance      string         `json:"distance" validate:"required"`
	Price         float64        `json:"price" validate:"gte=0"`
	PricePerMonth float64        `json:"pricepermonth" validate:"gte=0"`
	Features      string         `json:"features" validate:"required,idlist"`
	Bedrooms      int            `json:"bedrooms" validate:"gte=0"`
}

// UpdateInput changes only the fields that are present. A present Features value replaces
// the whole association set.
type UpdateInput struct {
	ID            uint            `json:"id" validate:"required,gt=0"`
	Name          *string         `json:"name" validate:"omitempty,notblank,max=255"`
	Description   *string         `json:"description" validate:"omitempty,min=1"`
	StreetAddress *string         `json:"street_address" validate:"omitempty,min=1"`
	City          *string         `json:"city" validate:"omitempty,notblank"`
	Area          *string         `json:"area" validate:"omitempty,notblank"`
	State         *string         `json:"state" validate:"omitempty,notblank"`
	Country       *string         `json:"country" validate:"omitempty,notblank"`
	County        *string         `json:"county" validate:"omitempty,notblank"`
	Latitude      *string         `json:"latitude"`
	Longitude     *string         `json:"longitude"`
	SaleType      *model.SaleType `json:"saleType" validate:"omitempty,oneof=Sale Rent Lease"`
	Featured      *bool           `json:"featured"`
	PropertyType  *uint           `json:"propertyType" validate:"omitempty,gt=0"`
	Size          *string         `json:"size"`
	Distance      *string         `json:"distance"`
	Price         *float64        `json:"price" validate:"omitempty,gte=0"`
	PricePerMonth *float64        `json:"pricepermonth" validate:"omitempty,gte=0"`
	Features      *string         `json:"features" validate:"omitempty,idlist"`
	Bedrooms      *int            `json:"bedrooms" validate:"omitempty,gte=0"`
}

// columns maps the present fields to their database columns.
func (in UpdateInput) columns() map[string]interface{} {
	cols := map[string]interface{}{}
	setString := func(col string, v *string) {
		if v != nil {
			cols[col] = strings.TrimSpace(*v)
		}
	}
	setString("name", in.Name)
	setString("description", in.Description)
	setString("street_address", in.StreetAddress)
	setString("city", in.City)
	setString("area", in.Area)
	setString("state", in.State)
	setString("country", in.Country)
	setString("county", in.County)
	setString("latitude", in.Latitude)
	setString("longitude", in.Longitude)
	setString("size", in.Size)
	setString("distance", in.Distance)
	if in.SaleType != nil {
		cols["sale_type"] = *in.SaleType
	}
	if in.Featured != nil {
		cols["featured"] = *in.Featured
	}
	if in.PropertyType != nil {
		cols["property_type_id"] = *in.PropertyType
	}
	if in.Price != nil {
		cols["price"] = *in.Price
	}
	if in.PricePerMonth != nil {
		cols["price_per_month"] = *in.PricePerMonth
	}
	if in.Bedrooms != nil {
		cols["bedrooms"] = *in.Bedrooms
	}
	return cols
}

const (
	ImageActionDelete = "delete"
	ImageActionNew    = "new"
)

// ImageActionInput removes one image (delete) or appends uploads to a property (new).
type ImageActionInput struct {
	Action     string `json:"action" validate:"required,oneof=delete new"`
	ExternalID string `json:"externalId" validate:"required_if=Action delete"`
	PropertyID uint   `json:"propertyId" validate:"required_if=Action new"`
}

// MutationService writes properties together with their images and feature associations.
// Database writes for one operation share a transaction; remote store calls do not, so
// objects that cannot be cleaned up are recorded in the orphaned_images table.
type MutationService struct {
	db        *gorm.DB
	store     storage.ObjectStore
	publisher events.Publisher
	now       func() time.Time
}

func NewMutationService(db *gorm.DB, store storage.ObjectStore, publisher events.Publisher) *MutationService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &MutationService{db: db, store: store, publisher: publisher, now: time.Now}
}

// Create stores a new property. Images are uploaded before the transaction starts.
func (s *MutationService) Create(ctx context.Context, in CreateInput, files []*multipart.FileHeader) (*model.Property, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	featureIDs, err := validation.ParseIDList(in.Features)
	if err != nil {
		return nil, apperror.ValidationFields(map[string]string{"features": err.Error()})
	}
	if err := validation.ValidateImages(files, 0); err != nil {
		return nil, apperror.ValidationFields(map[string]string{"images": err.Error()})
	}

	db := s.db.WithContext(ctx)
	name := strings.TrimSpace(in.Name)
	if err := checkNameFree(db, name, 0); err != nil {
		return nil, err
	}
	if err := checkReferences(db, &in.PropertyType, featureIDs); err != nil {
		return nil, err
	}

	saleType := in.SaleType
	if saleType == "" {
		saleType = model.SaleTypeSale
	}

	uploads, err := s.uploadAll(ctx, files, propertyFolder(name))
	if err != nil {
		return nil, err
	}

	property := model.Property{
		Name:           name,
		Description:    in.Description,
		StreetAddress:  in.StreetAddress,
		City:           strings.TrimSpace(in.City),
		Area:           strings.TrimSpace(in.Area),
		State:          strings.TrimSpace(in.State),
		Country:        strings.TrimSpace(in.Country),
		County:         strings.TrimSpace(in.County),
		Latitude:       in.Latitude,
		Longitude:      in.Longitude,
		SaleType:       saleType,
		Featured:       in.Featured,
		PropertyTypeID: in.PropertyType,
		Size:           in.Size,
		Distance:       in.Distance,
		Price:          in.Price,
		PricePerMonth:  in.PricePerMonth,
		Bedrooms:       in.Bedrooms,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&property).Error; err != nil {
			return fmt.Errorf("could not create property: %w", err)
		}
		if err := checkReferences(tx, nil, featureIDs); err != nil {
			return err
		}
		if err := insertImages(tx, property.ID, uploads, 1); err != nil {
			return err
		}
		return insertFeatures(tx, property.ID, featureIDs)
	})
	if err != nil {
		s.discard(ctx, uploads, "create rolled back")
		return nil, asServerError("could not create property", err)
	}

	s.publish(ctx, events.ActionCreate, property.ID)
	return loadFull(db, property.ID)
}

// Update applies the present fields of in. When files are supplied the existing image set
// is replaced; otherwise existing images are kept.
func (s *MutationService) Update(ctx context.Context, in UpdateInput, files []*multipart.FileHeader) (*model.Property, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var featureIDs []uint
	if in.Features != nil {
		ids, err := validation.ParseIDList(*in.Features)
		if err != nil {
			return nil, apperror.ValidationFields(map[string]string{"features": err.Error()})
		}
		featureIDs = ids
	}
	if err := validation.ValidateImages(files, 0); err != nil {
		return nil, apperror.ValidationFields(map[string]string{"images": err.Error()})
	}

	cols := in.columns()
	if len(cols) == 0 && in.Features == nil && len(files) == 0 {
		return nil, apperror.Validation("nothing to update")
	}

	db := s.db.WithContext(ctx)
	existing, err := findProperty(db, in.ID)
	if err != nil {
		return nil, err
	}

	folderName := existing.Name
	if in.Name != nil {
		folderName = strings.TrimSpace(*in.Name)
		if err := checkNameFree(db, folderName, existing.ID); err != nil {
			return nil, err
		}
	}
	if err := checkReferences(db, in.PropertyType, featureIDs); err != nil {
		return nil, err
	}

	uploads, err := s.uploadAll(ctx, files, propertyFolder(folderName))
	if err != nil {
		return nil, err
	}

	var replaced []model.PropertyImage
	err = db.Transaction(func(tx *gorm.DB) error {
		if len(cols) > 0 {
			if err := tx.Model(&model.Property{}).Where("id = ?", existing.ID).Updates(cols).Error; err != nil {
				return fmt.Errorf("could not update property: %w", err)
			}
		}

		if in.Features != nil {
			if err := checkReferences(tx, nil, featureIDs); err != nil {
				return err
			}
			if err := tx.Where("property_id = ?", existing.ID).Delete(&model.PropertyToFeature{}).Error; err != nil {
				return fmt.Errorf("could not clear features: %w", err)
			}
			if err := insertFeatures(tx, existing.ID, featureIDs); err != nil {
				return err
			}
		}

		if len(uploads) > 0 {
			if err := tx.Where("property_id = ?", existing.ID).Find(&replaced).Error; err != nil {
				return fmt.Errorf("could not load images: %w", err)
			}
			if err := tx.Where("property_id = ?", existing.ID).Delete(&model.PropertyImage{}).Error; err != nil {
				return fmt.Errorf("could not delete images: %w", err)
			}
			if err := insertImages(tx, existing.ID, uploads, 1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, uploads, "update rolled back")
		return nil, asServerError("could not update property", err)
	}

	s.discard(ctx, imageResults(replaced), "replaced by update")
	s.publish(ctx, events.ActionUpdate, existing.ID)
	return loadFull(db, existing.ID)
}

// Delete removes the property, its images (remote objects first) and its feature rows in
// one transaction.
func (s *MutationService) Delete(ctx context.Context, id uint) error {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return apperror.Server("could not start transaction", tx.Error)
	}

	var property model.Property
	if err := tx.First(&property, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("property")
		}
		return apperror.Server("could not fetch property", err)
	}

	var images []model.PropertyImage
	if err := tx.Where("property_id = ?", property.ID).Find(&images).Error; err != nil {
		tx.Rollback()
		return apperror.Server("could not fetch property images", err)
	}

	// Failed remote deletes are recorded inside the transaction so they only persist when
	// the rows that referenced them are gone too.
	for _, img := range images {
		if err := s.store.Delete(ctx, img.ExternalID); err != nil {
			logger.FromContext(ctx).WithError(err).WithField("externalId", img.ExternalID).Warn("could not delete remote image")
			if err := cron.RecordOrphan(tx, img.ExternalID, "property deleted", err); err != nil {
				tx.Rollback()
				return apperror.Server("could not record orphaned image", err)
			}
		}
	}

	if err := tx.Where("property_id = ?", property.ID).Delete(&model.PropertyToFeature{}).Error; err != nil {
		tx.Rollback()
		return apperror.Server("could not delete property features", err)
	}
	if err := tx.Where("property_id = ?", property.ID).Delete(&model.PropertyImage{}).Error; err != nil {
		tx.Rollback()
		return apperror.Server("could not delete property images", err)
	}
	if err := tx.Delete(&property).Error; err != nil {
		tx.Rollback()
		return apperror.Server("could not delete property", err)
	}

	if err := tx.Commit().Error; err != nil {
		return apperror.Server("could not complete the property deletion", err)
	}

	s.publish(ctx, events.ActionDelete, property.ID)
	return nil
}

// UpdateImages deletes a single image or appends new uploads to a property.
func (s *MutationService) UpdateImages(ctx context.Context, in ImageActionInput, files []*multipart.FileHeader) ([]model.PropertyImage, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)

	switch in.Action {
	case ImageActionDelete:
		var img model.PropertyImage
		if err := db.Where("external_id = ?", in.ExternalID).First(&img).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperror.NotFound("image")
			}
			return nil, apperror.Server("could not fetch image", err)
		}
		if err := db.Delete(&img).Error; err != nil {
			return nil, apperror.Server("could not delete image", err)
		}
		s.discard(ctx, imageResults([]model.PropertyImage{img}), "image removed")
		s.publish(ctx, events.ActionUpdate, img.PropertyID)
		return imagesOf(db, img.PropertyID)

	default:
		if len(files) == 0 {
			return nil, apperror.ValidationFields(map[string]string{"images": "images is required"})
		}
		property, err := findProperty(db, in.PropertyID)
		if err != nil {
			return nil, err
		}

		var count int64
		if err := db.Model(&model.PropertyImage{}).Where("property_id = ?", property.ID).Count(&count).Error; err != nil {
			return nil, apperror.Server("could not count images", err)
		}
		if err := validation.ValidateImages(files, int(count)); err != nil {
			return nil, apperror.ValidationFields(map[string]string{"images": err.Error()})
		}

		uploads, err := s.uploadAll(ctx, files, propertyFolder(property.Name))
		if err != nil {
			return nil, err
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			var last struct{ Max int }
			if err := tx.Model(&model.PropertyImage{}).
				Select("COALESCE(MAX(position), 0) AS max").
				Where("property_id = ?", property.ID).
				Scan(&last).Error; err != nil {
				return err
			}
			return insertImages(tx, property.ID, uploads, last.Max+1)
		})
		if err != nil {
			s.discard(ctx, uploads, "image append rolled back")
			return nil, asServerError("could not save images", err)
		}

		s.publish(ctx, events.ActionUpdate, property.ID)
		return imagesOf(db, property.ID)
	}
}

// OrderImages sets each image's position to its 1-based index in externalIDs.
func (s *MutationService) OrderImages(ctx context.Context, propertyID uint, externalIDs []string) (*model.Property, error) {
	if propertyID == 0 || len(externalIDs) == 0 {
		return nil, apperror.Validation("propertyId and imageOrder are required")
	}
	db := s.db.WithContext(ctx)
	if _, err := findProperty(db, propertyID); err != nil {
		return nil, err
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i, externalID := range externalIDs {
			res := tx.Model(&model.PropertyImage{}).
				Where("property_id = ? AND external_id = ?", propertyID, externalID).
				Update("position", i+1)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return apperror.Validationf("image %s does not belong to property %d", externalID, propertyID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, asServerError("could not reorder images", err)
	}

	s.publish(ctx, events.ActionUpdate, propertyID)
	return loadFull(db, propertyID)
}

// uploadAll uploads files in order. If one fails the earlier uploads are removed again.
func (s *MutationService) uploadAll(ctx context.Context, files []*multipart.FileHeader, folder string) ([]storage.UploadResult, error) {
	results := make([]storage.UploadResult, 0, len(files))
	for _, f := range files {
		res, err := s.store.Upload(ctx, f, folder)
		if err != nil {
			s.discard(ctx, results, "upload batch failed")
			return nil, apperror.Server("could not upload image "+f.Filename, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// discard deletes remote objects that no row references. Objects that cannot be deleted
// are queued for the reconciliation job.
func (s *MutationService) discard(ctx context.Context, uploads []storage.UploadResult, reason string) {
	log := logger.FromContext(ctx)
	for _, u := range uploads {
		err := s.store.Delete(ctx, u.ExternalID)
		if err == nil {
			continue
		}
		log.WithError(err).WithField("externalId", u.ExternalID).Warn("could not delete remote image, queued for reconciliation")
		if err := cron.RecordOrphan(s.db.WithContext(ctx), u.ExternalID, reason, err); err != nil {
			log.WithError(err).WithField("externalId", u.ExternalID).Error("could not record orphaned image")
		}
	}
}

func (s *MutationService) publish(ctx context.Context, action events.Action, propertyID uint) {
	msg := events.PropertyMessage{Action: action, PropertyID: propertyID, OccurredAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("propertyId", propertyID).Warn("could not publish listing event")
	}
}

func insertImages(tx *gorm.DB, propertyID uint, uploads []storage.UploadResult, firstPosition int) error {
	if len(uploads) == 0 {
		return nil
	}
	rows := make([]model.PropertyImage, 0, len(uploads))
	for i, u := range uploads {
		rows = append(rows, model.PropertyImage{
			PropertyID: propertyID,
			URL:        u.URL,
			ExternalID: u.ExternalID,
			Position:   firstPosition + i,
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("could not save images: %w", err)
	}
	return nil
}

func insertFeatures(tx *gorm.DB, propertyID uint, featureIDs []uint) error {
	if len(featureIDs) == 0 {
		return nil
	}
	rows := make([]model.PropertyToFeature, 0, len(featureIDs))
	for _, id := range featureIDs {
		rows = append(rows, model.PropertyToFeature{PropertyID: propertyID, FeatureID: id})
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("could not save features: %w", err)
	}
	return nil
}

// checkReferences verifies the property type (when given) and every feature id exist.
func checkReferences(db *gorm.DB, propertyTypeID *uint, featureIDs []uint) error {
	if propertyTypeID != nil {
		var n int64
		if err := db.Model(&model.PropertyType{}).Where("id = ?", *propertyTypeID).Count(&n).Error; err != nil {
			return apperror.Server("could not check property type", err)
		}
		if n == 0 {
			return apperror.ValidationFields(map[string]string{
				"propertyType": fmt.Sprintf("propertyType %d does not exist", *propertyTypeID),
			})
		}
	}

	if len(featureIDs) == 0 {
		return nil
	}
	var found []uint
	if err := db.Model(&model.PropertyFeature{}).Where("id IN ?", featureIDs).Pluck("id", &found).Error; err != nil {
		return apperror.Server("could not check features", err)
	}
	if missing := difference(featureIDs, found); len(missing) > 0 {
		return apperror.ValidationFields(map[string]string{
			"features": "unknown feature ids: " + joinIDs(missing),
		})
	}
	return nil
}

func checkNameFree(db *gorm.DB, name string, exceptID uint) error {
	var n int64
	q := db.Model(&model.Property{}).Where("name = ?", name)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return apperror.Server("could not check property name", err)
	}
	if n > 0 {
		return apperror.Conflict(fmt.Sprintf("a property named %q already exists", name))
	}
	return nil
}

func difference(want, have []uint) []uint {
	seen := make(map[uint]bool, len(have))
	for _, id := range have {
		seen[id] = true
	}
	var missing []uint
	for _, id := range want {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

func joinIDs(ids []uint) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

func imageResults(images []model.PropertyImage) []storage.UploadResult {
	out := make([]storage.UploadResult, 0, len(images))
	for _, img := range images {
		out = append(out, storage.UploadResult{URL: img.URL, ExternalID: img.ExternalID})
	}
	return out
}

func propertyFolder(name string) string {
	return "properties/" + name
}

// asServerError keeps typed app errors raised inside a transaction and wraps the rest.
func asServerError(message string, err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Server(message, err)
}
