package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"listings_backend/internal/model"
	"listings_backend/pkg/logger"
	"listings_backend/pkg/utils/storage"
)

const (
	reconcileBatch = 100
	// MaxAttempts stops retrying an object after this many failed deletes.
	MaxAttempts = 10
)

// ImageReconciler retries remote deletes for images recorded in orphaned_images.
type ImageReconciler struct {
	db    *gorm.DB
	store storage.ObjectStore
}

func NewImageReconciler(db *gorm.DB, store storage.ObjectStore) *ImageReconciler {
	return &ImageReconciler{db: db, store: store}
}

// RecordOrphan queues externalID for deletion by the reconciler. Recording the same
// object twice refreshes its reason and error.
func RecordOrphan(db *gorm.DB, externalID, reason string, cause error) error {
	orphan := model.OrphanedImage{ExternalID: externalID, Reason: reason, LastError: cause.Error()}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"reason", "last_error", "updated_at"}),
	}).Create(&orphan).Error
}

// Run processes one batch and returns how many orphans were removed.
func (r *ImageReconciler) Run(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	var orphans []model.OrphanedImage
	err := r.db.WithContext(ctx).
		Where("attempts < ?", MaxAttempts).
		Order("id ASC").
		Limit(reconcileBatch).
		Find(&orphans).Error
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, o := range orphans {
		if err := r.store.Delete(ctx, o.ExternalID); err != nil {
			log.WithError(err).WithField("externalId", o.ExternalID).Warn("orphaned image still not deleted")
			err = r.db.WithContext(ctx).Model(&model.OrphanedImage{}).Where("id = ?", o.ID).Updates(map[string]interface{}{
				"attempts":   gorm.Expr("attempts + 1"),
				"last_error": err.Error(),
			}).Error
			if err != nil {
				return removed, fmt.Errorf("record failed attempt for %s: %w", o.ExternalID, err)
			}
			continue
		}
		if err := r.db.WithContext(ctx).Delete(&model.OrphanedImage{}, o.ID).Error; err != nil {
			return removed, err
		}
		removed++
	}

	if len(orphans) > 0 {
		log.Infof("image reconciliation: %d of %d orphaned images removed", removed, len(orphans))
	}
	return removed, nil
}

// InitImageReconcileCron schedules the reconciler and starts the scheduler. The caller
// stops it on shutdown.
func InitImageReconcileCron(schedule string, reconciler *ImageReconciler) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		ctx, _ = logger.ContextWithLogger(ctx, "")
		if _, err := reconciler.Run(ctx); err != nil {
			logger.FromContext(ctx).WithError(err).Error("image reconciliation failed")
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
