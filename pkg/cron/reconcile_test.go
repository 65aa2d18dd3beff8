package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/internal/testutil"
)

func TestRecordOrphanUpserts(t *testing.T) {
	db := testutil.NewDB(t)

	require.NoError(t, RecordOrphan(db, "properties/a.webp", "create rolled back", errors.New("timeout")))
	require.NoError(t, RecordOrphan(db, "properties/a.webp", "property deleted", errors.New("403")))

	var orphans []model.OrphanedImage
	require.NoError(t, db.Find(&orphans).Error)
	require.Len(t, orphans, 1)
	assert.Equal(t, "property deleted", orphans[0].Reason)
	assert.Equal(t, "403", orphans[0].LastError)
}

func TestReconcilerRemovesDeletedObjects(t *testing.T) {
	db := testutil.NewDB(t)
	store := testutil.NewFlakyStore()
	ctx := context.Background()

	require.NoError(t, RecordOrphan(db, "one", "test", errors.New("boom")))
	require.NoError(t, RecordOrphan(db, "two", "test", errors.New("boom")))

	removed, err := NewImageReconciler(db, store).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	var count int64
	require.NoError(t, db.Model(&model.OrphanedImage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReconcilerCountsFailedAttempts(t *testing.T) {
	db := testutil.NewDB(t)
	store := testutil.NewFlakyStore()
	store.SetFailDeletes(true)
	ctx := context.Background()

	require.NoError(t, RecordOrphan(db, "stuck", "test", errors.New("boom")))
	reconciler := NewImageReconciler(db, store)

	removed, err := reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	var orphan model.OrphanedImage
	require.NoError(t, db.First(&orphan).Error)
	assert.Equal(t, 1, orphan.Attempts)
	assert.Equal(t, testutil.ErrStoreUnavailable.Error(), orphan.LastError)

	store.SetFailDeletes(false)
	removed, err = reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestReconcilerSkipsExhaustedOrphans(t *testing.T) {
	db := testutil.NewDB(t)
	store := testutil.NewFlakyStore()

	require.NoError(t, db.Create(&model.OrphanedImage{ExternalID: "gave-up", Attempts: MaxAttempts}).Error)

	removed, err := NewImageReconciler(db, store).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	var count int64
	require.NoError(t, db.Model(&model.OrphanedImage{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestInitImageReconcileCron(t *testing.T) {
	db := testutil.NewDB(t)
	reconciler := NewImageReconciler(db, testutil.NewFlakyStore())

	c, err := InitImageReconcileCron("*/5 * * * *", reconciler)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	_, err = InitImageReconcileCron("not a schedule", reconciler)
	assert.Error(t, err)
}

func TestReconcilerStopsWhenAttemptCannotBeRecorded(t *testing.T) {
	db := testutil.NewDB(t)
	store := testutil.NewFlakyStore()
	store.SetFailDeletes(true)

	require.NoError(t, RecordOrphan(db, "stuck", "test", errors.New("boom")))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_updates", func(tx *gorm.DB) {
		_ = tx.AddError(errors.New("disk full"))
	}))

	removed, err := NewImageReconciler(db, store).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stuck")
	assert.Zero(t, removed)

	var orphan model.OrphanedImage
	require.NoError(t, db.First(&orphan).Error)
	assert.Zero(t, orphan.Attempts)
}
