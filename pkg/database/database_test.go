package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"listings_backend/internal/model"
)

func TestMigrateCreatesAndUpdatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer Close(db)

	require.NoError(t, Migrate(db, model.All()...))
	for _, m := range model.All() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	// A second run takes the AutoMigrate path on existing tables.
	require.NoError(t, Migrate(db, model.All()...))
	assert.True(t, db.Migrator().HasColumn(&model.PropertyImage{}, "position"))
}
