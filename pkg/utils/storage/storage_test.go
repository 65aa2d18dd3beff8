package storage_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listings_backend/internal/testutil"
	"listings_backend/pkg/utils/storage"
	"listings_backend/pkg/utils/validation"
)

var keyName = `\d+-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

func TestObjectKey(t *testing.T) {
	assert.Regexp(t, regexp.MustCompile(`^properties/cedar-house/`+keyName+`\.webp$`), storage.ObjectKey("properties/Cedar House", ".webp"))
	assert.Regexp(t, regexp.MustCompile(`^`+keyName+`\.png$`), storage.ObjectKey("", ".png"))
	assert.Regexp(t, regexp.MustCompile(`^blogs/`+keyName+`$`), storage.ObjectKey("/blogs//", ""))
	assert.NotEqual(t, storage.ObjectKey("a", ".png"), storage.ObjectKey("a", ".png"))
}

func TestMemoryStore(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx := context.Background()
	files := testutil.FileHeaders(t, "front.PNG")

	res, err := store.Upload(ctx, files[0], "properties/Cedar House")
	require.NoError(t, err)
	assert.Regexp(t, `^properties/cedar-house/.+\.png$`, res.ExternalID)
	assert.Equal(t, "memory://"+res.ExternalID, res.URL)
	assert.True(t, store.Has(res.ExternalID))
	assert.Equal(t, []string{res.ExternalID}, store.Keys())

	require.NoError(t, store.Delete(ctx, res.ExternalID))
	require.NoError(t, store.Delete(ctx, res.ExternalID))
	assert.False(t, store.Has(res.ExternalID))
	assert.Empty(t, store.Keys())
}

func TestMemoryStoreRejectsInvalidFiles(t *testing.T) {
	store := storage.NewMemoryStore()

	_, err := store.Upload(context.Background(), testutil.FileHeaders(t, "anim.gif")[0], "properties")
	assert.ErrorIs(t, err, validation.ErrFileType)
	assert.Empty(t, store.Keys())
}
