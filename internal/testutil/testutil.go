// Package testutil holds fixtures shared by the package tests: an in-memory database,
// multipart file headers and an object store that can be told to fail.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"listings_backend/internal/model"
	"listings_backend/pkg/database"
	"listings_backend/pkg/utils/storage"
)

// NewDB opens a migrated in-memory SQLite database. The pool is pinned to one connection
// so every query sees the same memory database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db, model.All()...))
	return db
}

// File is one multipart part.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// Image returns a small fake image part under field.
func Image(field, name string) File {
	return File{Field: field, Name: name, Content: []byte("image-bytes-" + name)}
}

// Multipart encodes fields and files as multipart/form-data.
func Multipart(t *testing.T, fields map[string]string, files ...File) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Name))
		h.Set("Content-Type", "application/octet-stream")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// FileHeaders builds parsed file headers for the given file names, all under "images".
func FileHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()

	files := make([]File, 0, len(names))
	for _, n := range names {
		files = append(files, Image("images", n))
	}
	body, contentType := Multipart(t, nil, files...)

	_, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	form, err := multipart.NewReader(body, params["boundary"]).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["images"]
}

var ErrStoreUnavailable = errors.New("object store unavailable")

// FlakyStore wraps a MemoryStore. FailUploadAfter makes every upload after the first n
// fail (negative disables it); FailDeletes makes every delete fail.
type FlakyStore struct {
	*storage.MemoryStore

	mu              sync.Mutex
	uploads         int
	FailUploadAfter int
	FailDeletes     bool
}

func NewFlakyStore() *FlakyStore {
	return &FlakyStore{MemoryStore: storage.NewMemoryStore(), FailUploadAfter: -1}
}

func (s *FlakyStore) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (storage.UploadResult, error) {
	s.mu.Lock()
	fail := s.FailUploadAfter >= 0 && s.uploads >= s.FailUploadAfter
	s.uploads++
	s.mu.Unlock()
	if fail {
		return storage.UploadResult{}, ErrStoreUnavailable
	}
	return s.MemoryStore.Upload(ctx, file, folder)
}

func (s *FlakyStore) Delete(ctx context.Context, externalID string) error {
	s.mu.Lock()
	fail := s.FailDeletes
	s.mu.Unlock()
	if fail {
		return ErrStoreUnavailable
	}
	return s.MemoryStore.Delete(ctx, externalID)
}

// SetFailDeletes toggles delete failures.
func (s *FlakyStore) SetFailDeletes(fail bool) {
	s.mu.Lock()
	s.FailDeletes = fail
	s.mu.Unlock()
}

// ReadAll drains r; handy for response bodies.
func ReadAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	return b
}
