// Package storage keeps listing images in an S3 compatible bucket.
package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type UploadResult struct {
	URL        string `json:"url"`
	ExternalID string `json:"externalId"`
}

// ObjectStore is the remote image store. ExternalID is the handle used for deletion.
type ObjectStore interface {
	Upload(ctx context.Context, file *multipart.FileHeader, folder string) (UploadResult, error)
	Delete(ctx context.Context, externalID string) error
}

// ObjectKey builds "<folder segments as slugs>/<unixnano>-<uuid><ext>".
func ObjectKey(folder, ext string) string {
	segments := []string{}
	for _, s := range strings.Split(folder, "/") {
		if s = slug.Make(s); s != "" {
			segments = append(segments, s)
		}
	}
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.New().String(), ext)
	return path.Join(append(segments, name)...)
}
