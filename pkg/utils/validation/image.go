package validation

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var (
	ErrFileSize     = errors.New("file size exceeds limit of 10MB")
	ErrFileType     = errors.New("invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrFileRequired = errors.New("no file provided")
	ErrTooManyFiles = fmt.Errorf("a property can hold at most %d images", MaxImagesPerProperty)
)

const (
	MaxImageSize         = 10 * 1024 * 1024 // 10MB
	MaxImagesPerProperty = 16
)

var AllowedImageTypes = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func ValidateImage(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}

	if file.Size > MaxImageSize {
		return ErrFileSize
	}

	ext := filepath.Ext(strings.ToLower(file.Filename))
	if !AllowedImageTypes[ext] {
		return ErrFileType
	}

	return nil
}

// ValidateImages checks every file and the per-property count. existing is the number of
// images the property already holds.
func ValidateImages(files []*multipart.FileHeader, existing int) error {
	if existing+len(files) > MaxImagesPerProperty {
		return ErrTooManyFiles
	}
	for _, f := range files {
		if err := ValidateImage(f); err != nil {
			return fmt.Errorf("%s: %w", f.Filename, err)
		}
	}
	return nil
}
