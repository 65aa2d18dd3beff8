package validation

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage(header("front.JPG", 1024)))
	assert.NoError(t, ValidateImage(header("plan.webp", MaxImageSize)))
	assert.ErrorIs(t, ValidateImage(nil), ErrFileRequired)
	assert.ErrorIs(t, ValidateImage(header("big.png", MaxImageSize+1)), ErrFileSize)
	assert.ErrorIs(t, ValidateImage(header("doc.pdf", 10)), ErrFileType)
	assert.ErrorIs(t, ValidateImage(header("noext", 10)), ErrFileType)
}

func TestValidateImages(t *testing.T) {
	files := []*multipart.FileHeader{header("a.jpg", 1), header("b.png", 1)}
	assert.NoError(t, ValidateImages(files, MaxImagesPerProperty-2))
	assert.ErrorIs(t, ValidateImages(files, MaxImagesPerProperty-1), ErrTooManyFiles)
	assert.NoError(t, ValidateImages(nil, MaxImagesPerProperty))

	err := ValidateImages([]*multipart.FileHeader{header("a.jpg", 1), header("b.gif", 1)}, 0)
	assert.ErrorIs(t, err, ErrFileType)
	assert.Contains(t, err.Error(), "b.gif")
}
