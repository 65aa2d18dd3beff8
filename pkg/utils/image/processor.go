package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"

	"github.com/chai2010/webp"
)

const (
	ContentType = "image/webp"
	Extension   = ".webp"
	quality     = 82
)

// Processed is an image re-encoded for storage.
type Processed struct {
	Body   *bytes.Reader
	Size   int64
	Width  int
	Height int
	// Source is the decoded input format (jpeg, png, webp).
	Source string
}

// ProcessImage decodes a jpeg, png or webp upload and re-encodes it as lossy webp.
func ProcessImage(file *multipart.FileHeader) (*Processed, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer src.Close()

	return Process(src)
}

func Process(r io.Reader) (*Processed, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}

	switch format {
	case "jpeg", "png", "webp":
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		return nil, fmt.Errorf("could not encode image: %w", err)
	}

	bounds := img.Bounds()
	return &Processed{
		Body:   bytes.NewReader(buf.Bytes()),
		Size:   int64(buf.Len()),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Source: format,
	}, nil
}
