package listing

import (
	"math"
	"strconv"
	"strings"

	"listings_backend/pkg/utils/apperror"
)

// DefaultLimit is the page size used when the client sends no limit.
const DefaultLimit = 20

// Page is a resolved limit/offset pair.
type Page struct {
	Number int
	Limit  int
	Offset int
}

// NewPage computes the offset for a 1-based page number. Pages below 1 start at offset 0.
func NewPage(limit, page int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := 0
	if page > 0 {
		if page-1 > math.MaxInt/limit {
			offset = math.MaxInt - math.MaxInt%limit
		} else {
			offset = (page - 1) * limit
		}
	}
	return Page{Number: page, Limit: limit, Offset: offset}
}

// TotalPages returns ceil(count / limit).
func TotalPages(count int64, limit int) int {
	if limit <= 0 || count <= 0 {
		return 0
	}
	return int((count + int64(limit) - 1) / int64(limit))
}

// Paginator parses raw query parameters with a configured default and cap.
type Paginator struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Paginator) Parse(limitParam, pageParam string) (Page, error) {
	def := p.DefaultLimit
	if def <= 0 {
		def = DefaultLimit
	}

	limit, err := optionalInt("limit", limitParam)
	if err != nil {
		return Page{}, err
	}
	page, err := optionalInt("page", pageParam)
	if err != nil {
		return Page{}, err
	}

	if limit <= 0 {
		limit = def
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	if page > 1 && page-1 > math.MaxInt/limit {
		return Page{}, apperror.ValidationFields(map[string]string{"page": "page is out of range"})
	}
	return NewPage(limit, page), nil
}

func optionalInt(name, s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperror.ValidationFields(map[string]string{name: name + " must be an integer"})
	}
	return n, nil
}
