// Package listing implements the property search, similarity and mutation logic behind the
// property endpoints.
package listing

import (
	"bytes"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"gorm.io/gorm"

	"listings_backend/internal/model"
	"listings_backend/pkg/utils/apperror"
)

// LocationFilter is the nested "location" object of a filter payload.
type LocationFilter struct {
	County  string `json:"county"`
	City    string `json:"city"`
	Area    string `json:"area"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type rawFilters struct {
	SaleType       string          `json:"saleType"`
	Location       *LocationFilter `json:"location"`
	PropertyTypeID json.RawMessage `json:"propertyTypeId"`
	Bedrooms       json.RawMessage `json:"bedrooms"`
	Budget         json.RawMessage `json:"budget"`
}

// LocationMatch is one case-insensitive equality on a location column.
type LocationMatch struct {
	Field  string
	Column string
	Value  string
}

// Budget is either an exact price or an inclusive range.
type Budget struct {
	Min   float64
	Max   float64
	Exact bool
}

// Predicates is the typed result of parsing a filter payload. Nil or empty members are
// not applied.
type Predicates struct {
	SaleType       *model.SaleType
	Location       []LocationMatch
	PropertyTypeID *uint
	Bedrooms       *int
	Budget         *Budget
}

// ParseFilters turns the JSON filter payload into predicates. An empty payload yields no
// predicates. Malformed values are rejected with a validation error.
func ParseFilters(payload string) (Predicates, error) {
	var p Predicates
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return p, nil
	}

	var raw rawFilters
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return p, apperror.Validation("filters must be a JSON object")
	}

	errs := map[string]string{}

	if s := strings.TrimSpace(raw.SaleType); s != "" {
		st := model.SaleType(s)
		if !st.Valid() {
			errs["saleType"] = "saleType must be one of [Sale Rent Lease]"
		} else {
			p.SaleType = &st
		}
	}

	if raw.Location != nil {
		p.Location = locationMatches(*raw.Location)
	}

	if v, ok, err := parseInt(raw.PropertyTypeID); err != nil || (ok && v <= 0) {
		errs["propertyTypeId"] = "propertyTypeId must be a positive integer"
	} else if ok {
		id := uint(v)
		p.PropertyTypeID = &id
	}

	if v, ok, err := parseInt(raw.Bedrooms); err != nil || (ok && v < 0) {
		errs["bedrooms"] = "bedrooms must be a non-negative integer"
	} else if ok {
		p.Bedrooms = &v
	}

	if b, err := parseBudget(raw.Budget); err != nil {
		errs["budget"] = "budget " + err.Error()
	} else {
		p.Budget = b
	}

	if len(errs) > 0 {
		return Predicates{}, apperror.ValidationFields(errs)
	}
	return p, nil
}

// Fields lists the filter fields the predicate set references, sorted.
func (p Predicates) Fields() []string {
	var fields []string
	if p.SaleType != nil {
		fields = append(fields, "saleType")
	}
	for _, m := range p.Location {
		fields = append(fields, "location."+m.Field)
	}
	if p.PropertyTypeID != nil {
		fields = append(fields, "propertyTypeId")
	}
	if p.Bedrooms != nil {
		fields = append(fields, "bedrooms")
	}
	if p.Budget != nil {
		fields = append(fields, "budget")
	}
	sort.Strings(fields)
	return fields
}

// Scope applies the predicates as gorm where clauses.
func (p Predicates) Scope(db *gorm.DB) *gorm.DB {
	if p.SaleType != nil {
		db = db.Where("sale_type = ?", *p.SaleType)
	}
	for _, m := range p.Location {
		// Column comes from the fixed locationColumns table, never from input.
		db = db.Where("LOWER("+m.Column+") = LOWER(?)", m.Value)
	}
	if p.PropertyTypeID != nil {
		db = db.Where("property_type_id = ?", *p.PropertyTypeID)
	}
	if p.Bedrooms != nil {
		db = db.Where("bedrooms = ?", *p.Bedrooms)
	}
	if p.Budget != nil {
		if p.Budget.Exact {
			db = db.Where("price = ?", p.Budget.Min)
		} else {
			db = db.Where("price >= ? AND price <= ?", p.Budget.Min, p.Budget.Max)
		}
	}
	return db
}

var locationColumns = []struct {
	field  string
	column string
	value  func(LocationFilter) string
}{
	{"county", "county", func(l LocationFilter) string { return l.County }},
	{"city", "city", func(l LocationFilter) string { return l.City }},
	{"area", "area", func(l LocationFilter) string { return l.Area }},
	{"state", "state", func(l LocationFilter) string { return l.State }},
	{"country", "country", func(l LocationFilter) string { return l.Country }},
}

func locationMatches(l LocationFilter) []LocationMatch {
	var out []LocationMatch
	for _, c := range locationColumns {
		if v := strings.TrimSpace(c.value(l)); v != "" {
			out = append(out, LocationMatch{Field: c.field, Column: c.column, Value: v})
		}
	}
	return out
}

// parseInt accepts a JSON integer or a string holding one. ok is false when the value is
// absent, null or an empty string.
func parseInt(raw json.RawMessage) (v int, ok bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false, nil
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false, err
		}
		return n, true, nil
	}

	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

type budgetError string

func (e budgetError) Error() string { return string(e) }

const (
	errBudgetFormat = budgetError(`must be a number or a "min-max" range`)
	errBudgetOrder  = budgetError("minimum must not exceed maximum")
)

// parseBudget reads "min-max", "exact", "exact-" or a bare JSON number.
func parseBudget(raw json.RawMessage) (*Budget, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errBudgetFormat
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, "-")
	if len(parts) > 2 {
		return nil, errBudgetFormat
	}

	lo, err := parsePrice(parts[0])
	if err != nil {
		return nil, err
	}
	if len(parts) == 1 || strings.TrimSpace(parts[1]) == "" {
		return &Budget{Min: lo, Max: lo, Exact: true}, nil
	}

	hi, err := parsePrice(parts[1])
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, errBudgetOrder
	}
	return &Budget{Min: lo, Max: hi}, nil
}

func parsePrice(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, errBudgetFormat
	}
	return f, nil
}
