package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	assert.Equal(t, 400, Validation("bad").Status())
	assert.Equal(t, 404, NotFound("property").Status())
	assert.Equal(t, 409, Conflict("dup").Status())
	assert.Equal(t, 401, Unauthorized("no").Status())
	assert.Equal(t, 403, Forbidden("no").Status())
	assert.Equal(t, 500, Server("boom", errors.New("db down")).Status())
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "property not found", NotFound("property").Error())
	assert.Equal(t, "limit must be 5", Validationf("limit must be %d", 5).Error())
	assert.Equal(t, "could not save: db down", Server("could not save", errors.New("db down")).Error())
}

func TestValidationFieldsSortsMessages(t *testing.T) {
	err := ValidationFields(map[string]string{
		"name":  "name is required",
		"city":  "city is required",
		"price": "price must be greater than or equal to 0",
	})

	assert.Equal(t, []string{"city is required", "name is required", "price must be greater than or equal to 0"}, err.FieldMessages())
	assert.Equal(t, "validation failed: city is required; name is required; price must be greater than or equal to 0", err.Message)
}

func TestAsAndIsUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Conflict("taken"))

	e, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindConflict, e.Kind)
	assert.True(t, Is(wrapped, KindConflict))
	assert.False(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(errors.New("plain"), KindServer))

	cause := errors.New("root cause")
	assert.ErrorIs(t, Server("outer", cause), cause)
}
