package logger

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextWithLogger(t *testing.T) {
	ctx, rlog := ContextWithLogger(context.Background(), "req-1")
	assert.Equal(t, "req-1", rlog.Data[requestIDLoggerKey])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))

	same, again := ContextWithLogger(ctx, "req-2")
	assert.Equal(t, ctx, same)
	assert.Equal(t, rlog, again)

	var none context.Context
	fresh, _ := ContextWithLogger(none, "")
	assert.NotEmpty(t, RequestIDFromContext(fresh))
}

func TestContextWithIdentity(t *testing.T) {
	ctx, _ := ContextWithLogger(context.Background(), "req-1")
	ctx = ContextWithIdentity(ctx, "agent@example.com")

	rlog := FromContext(ctx)
	assert.Equal(t, "agent@example.com", rlog.Data[identityLoggerKey])
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware())
	var seen string
	app.Get("/", func(c *fiber.Ctx) error {
		seen = RequestIDFromContext(c.UserContext())
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "abc", seen)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, seen, resp.Header.Get(RequestIDHeader))
}
