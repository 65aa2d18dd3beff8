package email

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listings_backend/internal/model"
)

func newTestService(t *testing.T, status int) (*EmailService, <-chan EmailData) {
	t.Helper()
	received := make(chan EmailData, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		var data EmailData
		assert.NoError(t, json.Unmarshal(body, &data))
		received <- data
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"id":"1"}`))
	}))
	t.Cleanup(srv.Close)

	s, err := NewEmailService("key", "Listings <noreply@example.com>")
	require.NoError(t, err)
	s.endpoint = srv.URL
	return s, received
}

func TestNewEmailServiceRequiresKey(t *testing.T) {
	_, err := NewEmailService("", "from@example.com")
	assert.Error(t, err)
}

func TestSendPasswordReset(t *testing.T) {
	s, received := newTestService(t, http.StatusOK)

	require.NoError(t, s.SendPasswordReset(context.Background(), "user@example.com", "https://app/reset-password?token=abc"))

	data := <-received
	assert.Equal(t, "user@example.com", data.To)
	assert.Equal(t, "Listings <noreply@example.com>", data.From)
	assert.Equal(t, "Reset your password", data.Subject)
	assert.Contains(t, data.Html, `href="https://app/reset-password?token=abc"`)
}

func TestSendAccessRequestStatus(t *testing.T) {
	s, received := newTestService(t, http.StatusCreated)

	require.NoError(t, s.SendAccessRequestStatus(context.Background(), "user@example.com", model.AccessStatusApproved))
	data := <-received
	assert.Equal(t, "Your access request was approved", data.Subject)
	assert.Contains(t, data.Html, "has been approved")

	require.NoError(t, s.SendAccessRequestStatus(context.Background(), "user@example.com", model.AccessStatusRejected))
	data = <-received
	assert.Equal(t, "Your access request was declined", data.Subject)
	assert.Contains(t, data.Html, "has been declined")
}

func TestSendConnectionNotification(t *testing.T) {
	s, received := newTestService(t, http.StatusOK)
	conn := model.Connection{
		Name:    "Ama",
		Email:   "ama@example.com",
		Phone:   "+233200000000",
		Message: "Is it still available?",
	}
	conn.CreatedAt = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	require.NoError(t, s.SendConnectionNotification(context.Background(), "admin@example.com", conn, "Cedar House"))

	data := <-received
	assert.Equal(t, "admin@example.com", data.To)
	assert.Equal(t, "New enquiry about Cedar House", data.Subject)
	assert.Contains(t, data.Html, "ama@example.com")
	assert.Contains(t, data.Html, "2024-05-01 09:30")
}

func TestSendReportsAPIErrors(t *testing.T) {
	s, received := newTestService(t, http.StatusUnprocessableEntity)

	err := s.SendPasswordReset(context.Background(), "user@example.com", "https://app/reset")
	<-received
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestRecorder(t *testing.T) {
	var r Recorder
	ctx := context.Background()

	require.NoError(t, r.SendPasswordReset(ctx, "a@example.com", "link"))
	require.NoError(t, r.SendAccessRequestStatus(ctx, "b@example.com", model.AccessStatusApproved))
	require.NoError(t, r.SendConnectionNotification(ctx, "admin@example.com", model.Connection{Email: "c@example.com"}, ""))

	assert.Equal(t, []Sent{
		{Kind: "password_reset", To: "a@example.com", Data: "link"},
		{Kind: "access_request", To: "b@example.com", Data: string(model.AccessStatusApproved)},
		{Kind: "connection", To: "admin@example.com", Data: "c@example.com"},
	}, r.Sent())
}

func TestTemplatesLoad(t *testing.T) {
	tmpl, err := loadTemplates()
	require.NoError(t, err)
	for _, name := range requiredTemplates {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}
