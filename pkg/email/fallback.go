package email

import (
	"context"
	"sync"

	"listings_backend/internal/model"
	"listings_backend/pkg/logger"
)

// LogMailer writes e-mails to the log instead of sending them. Used when no Resend key is set.
type LogMailer struct{}

func (LogMailer) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	logger.FromContext(ctx).WithField("to", to).Info("password reset e-mail not sent: mail is disabled")
	return nil
}

func (LogMailer) SendAccessRequestStatus(ctx context.Context, to string, status model.AccessStatus) error {
	logger.FromContext(ctx).WithField("to", to).WithField("status", status).Info("access request e-mail not sent: mail is disabled")
	return nil
}

func (LogMailer) SendConnectionNotification(ctx context.Context, to string, conn model.Connection, propertyName string) error {
	logger.FromContext(ctx).WithField("to", to).WithField("from", conn.Email).Info("connection e-mail not sent: mail is disabled")
	return nil
}

// Sent is one e-mail captured by Recorder.
type Sent struct {
	Kind string
	To   string
	Data string
}

// Recorder captures e-mails in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []Sent
}

func (r *Recorder) record(kind, to, data string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{Kind: kind, To: to, Data: data})
	return nil
}

func (r *Recorder) SendPasswordReset(_ context.Context, to, resetLink string) error {
	return r.record("password_reset", to, resetLink)
}

func (r *Recorder) SendAccessRequestStatus(_ context.Context, to string, status model.AccessStatus) error {
	return r.record("access_request", to, string(status))
}

func (r *Recorder) SendConnectionNotification(_ context.Context, to string, conn model.Connection, propertyName string) error {
	return r.record("connection", to, conn.Email)
}

func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}
