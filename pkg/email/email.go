package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"listings_backend/internal/model"
	"listings_backend/pkg/logger"
)

const resendEndpoint = "https://api.resend.com/emails"

// Mailer sends the transactional e-mails of the listings site.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetLink string) error
	SendAccessRequestStatus(ctx context.Context, to string, status model.AccessStatus) error
	SendConnectionNotification(ctx context.Context, to string, conn model.Connection, propertyName string) error
}

type EmailService struct {
	apiKey    string
	from      string
	endpoint  string
	client    *http.Client
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

type PasswordResetData struct {
	ResetLink string
}

type AccessRequestData struct {
	Email    string
	Approved bool
}

type ConnectionNotificationData struct {
	PropertyName string
	Name         string
	Email        string
	Phone        string
	Message      string
	ReceivedAt   time.Time
}

func NewEmailService(apiKey, from string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %w", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      from,
		endpoint:  resendEndpoint,
		client:    &http.Client{Timeout: 10 * time.Second},
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(ctx context.Context, to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	jsonData, err := json.Marshal(EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	})
	if err != nil {
		return fmt.Errorf("error marshaling email data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	logger.FromContext(ctx).WithField("status", resp.StatusCode).WithField("template", templateName).Debug("resend API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error (%d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (s *EmailService) SendPasswordReset(ctx context.Context, to, resetLink string) error {
	return s.sendTemplateEmail(ctx, to, "Reset your password", "password_reset.html", PasswordResetData{ResetLink: resetLink})
}

func (s *EmailService) SendAccessRequestStatus(ctx context.Context, to string, status model.AccessStatus) error {
	data := AccessRequestData{Email: to, Approved: status == model.AccessStatusApproved}
	subject := "Your access request was declined"
	if data.Approved {
		subject = "Your access request was approved"
	}
	return s.sendTemplateEmail(ctx, to, subject, "access_request.html", data)
}

func (s *EmailService) SendConnectionNotification(ctx context.Context, to string, conn model.Connection, propertyName string) error {
	data := ConnectionNotificationData{
		PropertyName: propertyName,
		Name:         conn.Name,
		Email:        conn.Email,
		Phone:        conn.Phone,
		Message:      conn.Message,
		ReceivedAt:   conn.CreatedAt,
	}
	subject := "New contact request"
	if propertyName != "" {
		subject = "New enquiry about " + propertyName
	}
	return s.sendTemplateEmail(ctx, to, subject, "connection_notification.html", data)
}
