// Package notification sends transactional emails. Delivery is best effort:
// failures are logged and never reach the HTTP caller.
package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const siteName = "Real Estate"

// Sender is the delivery mechanism behind Service.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// InquiryAlert summarises a new inquiry for the admin contact.
type InquiryAlert struct {
	PropertyTitle string
	Name          string
	Email         string
	Phone         string
	Subject       string
	Message       string
}

// Service defines the emails the application sends.
type Service interface {
	SendOTP(ctx context.Context, to, name, code, purpose string, expiresAt time.Time, attempts int)
	SendInquiryReply(ctx context.Context, to, name, propertyTitle, message string)
	SendNewInquiryAlert(ctx context.Context, to string, alert InquiryAlert)
}

type ServiceImplementation struct {
	sender Sender
	logger *zap.Logger
}

func NewService(sender Sender, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{sender: sender, logger: logger.Named("notification")}
}

var _ Service = (*ServiceImplementation)(nil)

type otpData struct {
	SiteName  string
	Name      string
	Intro     string
	Code      string
	ExpiresAt string
	Attempts  int
}

func (s *ServiceImplementation) SendOTP(ctx context.Context, to, name, code, purpose string, expiresAt time.Time, attempts int) {
	subject := "Your password reset code"
	intro := "Use the code below to reset your password."
	if purpose == "email-verification" {
		subject = "Verify your email address"
		intro = "Use the code below to verify your email address."
	}
	if name == "" {
		name = "there"
	}
	s.send(ctx, "otp", to, subject, otpData{
		SiteName:  siteName,
		Name:      name,
		Intro:     intro,
		Code:      code,
		ExpiresAt: expiresAt.UTC().Format("15:04 MST"),
		Attempts:  attempts,
	})
}

type replyData struct {
	SiteName      string
	Name          string
	PropertyTitle string
	Message       string
}

func (s *ServiceImplementation) SendInquiryReply(ctx context.Context, to, name, propertyTitle, message string) {
	s.send(ctx, "inquiry_reply", to, "New reply to your inquiry: "+propertyTitle, replyData{
		SiteName:      siteName,
		Name:          name,
		PropertyTitle: propertyTitle,
		Message:       message,
	})
}

type alertData struct {
	SiteName string
	InquiryAlert
}

func (s *ServiceImplementation) SendNewInquiryAlert(ctx context.Context, to string, alert InquiryAlert) {
	if to == "" {
		s.logger.Debug("No admin contact configured; skipping inquiry alert")
		return
	}
	s.send(ctx, "new_inquiry", to, "New inquiry: "+alert.PropertyTitle, alertData{SiteName: siteName, InquiryAlert: alert})
}

func (s *ServiceImplementation) send(ctx context.Context, tmpl, to, subject string, data interface{}) {
	body, err := render(tmpl, data)
	if err != nil {
		s.logger.Error("Failed to render email template", zap.String("template", tmpl), zap.Error(err))
		return
	}
	if err := s.sender.Send(ctx, Message{To: to, Subject: subject, HTML: body}); err != nil {
		s.logger.Error("Failed to send email", zap.String("template", tmpl), zap.String("to", to), zap.Error(err))
	}
}
