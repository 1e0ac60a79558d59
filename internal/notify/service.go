package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

// Service sends booking lifecycle emails to both parties. Callers fire it
// after the state change commits; a failed email never fails the booking.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. A nil sender disables email.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// BookingDetails carries what the emails need to say.
type BookingDetails struct {
	Client       *accounts.Account
	Practitioner *accounts.Account
	StartTime    time.Time
	EndTime      time.Time
}

func (d BookingDetails) when() string {
	return fmt.Sprintf("%s to %s",
		d.StartTime.Format("Monday, January 2 at 15:04"),
		d.EndTime.Format("15:04 MST"))
}

// BookingConfirmed emails both parties about a confirmed booking.
func (s *Service) BookingConfirmed(ctx context.Context, d BookingDetails) {
	s.send(ctx, d.Client,
		"Your appointment is confirmed",
		fmt.Sprintf("Your appointment with %s is confirmed for %s.", d.Practitioner.Name, d.when()))
	s.send(ctx, d.Practitioner,
		"New appointment booked",
		fmt.Sprintf("%s booked an appointment with you for %s.", d.Client.Name, d.when()))
}

// BookingCancelled emails both parties about a cancellation and the refund.
func (s *Service) BookingCancelled(ctx context.Context, d BookingDetails) {
	s.send(ctx, d.Client,
		"Your appointment was cancelled",
		fmt.Sprintf("Your appointment with %s on %s was cancelled. Your credits have been refunded.", d.Practitioner.Name, d.when()))
	s.send(ctx, d.Practitioner,
		"Appointment cancelled",
		fmt.Sprintf("The appointment with %s on %s was cancelled.", d.Client.Name, d.when()))
}

func (s *Service) send(ctx context.Context, to *accounts.Account, subject, body string) {
	if s == nil || s.email == nil || to == nil || to.Email == "" {
		return
	}
	err := s.email.Send(ctx, EmailMessage{
		To:      to.Email,
		ToName:  to.Name,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		s.logger.Error("booking email failed", "error", err, "to", to.Email, "subject", subject)
	}
}
