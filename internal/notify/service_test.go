package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medimeet/telehealth-platform/internal/accounts"
	"github.com/medimeet/telehealth-platform/pkg/logging"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func testDetails() BookingDetails {
	return BookingDetails{
		Client:       &accounts.Account{Name: "Pat Client", Email: "pat@example.com"},
		Practitioner: &accounts.Account{Name: "Dr. Ray", Email: "ray@example.com"},
		StartTime:    time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		EndTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestBookingConfirmedEmailsBothParties(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, logging.Default())

	svc.BookingConfirmed(context.Background(), testDetails())

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	if sender.sent[0].To != "pat@example.com" || sender.sent[1].To != "ray@example.com" {
		t.Fatalf("unexpected recipients: %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].Body, "Dr. Ray") {
		t.Errorf("client email should name the practitioner, got %q", sender.sent[0].Body)
	}
	if !strings.Contains(sender.sent[0].Body, "Monday, January 1") {
		t.Errorf("email should carry the appointment time, got %q", sender.sent[0].Body)
	}
}

func TestBookingCancelledMentionsRefund(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, logging.Default())

	svc.BookingCancelled(context.Background(), testDetails())

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Body, "refunded") {
		t.Errorf("client cancellation email should mention the refund, got %q", sender.sent[0].Body)
	}
}

func TestSendFailureDoesNotPanic(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	svc := NewService(sender, logging.Default())

	svc.BookingConfirmed(context.Background(), testDetails())

	if len(sender.sent) != 2 {
		t.Fatalf("expected both sends attempted despite errors, got %d", len(sender.sent))
	}
}

func TestNilSenderDisablesEmail(t *testing.T) {
	svc := NewService(nil, logging.Default())
	svc.BookingConfirmed(context.Background(), testDetails())
	svc.BookingCancelled(context.Background(), testDetails())
}
