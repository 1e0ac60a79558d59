package ledger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func orderedPair(t *testing.T) (first, second uuid.UUID) {
	t.Helper()
	a, b := uuid.New(), uuid.New()
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return a, b
}

func TestApplyTransferLocksInDeterministicOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	first, second := orderedPair(t)
	// Transfer in the opposite direction of lock order to prove ordering
	// is by id, not by role.
	from, to := second, first
	bookingID := uuid.New()

	mock.ExpectQuery("SELECT credits FROM accounts").WithArgs(first).
		WillReturnRows(pgxmock.NewRows([]string{"credits"}).AddRow(int64(0)))
	mock.ExpectQuery("SELECT credits FROM accounts").WithArgs(second).
		WillReturnRows(pgxmock.NewRows([]string{"credits"}).AddRow(int64(10)))
	mock.ExpectExec("INSERT INTO ledger_transactions").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec("UPDATE accounts SET credits = credits -").WithArgs(int64(2), from).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE accounts SET credits = credits \\+").WithArgs(int64(2), to).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := ApplyTransfer(context.Background(), mock, from, to, 2, &bookingID, KindBookingDebit, KindBookingCredit); err != nil {
		t.Fatalf("ApplyTransfer returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyTransferInsufficientBalance(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	first, second := orderedPair(t)
	from, to := first, second
	bookingID := uuid.New()

	mock.ExpectQuery("SELECT credits FROM accounts").WithArgs(first).
		WillReturnRows(pgxmock.NewRows([]string{"credits"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT credits FROM accounts").WithArgs(second).
		WillReturnRows(pgxmock.NewRows([]string{"credits"}).AddRow(int64(5)))

	err = ApplyTransfer(context.Background(), mock, from, to, 2, &bookingID, KindBookingDebit, KindBookingCredit)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestApplyTransferRejectsNonPositiveAmount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	if err := ApplyTransfer(context.Background(), mock, uuid.New(), uuid.New(), 0, nil, KindBookingDebit, KindBookingCredit); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestListByAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	accountID := uuid.New()
	bookingID := uuid.New()
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "account_id", "booking_id", "amount", "kind", "created_at"}).
		AddRow(uuid.New(), accountID, pgtype.UUID{Bytes: [16]byte(bookingID), Valid: true}, int64(-2), "BOOKING_DEBIT", now).
		AddRow(uuid.New(), accountID, pgtype.UUID{}, int64(10), "ONBOARDING_GRANT", now.Add(-time.Hour))

	mock.ExpectQuery("SELECT id, account_id, booking_id, amount, kind, created_at").
		WithArgs(accountID, 50).
		WillReturnRows(rows)

	repo := NewPostgresRepositoryWithDB(mock)
	got, err := repo.ListByAccount(context.Background(), accountID, 0)
	if err != nil {
		t.Fatalf("ListByAccount returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}
	if got[0].Kind != KindBookingDebit || got[0].Amount != -2 {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[0].BookingID == nil || *got[0].BookingID != bookingID {
		t.Fatalf("expected booking ref on debit entry")
	}
	if got[1].BookingID != nil {
		t.Fatalf("expected no booking ref on grant entry")
	}
}
