package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresSetWindowSupersedesInOneTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	practitionerID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE availability_windows SET status = 'SUPERSEDED'").
		WithArgs(practitionerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery("INSERT INTO availability_windows").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	mock.ExpectCommit()
	mock.ExpectRollback()

	repo := NewPostgresRepositoryWithDB(mock)
	window, err := repo.SetWindow(context.Background(), practitionerID, mustTime(t, "09:00"), mustTime(t, "11:00"))
	if err != nil {
		t.Fatalf("SetWindow returned error: %v", err)
	}
	if window.Status != WindowActive {
		t.Fatalf("expected ACTIVE window, got %s", window.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresSetWindowRejectsInvalidRangeBeforeTx(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepositoryWithDB(mock)
	_, err = repo.SetWindow(context.Background(), uuid.New(), mustTime(t, "11:00"), mustTime(t, "09:00"))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no database work expected for invalid ranges: %v", err)
	}
}

func TestPostgresGetActiveScansMinutes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	practitionerID := uuid.New()
	id := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT (.+) FROM availability_windows").
		WithArgs(practitionerID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "practitioner_id", "daily_start_min", "daily_end_min", "status", "created_at"}).
			AddRow(id, practitionerID, 540, 1020, "ACTIVE", now))

	repo := NewPostgresRepositoryWithDB(mock)
	window, err := repo.GetActive(context.Background(), practitionerID)
	if err != nil {
		t.Fatalf("GetActive returned error: %v", err)
	}
	if window.DailyStart.String() != "09:00" || window.DailyEnd.String() != "17:00" {
		t.Fatalf("expected 09:00-17:00, got %s-%s", window.DailyStart, window.DailyEnd)
	}
}
