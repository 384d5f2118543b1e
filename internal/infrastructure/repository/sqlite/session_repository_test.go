package sqlite

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

func TestSessionRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectQuery("FROM sessions").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"session_id", "session_name", "import_date", "last_modified", "record_count"}))

	_, err = repo.GetSessionByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSessionRepositoryListSessions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	rows := sqlmock.NewRows([]string{"session_id", "session_name", "import_date", "last_modified", "record_count"}).
		AddRow("s-2", "Week 13", "2026-03-30 09:00:00", "2026-03-30 09:05:00", 12).
		AddRow("s-1", "Week 12", "2026-03-23 09:00:00", "2026-03-23 09:05:00", 40)

	mock.ExpectQuery("FROM sessions").WillReturnRows(rows)

	sessions, err := repo.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].Name != "Week 13" || sessions[0].RecordCount != 12 {
		t.Fatalf("first session = %+v", sessions[0])
	}
	if sessions[1].ImportDate.Format(timeLayout) != "2026-03-23 09:00:00" {
		t.Fatalf("import date = %v", sessions[1].ImportDate)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSessionRepositoryListRecordsNullDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	rows := sqlmock.NewRows([]string{
		"barcode", "nil_result", "tb1_result", "tb2_result", "mit_result",
		"tb1_nil", "tb2_nil", "mit_nil", "qft_result", "requested_date",
	}).
		AddRow("B-1", "0.08", "2.13", "1.94", "9.84", "2.05", "1.86", "9.76", "POS", "2026-03-23 08:15:00").
		AddRow("B-2", "0.10", "0.11", "0.09", "8.00", "0.01", "-0.01", "7.90", "NEG", nil)

	mock.ExpectQuery("FROM results").
		WithArgs("s-1").
		WillReturnRows(rows)

	records, err := repo.ListRecords(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("ListRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].RequestedDate == nil {
		t.Fatalf("expected parsed requested date")
	}
	if records[1].RequestedDate != nil {
		t.Fatalf("expected nil requested date for null column")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSessionRepositoryCreateSessionInsertsRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("s-1", "Week 12", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO results").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO results").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	session := &domain.Session{ID: "s-1", Name: "Week 12"}
	records := []domain.LabResult{{Barcode: "B-1"}, {Barcode: "B-2"}}
	if err := repo.CreateSession(context.Background(), session, records); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSessionRepositoryMergeSkipsExistingBarcodes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT barcode FROM results").
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows([]string{"barcode"}).AddRow("B-1"))
	mock.ExpectExec("INSERT INTO results").
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE sessions SET last_modified").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	records := []domain.LabResult{{Barcode: "B-1"}, {Barcode: "B-2"}}
	added, err := repo.MergeRecords(context.Background(), "s-1", records)
	if err != nil {
		t.Fatalf("MergeRecords() error = %v", err)
	}
	if added != 1 {
		t.Fatalf("added = %d, want 1", added)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSessionRepositoryDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectExec("DELETE FROM sessions").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteSession(context.Background(), "missing"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSessionRepositorySearchByBarcode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	rows := sqlmock.NewRows([]string{
		"session_name", "barcode", "nil_result", "tb1_result", "tb2_result", "mit_result",
		"tb1_nil", "tb2_nil", "mit_nil", "qft_result", "requested_date",
	}).
		AddRow("Week 13", "B-100", "0.08", "2.13", "1.94", "9.84", "2.05", "1.86", "9.76", "POS", "2026-03-30 08:15:00")

	mock.ExpectQuery("JOIN sessions").
		WithArgs("B-100").
		WillReturnRows(rows)

	hits, err := repo.SearchByBarcode(context.Background(), "B-100")
	if err != nil {
		t.Fatalf("SearchByBarcode() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].SessionName != "Week 13" || hits[0].Record.QFTResult != "POS" {
		t.Fatalf("hit = %+v", hits[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
