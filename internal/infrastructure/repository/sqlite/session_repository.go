package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

// timeLayout is how timestamps are stored, matching the instrument export
// format so the database stays human-inspectable.
const timeLayout = "2006-01-02 15:04:05"

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// OpenDB opens (and creates if needed) the embedded database file.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	// The embedded driver serializes writes; a single connection avoids
	// SQLITE_BUSY between the api and worker pools.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	const query = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	session_name TEXT NOT NULL UNIQUE,
	import_date TEXT NOT NULL,
	last_modified TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	result_id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
	barcode TEXT NOT NULL DEFAULT '',
	nil_result TEXT NOT NULL DEFAULT '',
	tb1_result TEXT NOT NULL DEFAULT '',
	tb2_result TEXT NOT NULL DEFAULT '',
	mit_result TEXT NOT NULL DEFAULT '',
	tb1_nil TEXT NOT NULL DEFAULT '',
	tb2_nil TEXT NOT NULL DEFAULT '',
	mit_nil TEXT NOT NULL DEFAULT '',
	qft_result TEXT NOT NULL DEFAULT '',
	requested_date TEXT
);

CREATE TABLE IF NOT EXISTS export_jobs (
	job_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	format TEXT NOT NULL,
	status TEXT NOT NULL,
	artifact_key TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_session ON results(session_id);
CREATE INDEX IF NOT EXISTS idx_results_barcode ON results(barcode);
CREATE INDEX IF NOT EXISTS idx_export_jobs_session ON export_jobs(session_id);
`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	return nil
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *domain.Session, records []domain.LabResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO sessions (session_id, session_name, import_date, last_modified)
VALUES (?,?,?,?)
`, session.ID, session.Name, formatTime(session.ImportDate), formatTime(session.LastModified))
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if err := insertRecords(ctx, tx, session.ID, records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// MergeRecords appends records whose barcode is not yet in the session and
// returns how many were added.
func (r *SessionRepository) MergeRecords(ctx context.Context, sessionID string, records []domain.LabResult) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT barcode FROM results WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("load existing barcodes: %w", err)
	}
	existing := map[string]bool{}
	for rows.Next() {
		var barcode string
		if err := rows.Scan(&barcode); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan barcode: %w", err)
		}
		existing[barcode] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate barcodes: %w", err)
	}
	rows.Close()

	fresh := make([]domain.LabResult, 0, len(records))
	for _, rec := range records {
		if !existing[rec.Barcode] {
			fresh = append(fresh, rec)
			existing[rec.Barcode] = true
		}
	}

	if err := insertRecords(ctx, tx, sessionID, fresh); err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE sessions SET last_modified = ? WHERE session_id = ?`,
		formatTime(time.Now().UTC()), sessionID)
	if err != nil {
		return 0, fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return len(fresh), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecords(ctx context.Context, tx execer, sessionID string, records []domain.LabResult) error {
	const query = `
INSERT INTO results (session_id, barcode, nil_result, tb1_result, tb2_result, mit_result, tb1_nil, tb2_nil, mit_nil, qft_result, requested_date)
VALUES (?,?,?,?,?,?,?,?,?,?,?)
`
	for _, rec := range records {
		var requested any
		if rec.RequestedDate != nil {
			requested = formatTime(*rec.RequestedDate)
		}
		_, err := tx.ExecContext(ctx, query,
			sessionID, rec.Barcode, rec.NilResult, rec.TB1Result, rec.TB2Result, rec.MitResult,
			rec.TB1Nil, rec.TB2Nil, rec.MitNil, rec.QFTResult, requested,
		)
		if err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Barcode, err)
		}
	}
	return nil
}

const sessionColumns = `
SELECT s.session_id, s.session_name, s.import_date, s.last_modified,
	(SELECT COUNT(*) FROM results r WHERE r.session_id = s.session_id) AS record_count
FROM sessions s
`

func (r *SessionRepository) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, sessionColumns+`WHERE s.session_id = ?`, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) GetSessionByName(ctx context.Context, name string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, sessionColumns+`WHERE s.session_name = ?`, name)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("name=%q", name))
		}
		return nil, fmt.Errorf("get session by name: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, sessionColumns+`ORDER BY s.last_modified DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

const recordColumns = `
SELECT barcode, nil_result, tb1_result, tb2_result, mit_result, tb1_nil, tb2_nil, mit_nil, qft_result, requested_date
FROM results
`

func (r *SessionRepository) ListRecords(ctx context.Context, sessionID string) ([]domain.LabResult, error) {
	rows, err := r.db.QueryContext(ctx, recordColumns+`WHERE session_id = ? ORDER BY result_id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.LabResult, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (r *SessionRepository) RenameSession(ctx context.Context, id, newName string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE sessions SET session_name = ?, last_modified = ? WHERE session_id = ?
`, newName, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rename session rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrSessionNotFound, "rename session", fmt.Errorf("id=%s", id))
	}
	return nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrSessionNotFound, "delete session", fmt.Errorf("id=%s", id))
	}
	return nil
}

// SearchByBarcode matches barcodes by substring across all sessions, newest
// session first, newest request first within a session.
func (r *SessionRepository) SearchByBarcode(ctx context.Context, term string) ([]domain.SearchHit, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT s.session_name, r.barcode, r.nil_result, r.tb1_result, r.tb2_result, r.mit_result, r.tb1_nil, r.tb2_nil, r.mit_nil, r.qft_result, r.requested_date
FROM results r
JOIN sessions s ON s.session_id = r.session_id
WHERE r.barcode LIKE '%' || ? || '%'
ORDER BY s.last_modified DESC, r.requested_date DESC
`, term)
	if err != nil {
		return nil, fmt.Errorf("search by barcode: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SearchHit, 0)
	for rows.Next() {
		var hit domain.SearchHit
		var requested sql.NullString
		err := rows.Scan(
			&hit.SessionName,
			&hit.Record.Barcode, &hit.Record.NilResult, &hit.Record.TB1Result, &hit.Record.TB2Result,
			&hit.Record.MitResult, &hit.Record.TB1Nil, &hit.Record.TB2Nil, &hit.Record.MitNil,
			&hit.Record.QFTResult, &requested,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hit.Record.RequestedDate = parseNullTime(requested)
		out = append(out, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search hits: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var importDate, lastModified string
	err := row.Scan(&session.ID, &session.Name, &importDate, &lastModified, &session.RecordCount)
	if err != nil {
		return nil, err
	}
	session.ImportDate = parseTime(importDate)
	session.LastModified = parseTime(lastModified)
	return &session, nil
}

func scanRecord(row rowScanner) (domain.LabResult, error) {
	var rec domain.LabResult
	var requested sql.NullString
	err := row.Scan(
		&rec.Barcode, &rec.NilResult, &rec.TB1Result, &rec.TB2Result, &rec.MitResult,
		&rec.TB1Nil, &rec.TB2Nil, &rec.MitNil, &rec.QFTResult, &requested,
	)
	if err != nil {
		return domain.LabResult{}, err
	}
	rec.RequestedDate = parseNullTime(requested)
	return rec, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}
