package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/diagnostiq/qft-results/internal/core/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082301)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	session_name TEXT NOT NULL UNIQUE,
	import_date TIMESTAMPTZ NOT NULL,
	last_modified TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	result_id BIGSERIAL PRIMARY KEY,
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
	requested_date TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS export_jobs (
	job_id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	format TEXT NOT NULL,
	status TEXT NOT NULL,
	artifact_key TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_session ON results(session_id);
CREATE INDEX IF NOT EXISTS idx_results_barcode ON results(barcode);
CREATE INDEX IF NOT EXISTS idx_export_jobs_session ON export_jobs(session_id);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
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
VALUES ($1,$2,$3,$4)
`, session.ID, session.Name, session.ImportDate, session.LastModified)
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

func (r *SessionRepository) MergeRecords(ctx context.Context, sessionID string, records []domain.LabResult) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT barcode FROM results WHERE session_id = $1`, sessionID)
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

	_, err = tx.ExecContext(ctx, `UPDATE sessions SET last_modified = $1 WHERE session_id = $2`,
		time.Now().UTC(), sessionID)
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
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`
	for _, rec := range records {
		var requested sql.NullTime
		if rec.RequestedDate != nil {
			requested = sql.NullTime{Time: *rec.RequestedDate, Valid: true}
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
	row := r.db.QueryRowContext(ctx, sessionColumns+`WHERE s.session_id = $1`, id)
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
	row := r.db.QueryRowContext(ctx, sessionColumns+`WHERE s.session_name = $1`, name)
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

func (r *SessionRepository) ListRecords(ctx context.Context, sessionID string) ([]domain.LabResult, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT barcode, nil_result, tb1_result, tb2_result, mit_result, tb1_nil, tb2_nil, mit_nil, qft_result, requested_date
FROM results
WHERE session_id = $1
ORDER BY result_id
`, sessionID)
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
UPDATE sessions SET session_name = $2, last_modified = $3 WHERE session_id = $1
`, id, newName, time.Now().UTC())
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
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, id)
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

func (r *SessionRepository) SearchByBarcode(ctx context.Context, term string) ([]domain.SearchHit, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT s.session_name, r.barcode, r.nil_result, r.tb1_result, r.tb2_result, r.mit_result, r.tb1_nil, r.tb2_nil, r.mit_nil, r.qft_result, r.requested_date
FROM results r
JOIN sessions s ON s.session_id = r.session_id
WHERE r.barcode LIKE '%' || $1 || '%'
ORDER BY s.last_modified DESC, r.requested_date DESC NULLS LAST
`, term)
	if err != nil {
		return nil, fmt.Errorf("search by barcode: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SearchHit, 0)
	for rows.Next() {
		var hit domain.SearchHit
		var requested sql.NullTime
		err := rows.Scan(
			&hit.SessionName,
			&hit.Record.Barcode, &hit.Record.NilResult, &hit.Record.TB1Result, &hit.Record.TB2Result,
			&hit.Record.MitResult, &hit.Record.TB1Nil, &hit.Record.TB2Nil, &hit.Record.MitNil,
			&hit.Record.QFTResult, &requested,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		if requested.Valid {
			t := requested.Time
			hit.Record.RequestedDate = &t
		}
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
	err := row.Scan(&session.ID, &session.Name, &session.ImportDate, &session.LastModified, &session.RecordCount)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func scanRecord(row rowScanner) (domain.LabResult, error) {
	var rec domain.LabResult
	var requested sql.NullTime
	err := row.Scan(
		&rec.Barcode, &rec.NilResult, &rec.TB1Result, &rec.TB2Result, &rec.MitResult,
		&rec.TB1Nil, &rec.TB2Nil, &rec.MitNil, &rec.QFTResult, &requested,
	)
	if err != nil {
		return domain.LabResult{}, err
	}
	if requested.Valid {
		t := requested.Time
		rec.RequestedDate = &t
	}
	return rec, nil
}
