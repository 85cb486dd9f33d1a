// Package store persists valuation runs. SQLite is the default backend;
// Postgres is used when the pgx driver is configured.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/joelkehle/b2g-transformer/internal/valuation"
)

//go:embed migrations/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("run not found")

// RunRepository is the persistence seam used by the site.
type RunRepository interface {
	Save(ctx context.Context, run valuation.Run) error
	Get(ctx context.Context, id string) (valuation.Run, error)
	ListRecent(ctx context.Context, limit int) ([]valuation.Run, error)
	// MarkInterrupted fails every run that never reached a terminal status.
	MarkInterrupted(ctx context.Context, reason string, at time.Time) (int64, error)
}

type SQLRepository struct {
	db *sqlx.DB
}

// timeLayout sorts lexically in the same order as the instants it encodes.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Open connects to driver ("sqlite" or "pgx") and applies pending migrations.
func Open(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	var dialect goose.Dialect
	switch driver {
	case "sqlite":
		dialect = goose.DialectSQLite3
		if !strings.Contains(dsn, "_pragma") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
		}
	case "pgx":
		dialect = goose.DialectPostgres
	default:
		return nil, fmt.Errorf("unsupported db driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := migrate(ctx, db.DB, dialect); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// New wraps an already-migrated database.
func New(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type runRow struct {
	ID          string         `db:"id"`
	Status      string         `db:"status"`
	Source      string         `db:"source"`
	Location    string         `db:"location"`
	Request     string         `db:"request"`
	Report      sql.NullString `db:"report"`
	Error       string         `db:"error"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
	CompletedAt sql.NullString `db:"completed_at"`
}

const upsertRun = `
INSERT INTO runs (id, status, source, location, request, report, error, created_at, updated_at, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	status = excluded.status,
	source = excluded.source,
	report = excluded.report,
	error = excluded.error,
	updated_at = excluded.updated_at,
	completed_at = excluded.completed_at`

const selectRun = `SELECT id, status, source, location, request, report, error, created_at, updated_at, completed_at FROM runs`

func (r *SQLRepository) Save(ctx context.Context, run valuation.Run) error {
	row, err := toRow(run)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(upsertRun),
		row.ID, row.Status, row.Source, row.Location, row.Request, row.Report,
		row.Error, row.CreatedAt, row.UpdatedAt, row.CompletedAt)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, id string) (valuation.Run, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(selectRun+" WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return valuation.Run{}, ErrNotFound
	}
	if err != nil {
		return valuation.Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return fromRow(row)
}

func (r *SQLRepository) ListRecent(ctx context.Context, limit int) ([]valuation.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(selectRun+" ORDER BY created_at DESC LIMIT ?"), limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]valuation.Run, 0, len(rows))
	for _, row := range rows {
		run, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

const markInterrupted = `
UPDATE runs SET status = ?, error = ?, updated_at = ?, completed_at = ?
WHERE status NOT IN (?, ?)`

func (r *SQLRepository) MarkInterrupted(ctx context.Context, reason string, at time.Time) (int64, error) {
	ts := formatTime(at)
	res, err := r.db.ExecContext(ctx, r.db.Rebind(markInterrupted),
		string(valuation.StatusError), reason, ts, ts,
		string(valuation.StatusComplete), string(valuation.StatusError))
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return n, nil
}

func toRow(run valuation.Run) (runRow, error) {
	req, err := json.Marshal(run.Request)
	if err != nil {
		return runRow{}, fmt.Errorf("encode request: %w", err)
	}
	row := runRow{
		ID:        run.ID,
		Status:    string(run.Status),
		Source:    string(run.Source),
		Location:  run.Request.Location,
		Request:   string(req),
		Error:     run.Error,
		CreatedAt: formatTime(run.CreatedAt),
		UpdatedAt: formatTime(run.UpdatedAt),
	}
	if run.Report != nil {
		rep, err := json.Marshal(run.Report)
		if err != nil {
			return runRow{}, fmt.Errorf("encode report: %w", err)
		}
		row.Report = sql.NullString{String: string(rep), Valid: true}
	}
	if run.CompletedAt != nil {
		row.CompletedAt = sql.NullString{String: formatTime(*run.CompletedAt), Valid: true}
	}
	return row, nil
}

func fromRow(row runRow) (valuation.Run, error) {
	run := valuation.Run{
		ID:     row.ID,
		Status: valuation.Status(row.Status),
		Source: valuation.Source(row.Source),
		Error:  row.Error,
	}
	if err := json.Unmarshal([]byte(row.Request), &run.Request); err != nil {
		return valuation.Run{}, fmt.Errorf("decode request of run %s: %w", row.ID, err)
	}
	if row.Report.Valid {
		var rep valuation.Report
		if err := json.Unmarshal([]byte(row.Report.String), &rep); err != nil {
			return valuation.Run{}, fmt.Errorf("decode report of run %s: %w", row.ID, err)
		}
		run.AttachReport(rep)
	}
	var err error
	if run.CreatedAt, err = parseTime(row.CreatedAt); err != nil {
		return valuation.Run{}, err
	}
	if run.UpdatedAt, err = parseTime(row.UpdatedAt); err != nil {
		return valuation.Run{}, err
	}
	if row.CompletedAt.Valid {
		t, err := parseTime(row.CompletedAt.String)
		if err != nil {
			return valuation.Run{}, err
		}
		run.CompletedAt = &t
	}
	return run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
