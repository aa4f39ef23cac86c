package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grapplehq/ringside/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// PeriodRepository implements domain.PeriodStore using SQLite. All track
// kinds share one polymorphic table with a track_kind discriminator; a
// partial unique index enforces at most one open row per (owner, track),
// so the open-period invariant holds even under concurrent writers.
type PeriodRepository struct {
	db *sql.DB
}

// Compile-time check: PeriodRepository implements domain.PeriodStore.
var _ domain.PeriodStore = (*PeriodRepository)(nil)

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*PeriodRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps in-memory databases coherent and avoids
	// SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns
// a ready repository. Use this when the *sql.DB has been pre-configured
// (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*PeriodRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &PeriodRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *PeriodRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for use by other adapters
// (e.g., river).
func (r *PeriodRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

const timeFormat = "2006-01-02T15:04:05Z"

const periodColumns = `id, owner_id, owner_type, track_kind, started_at, ended_at, created_at`

func (r *PeriodRepository) FindOpen(ctx context.Context, m domain.Member, kind domain.TrackKind, asOf time.Time) (*domain.Period, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+periodColumns+` FROM periods
		 WHERE owner_id = ? AND owner_type = ? AND track_kind = ?
		   AND ended_at IS NULL AND started_at <= ?`,
		m.ID, string(m.Type), string(kind), asOf.UTC().Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("querying open period: %w", err)
	}
	defer rows.Close()

	var open []domain.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		open = append(open, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading open periods: %w", err)
	}

	// More than one open row is corrupted data; surface it, never pick one.
	if len(open) > 1 {
		return nil, &domain.MultipleOpenPeriodsError{Member: m, Track: kind, Count: len(open)}
	}
	if len(open) == 0 {
		return nil, nil
	}
	return &open[0], nil
}

func (r *PeriodRepository) FindOpenFuture(ctx context.Context, m domain.Member, kind domain.TrackKind, asOf time.Time) (*domain.Period, error) {
	return r.findOne(ctx,
		`SELECT `+periodColumns+` FROM periods
		 WHERE owner_id = ? AND owner_type = ? AND track_kind = ?
		   AND ended_at IS NULL AND started_at > ?`,
		m.ID, string(m.Type), string(kind), asOf.UTC().Format(timeFormat),
	)
}

func (r *PeriodRepository) FindMostRecentClosed(ctx context.Context, m domain.Member, kind domain.TrackKind) (*domain.Period, error) {
	return r.findOne(ctx,
		`SELECT `+periodColumns+` FROM periods
		 WHERE owner_id = ? AND owner_type = ? AND track_kind = ?
		   AND ended_at IS NOT NULL
		 ORDER BY ended_at DESC LIMIT 1`,
		m.ID, string(m.Type), string(kind),
	)
}

func (r *PeriodRepository) FindEarliest(ctx context.Context, m domain.Member, kind domain.TrackKind) (*domain.Period, error) {
	return r.findOne(ctx,
		`SELECT `+periodColumns+` FROM periods
		 WHERE owner_id = ? AND owner_type = ? AND track_kind = ?
		 ORDER BY started_at ASC LIMIT 1`,
		m.ID, string(m.Type), string(kind),
	)
}

func (r *PeriodRepository) Exists(ctx context.Context, m domain.Member, kind domain.TrackKind) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM periods
		 WHERE owner_id = ? AND owner_type = ? AND track_kind = ? LIMIT 1`,
		m.ID, string(m.Type), string(kind),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking period existence: %w", err)
	}
	return true, nil
}

func (r *PeriodRepository) Insert(ctx context.Context, m domain.Member, kind domain.TrackKind, startedAt time.Time) (domain.Period, error) {
	p := domain.Period{
		ID:        uuid.NewString(),
		OwnerID:   m.ID,
		OwnerType: m.Type,
		Track:     kind,
		StartedAt: startedAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO periods (`+periodColumns+`) VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		p.ID, p.OwnerID, string(p.OwnerType), string(p.Track),
		p.StartedAt.Format(timeFormat),
		p.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		// The partial unique index is the concurrency backstop: two racing
		// opens both pass validation, but only one row can land.
		if isUniqueViolation(err) {
			return domain.Period{}, &domain.AlreadyOpenError{Member: m, Track: kind}
		}
		return domain.Period{}, fmt.Errorf("inserting period: %w", err)
	}
	return p, nil
}

func (r *PeriodRepository) CloseOpen(ctx context.Context, m domain.Member, kind domain.TrackKind, endedAt time.Time) (domain.Period, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Period{}, fmt.Errorf("starting close transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rows, err := tx.QueryContext(ctx,
		`SELECT `+periodColumns+` FROM periods
		 WHERE owner_id = ? AND owner_type = ? AND track_kind = ? AND ended_at IS NULL`,
		m.ID, string(m.Type), string(kind),
	)
	if err != nil {
		return domain.Period{}, fmt.Errorf("querying open period: %w", err)
	}

	var open []domain.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			rows.Close()
			return domain.Period{}, err
		}
		open = append(open, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return domain.Period{}, fmt.Errorf("reading open periods: %w", err)
	}
	rows.Close()

	if len(open) > 1 {
		return domain.Period{}, &domain.MultipleOpenPeriodsError{Member: m, Track: kind, Count: len(open)}
	}
	if len(open) == 0 {
		return domain.Period{}, &domain.NoOpenPeriodError{Member: m, Track: kind}
	}

	p := open[0]
	if endedAt.Before(p.StartedAt) {
		return domain.Period{}, &domain.InvalidRangeError{Track: kind, StartedAt: p.StartedAt, EndedAt: endedAt}
	}

	ended := endedAt.UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE periods SET ended_at = ? WHERE id = ?`,
		ended.Format(timeFormat), p.ID,
	); err != nil {
		return domain.Period{}, fmt.Errorf("closing period: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Period{}, fmt.Errorf("committing close: %w", err)
	}

	p.EndedAt = &ended
	return p, nil
}

// findOne runs a query expected to yield at most one period.
func (r *PeriodRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Period, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying period: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("reading period: %w", err)
		}
		return nil, nil
	}

	p, err := scanPeriod(rows)
	if err != nil {
		return nil, err
	}
	return &p, rows.Err()
}

func scanPeriod(rows *sql.Rows) (domain.Period, error) {
	var p domain.Period
	var ownerType, trackKind, startedAt, createdAt string
	var endedAt sql.NullString

	if err := rows.Scan(&p.ID, &p.OwnerID, &ownerType, &trackKind, &startedAt, &endedAt, &createdAt); err != nil {
		return domain.Period{}, fmt.Errorf("scanning period: %w", err)
	}

	p.OwnerType = domain.OwnerType(ownerType)
	p.Track = domain.TrackKind(trackKind)
	p.StartedAt, _ = time.Parse(timeFormat, startedAt)
	p.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	if endedAt.Valid {
		t, _ := time.Parse(timeFormat, endedAt.String)
		p.EndedAt = &t
	}

	return p, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
