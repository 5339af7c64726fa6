package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/progrid/progrid/internal/domain"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store owns the SQLite connection and hands out the per-aggregate
// repositories that share it.
type Store struct {
	db *sql.DB

	Tournaments   *TournamentRepository
	Participants  *ParticipantRepository
	Payments      *PaymentRepository
	Distributions *DistributionRepository
}

// New opens a SQLite database, runs migrations, and returns a ready store.
func New(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite allows one writer at a time. A single pooled connection makes
	// racing writes queue on the pool instead of surfacing SQLITE_BUSY, and
	// it guarantees the PRAGMAs below apply to every statement.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// Enable foreign keys (off by default in SQLite).
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Wait for locks instead of failing fast; registrations race for seats.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready store.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*Store, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &Store{
		db:            db,
		Tournaments:   &TournamentRepository{db: db},
		Participants:  &ParticipantRepository{db: db},
		Payments:      &PaymentRepository{db: db},
		Distributions: &DistributionRepository{db: db},
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for use by other adapters (e.g., river).
func (s *Store) DB() *sql.DB {
	return s.db
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

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Compile-time check: TournamentRepository implements its domain port.
var _ domain.TournamentRepository = (*TournamentRepository)(nil)

// TournamentRepository implements domain.TournamentRepository using SQLite.
type TournamentRepository struct {
	db *sql.DB
}

func (r *TournamentRepository) Create(ctx context.Context, t domain.Tournament) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tournaments (id, organizer_id, name, status, max_participants,
		                          entry_fee_cents, prize_pool_cents, scheme, start_date,
		                          created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrganizerID, t.Name, string(t.Status), t.MaxParticipants,
		t.EntryFeeCents, t.PrizePoolCents, string(t.Scheme),
		t.StartDate.UTC().Format(timeFormat),
		t.CreatedAt.Format(timeFormat),
		t.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting tournament: %w", err)
	}
	return nil
}

func (r *TournamentRepository) GetByID(ctx context.Context, id string) (domain.Tournament, error) {
	return r.scanTournament(r.db.QueryRowContext(ctx,
		`SELECT id, organizer_id, name, status, max_participants, entry_fee_cents,
		        prize_pool_cents, scheme, start_date, created_at, updated_at
		 FROM tournaments WHERE id = ?`, id,
	))
}

func (r *TournamentRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tournament, error) {
	query := `SELECT id, organizer_id, name, status, max_participants, entry_fee_cents,
	                 prize_pool_cents, scheme, start_date, created_at, updated_at
	          FROM tournaments`
	var conds []string
	var args []any

	if filter.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.OrganizerID != "" {
		conds = append(conds, `organizer_id = ?`)
		args = append(args, filter.OrganizerID)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}

	query += ` ORDER BY created_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []domain.Tournament
	for rows.Next() {
		t, err := r.scanTournamentFromRows(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}

	return tournaments, rows.Err()
}

func (r *TournamentRepository) Update(ctx context.Context, t domain.Tournament) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET name = ?, status = ?, max_participants = ?,
		        entry_fee_cents = ?, prize_pool_cents = ?, scheme = ?, start_date = ?,
		        updated_at = ?
		 WHERE id = ?`,
		t.Name, string(t.Status), t.MaxParticipants,
		t.EntryFeeCents, t.PrizePoolCents, string(t.Scheme),
		t.StartDate.UTC().Format(timeFormat),
		time.Now().UTC().Format(timeFormat), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tournament: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrTournamentNotFound
	}

	return nil
}

// scanTournament scans a single row from QueryRow into a domain.Tournament.
func (r *TournamentRepository) scanTournament(row *sql.Row) (domain.Tournament, error) {
	var t domain.Tournament
	var status, scheme, startDate, createdAt, updatedAt string

	err := row.Scan(&t.ID, &t.OrganizerID, &t.Name, &status, &t.MaxParticipants,
		&t.EntryFeeCents, &t.PrizePoolCents, &scheme, &startDate, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Tournament{}, domain.ErrTournamentNotFound
		}
		return domain.Tournament{}, fmt.Errorf("scanning tournament: %w", err)
	}

	t.Status = domain.Status(status)
	t.Scheme = domain.Scheme(scheme)
	t.StartDate, _ = time.Parse(timeFormat, startDate)
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return t, nil
}

// scanTournamentFromRows scans a single row from Rows (used in List).
func (r *TournamentRepository) scanTournamentFromRows(rows *sql.Rows) (domain.Tournament, error) {
	var t domain.Tournament
	var status, scheme, startDate, createdAt, updatedAt string

	err := rows.Scan(&t.ID, &t.OrganizerID, &t.Name, &status, &t.MaxParticipants,
		&t.EntryFeeCents, &t.PrizePoolCents, &scheme, &startDate, &createdAt, &updatedAt)
	if err != nil {
		return domain.Tournament{}, fmt.Errorf("scanning tournament row: %w", err)
	}

	t.Status = domain.Status(status)
	t.Scheme = domain.Scheme(scheme)
	t.StartDate, _ = time.Parse(timeFormat, startDate)
	t.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	t.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return t, nil
}
