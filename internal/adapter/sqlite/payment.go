package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/progrid/progrid/internal/domain"
)

// Compile-time check: PaymentRepository implements its domain port.
var _ domain.PaymentRepository = (*PaymentRepository)(nil)

// PaymentRepository implements domain.PaymentRepository using SQLite.
type PaymentRepository struct {
	db *sql.DB
}

func (r *PaymentRepository) Create(ctx context.Context, rec domain.PaymentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_records (ref, tournament_id, team_id, amount_cents, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Ref, rec.TournamentID, rec.TeamID, rec.AmountCents, string(rec.Status),
		rec.CreatedAt.Format(timeFormat),
		rec.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting payment record: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByRef(ctx context.Context, ref string) (domain.PaymentRecord, error) {
	var rec domain.PaymentRecord
	var status, createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx,
		`SELECT ref, tournament_id, team_id, amount_cents, status, created_at, updated_at
		 FROM payment_records WHERE ref = ?`, ref,
	).Scan(&rec.Ref, &rec.TournamentID, &rec.TeamID, &rec.AmountCents, &status, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.PaymentRecord{}, domain.ErrPaymentNotFound
		}
		return domain.PaymentRecord{}, fmt.Errorf("scanning payment record: %w", err)
	}

	rec.Status = domain.PaymentStatus(status)
	rec.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	rec.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

	return rec, nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, ref string, status domain.PaymentStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payment_records SET status = ?, updated_at = ? WHERE ref = ?`,
		string(status), time.Now().UTC().Format(timeFormat), ref,
	)
	if err != nil {
		return fmt.Errorf("updating payment record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrPaymentNotFound
	}

	return nil
}
