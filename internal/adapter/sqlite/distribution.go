package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/progrid/progrid/internal/domain"
)

// Compile-time check: DistributionRepository implements its domain port.
var _ domain.DistributionRepository = (*DistributionRepository)(nil)

// DistributionRepository implements domain.DistributionRepository using SQLite.
type DistributionRepository struct {
	db *sql.DB
}

// CreateAll inserts the distribution rows in one transaction. The
// (tournament_id, placement) unique constraint makes the operation
// non-reentrant: a concurrent second distribution collides on the first
// row and the whole transaction rolls back.
func (r *DistributionRepository) CreateAll(ctx context.Context, rows []domain.PrizeDistribution) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM prize_distributions WHERE tournament_id = ?`,
		rows[0].TournamentID,
	).Scan(&existing); err != nil {
		return fmt.Errorf("checking existing distribution: %w", err)
	}
	if existing > 0 {
		return domain.ErrAlreadyDistributed
	}

	now := time.Now().UTC().Format(timeFormat)
	for _, row := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO prize_distributions (id, tournament_id, participant_id, placement,
			                                  amount_cents, status, transfer_ref, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.ID, row.TournamentID, row.ParticipantID, row.Placement,
			row.AmountCents, string(row.Status), row.TransferRef, now, now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrAlreadyDistributed
			}
			return fmt.Errorf("inserting distribution row: %w", err)
		}
	}

	return tx.Commit()
}

func (r *DistributionRepository) ExistsForTournament(ctx context.Context, tournamentID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM prize_distributions WHERE tournament_id = ?`,
		tournamentID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking distribution: %w", err)
	}
	return count > 0, nil
}

func (r *DistributionRepository) ListByTournament(ctx context.Context, tournamentID string) ([]domain.PrizeDistribution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tournament_id, participant_id, placement, amount_cents, status, transfer_ref, created_at, updated_at
		 FROM prize_distributions WHERE tournament_id = ? ORDER BY placement`,
		tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing distribution: %w", err)
	}
	defer rows.Close()

	var out []domain.PrizeDistribution
	for rows.Next() {
		var d domain.PrizeDistribution
		var status, createdAt, updatedAt string

		if err := rows.Scan(&d.ID, &d.TournamentID, &d.ParticipantID, &d.Placement,
			&d.AmountCents, &status, &d.TransferRef, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning distribution row: %w", err)
		}
		d.Status = domain.PayoutStatus(status)
		d.CreatedAt, _ = time.Parse(timeFormat, createdAt)
		d.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)

		out = append(out, d)
	}

	return out, rows.Err()
}

func (r *DistributionRepository) MarkTransfer(ctx context.Context, id, transferRef string, status domain.PayoutStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE prize_distributions SET transfer_ref = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		transferRef, string(status), time.Now().UTC().Format(timeFormat), id,
	)
	if err != nil {
		return fmt.Errorf("marking transfer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrDistributionRowNotFound
	}

	return nil
}

// ResolveTransfer is a compare-and-set: only a pending row moves. Replayed
// gateway callbacks match zero rows and report applied=false.
func (r *DistributionRepository) ResolveTransfer(ctx context.Context, transferRef string, status domain.PayoutStatus) (bool, error) {
	if transferRef == "" {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE prize_distributions SET status = ?, updated_at = ?
		 WHERE transfer_ref = ? AND status = ?`,
		string(status), time.Now().UTC().Format(timeFormat),
		transferRef, string(domain.PayoutPending),
	)
	if err != nil {
		return false, fmt.Errorf("resolving transfer: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rows > 0, nil
}
