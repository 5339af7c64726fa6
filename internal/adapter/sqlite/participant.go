package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/progrid/progrid/internal/domain"
)

// Compile-time check: ParticipantRepository implements its domain port.
var _ domain.ParticipantRepository = (*ParticipantRepository)(nil)

// ParticipantRepository implements domain.ParticipantRepository using SQLite.
type ParticipantRepository struct {
	db *sql.DB
}

// CreateWithinCapacity inserts the participant only while the tournament still
// has room. The capacity check and the insert are one statement, so two
// concurrent registrations for the last seat cannot both succeed; the
// (tournament_id, team_id) unique constraint arbitrates duplicates.
func (r *ParticipantRepository) CreateWithinCapacity(ctx context.Context, p domain.Participant, max int) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO participants (id, tournament_id, team_id, payment_status, joined_at)
		 SELECT ?, ?, ?, ?, ?
		 WHERE (SELECT COUNT(*) FROM participants
		        WHERE tournament_id = ? AND payment_status != ?) < ?`,
		p.ID, p.TournamentID, p.TeamID, string(p.PaymentStatus),
		p.JoinedAt.Format(timeFormat),
		p.TournamentID, string(domain.PaymentFailed), max,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.AlreadyRegisteredError{TournamentID: p.TournamentID, TeamID: p.TeamID}
		}
		return fmt.Errorf("inserting participant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return &domain.CapacityExceededError{Max: max}
	}

	return nil
}

func (r *ParticipantRepository) GetByTeam(ctx context.Context, tournamentID, teamID string) (domain.Participant, error) {
	return r.scanParticipant(r.db.QueryRowContext(ctx,
		`SELECT id, tournament_id, team_id, placement, payment_status, joined_at
		 FROM participants WHERE tournament_id = ? AND team_id = ?`,
		tournamentID, teamID,
	))
}

func (r *ParticipantRepository) ListByTournament(ctx context.Context, tournamentID string) ([]domain.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tournament_id, team_id, placement, payment_status, joined_at
		 FROM participants WHERE tournament_id = ? ORDER BY joined_at`,
		tournamentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		var placement sql.NullInt64
		var status, joinedAt string

		if err := rows.Scan(&p.ID, &p.TournamentID, &p.TeamID, &placement, &status, &joinedAt); err != nil {
			return nil, fmt.Errorf("scanning participant row: %w", err)
		}
		if placement.Valid {
			v := int(placement.Int64)
			p.Placement = &v
		}
		p.PaymentStatus = domain.PaymentStatus(status)
		p.JoinedAt, _ = time.Parse(timeFormat, joinedAt)

		participants = append(participants, p)
	}

	return participants, rows.Err()
}

func (r *ParticipantRepository) CountByTournament(ctx context.Context, tournamentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants
		 WHERE tournament_id = ? AND payment_status != ?`,
		tournamentID, string(domain.PaymentFailed),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting participants: %w", err)
	}
	return count, nil
}

func (r *ParticipantRepository) SetPlacement(ctx context.Context, tournamentID, teamID string, placement int) (domain.Participant, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE participants SET placement = ?
		 WHERE tournament_id = ? AND team_id = ?`,
		placement, tournamentID, teamID,
	)
	if err != nil {
		// The partial unique index on (tournament_id, placement) fired:
		// another participant already holds this rank.
		if isUniqueViolation(err) {
			return domain.Participant{}, &domain.DuplicatePlacementError{Placement: placement}
		}
		return domain.Participant{}, fmt.Errorf("setting placement: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return domain.Participant{}, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}

	return r.GetByTeam(ctx, tournamentID, teamID)
}

func (r *ParticipantRepository) scanParticipant(row *sql.Row) (domain.Participant, error) {
	var p domain.Participant
	var placement sql.NullInt64
	var status, joinedAt string

	err := row.Scan(&p.ID, &p.TournamentID, &p.TeamID, &placement, &status, &joinedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.Participant{}, domain.ErrParticipantNotFound
		}
		return domain.Participant{}, fmt.Errorf("scanning participant: %w", err)
	}

	if placement.Valid {
		v := int(placement.Int64)
		p.Placement = &v
	}
	p.PaymentStatus = domain.PaymentStatus(status)
	p.JoinedAt, _ = time.Parse(timeFormat, joinedAt)

	return p, nil
}
