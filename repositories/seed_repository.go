package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/courtside/bracket-engine/models"
)

// SeedRepository reads the externally supplied seeding table. The engine
// never writes seeds.
type SeedRepository interface {
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.SeedAssignment, error)
}

type postgresSeedRepository struct {
	db *sql.DB
}

func NewPostgresSeedRepository(db *sql.DB) SeedRepository {
	return &postgresSeedRepository{db: db}
}

func (r *postgresSeedRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.SeedAssignment, error) {
	query := `
		SELECT id, tournament_id, region, seed, participant_id
		FROM seed_assignments
		WHERE tournament_id = $1
		ORDER BY region ASC, seed ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query seed assignments for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	assignments := make([]*models.SeedAssignment, 0)
	for rows.Next() {
		var a models.SeedAssignment
		if scanErr := rows.Scan(&a.ID, &a.TournamentID, &a.Region, &a.Seed, &a.ParticipantID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan seed assignment row: %w", scanErr)
		}
		assignments = append(assignments, &a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during seed assignment rows iteration: %w", err)
	}
	return assignments, nil
}
