package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/courtside/bracket-engine/models"
	"github.com/lib/pq"
)

var ErrTournamentNotFound = errors.New("tournament not found")

// TournamentRepository is read-mostly for the engine: tournaments are created
// and administered elsewhere. The engine records the champion once the
// terminal game resolves.
type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	UpdateChampion(ctx context.Context, exec SQLExecutor, id int, championParticipantID *int, status models.TournamentStatus) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `
		SELECT id, name, shape, regions, start_date, status, champion_participant_id, created_at
		FROM tournaments
		WHERE id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Shape, pq.Array(&t.Regions),
		&t.StartDate, &t.Status, &t.ChampionParticipantID, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) UpdateChampion(ctx context.Context, exec SQLExecutor, id int, championParticipantID *int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	query := `UPDATE tournaments SET champion_participant_id = $1, status = $2 WHERE id = $3`

	result, err := executor.ExecContext(ctx, query, championParticipantID, status, id)
	if err != nil {
		return fmt.Errorf("UpdateChampion: failed to execute query for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
