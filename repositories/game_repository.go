package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/courtside/bracket-engine/models"
	"github.com/lib/pq"
)

var (
	ErrGameNotFound          = errors.New("game not found")
	ErrGameTournamentInvalid = errors.New("game tournament reference invalid")
)

// Note: games carry no unique index on (tournament_id, bracket_position).
// Duplicate positions are a data state the consistency guard detects and
// repairs, not one the database rejects up front.

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	GetByPosition(ctx context.Context, exec SQLExecutor, tournamentID int, position string) (*models.Game, error)
	// GetByPositionForUpdate locks the returned row until the surrounding
	// transaction ends, serializing concurrent writers of the same slot.
	GetByPositionForUpdate(ctx context.Context, exec SQLExecutor, tournamentID int, position string) (*models.Game, error)
	ListByTournament(ctx context.Context, tournamentID int, round *models.Round, status *models.GameStatus) ([]*models.Game, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	UpdateAdvancement(ctx context.Context, exec SQLExecutor, id int, winnerTarget, loserTarget *models.SlotRef) error
	UpdateSlot(ctx context.Context, exec SQLExecutor, id int, slot models.SlotNumber, participant models.ParticipantSlot) error
	DeleteAllForTournamentExcept(ctx context.Context, exec SQLExecutor, tournamentID int, keep []int) (int, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `
	id, tournament_id, round, region, bracket_position,
	home_participant_id, home_seed, home_is_placeholder,
	away_participant_id, away_seed, away_is_placeholder,
	status, scheduled_date, winner_participant_id,
	winner_target_position, winner_target_slot,
	loser_target_position, loser_target_slot,
	created_at`

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO games (
			tournament_id, round, region, bracket_position,
			home_participant_id, home_seed, home_is_placeholder,
			away_participant_id, away_seed, away_is_placeholder,
			status, scheduled_date, winner_participant_id,
			winner_target_position, winner_target_slot,
			loser_target_position, loser_target_slot
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at`

	winnerPos, winnerSlot := splitSlotRef(game.WinnerTarget)
	loserPos, loserSlot := splitSlotRef(game.LoserTarget)

	err := executor.QueryRowContext(ctx, query,
		game.TournamentID, game.Round, game.Region, game.BracketPosition,
		game.Home.ParticipantID, game.Home.Seed, game.Home.IsPlaceholder,
		game.Away.ParticipantID, game.Away.Seed, game.Away.IsPlaceholder,
		game.Status, game.ScheduledDate, game.WinnerParticipantID,
		winnerPos, winnerSlot, loserPos, loserSlot,
	).Scan(&game.ID, &game.CreatedAt)

	return r.handleGameError(err)
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`

	game, err := scanGame(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game by id %d: %w", id, err)
	}
	return game, nil
}

func (r *postgresGameRepository) GetByPosition(ctx context.Context, exec SQLExecutor, tournamentID int, position string) (*models.Game, error) {
	return r.getByPosition(ctx, exec, tournamentID, position, false)
}

func (r *postgresGameRepository) GetByPositionForUpdate(ctx context.Context, exec SQLExecutor, tournamentID int, position string) (*models.Game, error) {
	return r.getByPosition(ctx, exec, tournamentID, position, true)
}

func (r *postgresGameRepository) getByPosition(ctx context.Context, exec SQLExecutor, tournamentID int, position string, forUpdate bool) (*models.Game, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + gameColumns + ` FROM games WHERE tournament_id = $1 AND bracket_position = $2
		ORDER BY created_at ASC, id ASC LIMIT 1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	game, err := scanGame(executor.QueryRowContext(ctx, query, tournamentID, position))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game %s of tournament %d: %w", position, tournamentID, err)
	}
	return game, nil
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, tournamentID int, round *models.Round, status *models.GameStatus) ([]*models.Game, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + gameColumns + ` FROM games WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if round != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *round)
		placeholderIndex++
	}
	if status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *status)
	}

	queryBuilder.WriteString(" ORDER BY created_at ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	games := make([]*models.Game, 0)
	for rows.Next() {
		game, scanErr := scanGame(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", scanErr)
		}
		games = append(games, game)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during game rows iteration: %w", err)
	}
	return games, nil
}

func (r *postgresGameRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM games WHERE tournament_id = $1`, tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count games for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresGameRepository) UpdateAdvancement(ctx context.Context, exec SQLExecutor, id int, winnerTarget, loserTarget *models.SlotRef) error {
	executor := r.getExecutor(exec)
	winnerPos, winnerSlot := splitSlotRef(winnerTarget)
	loserPos, loserSlot := splitSlotRef(loserTarget)

	query := `
		UPDATE games
		SET winner_target_position = $1, winner_target_slot = $2,
		    loser_target_position = $3, loser_target_slot = $4
		WHERE id = $5`

	result, err := executor.ExecContext(ctx, query, winnerPos, winnerSlot, loserPos, loserSlot, id)
	if err != nil {
		return fmt.Errorf("UpdateAdvancement: failed to execute query for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdateSlot(ctx context.Context, exec SQLExecutor, id int, slot models.SlotNumber, participant models.ParticipantSlot) error {
	executor := r.getExecutor(exec)

	var query string
	switch slot {
	case models.SlotHome:
		query = `UPDATE games SET home_participant_id = $1, home_seed = $2, home_is_placeholder = $3 WHERE id = $4`
	case models.SlotAway:
		query = `UPDATE games SET away_participant_id = $1, away_seed = $2, away_is_placeholder = $3 WHERE id = $4`
	default:
		return fmt.Errorf("UpdateSlot: invalid slot number %d for game %d", slot, id)
	}

	result, err := executor.ExecContext(ctx, query, participant.ParticipantID, participant.Seed, participant.IsPlaceholder, id)
	if err != nil {
		return fmt.Errorf("UpdateSlot: failed to execute query for game %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) DeleteAllForTournamentExcept(ctx context.Context, exec SQLExecutor, tournamentID int, keep []int) (int, error) {
	executor := r.getExecutor(exec)

	var (
		result sql.Result
		err    error
	)
	if len(keep) == 0 {
		result, err = executor.ExecContext(ctx,
			`DELETE FROM games WHERE tournament_id = $1`, tournamentID)
	} else {
		result, err = executor.ExecContext(ctx,
			`DELETE FROM games WHERE tournament_id = $1 AND NOT (id = ANY($2))`,
			tournamentID, pq.Array(keep))
	}
	if err != nil {
		return 0, fmt.Errorf("failed to prune games for tournament %d: %w", tournamentID, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check pruned rows: %w", err)
	}
	return int(deleted), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (*models.Game, error) {
	var (
		game       models.Game
		winnerPos  sql.NullString
		winnerSlot sql.NullInt64
		loserPos   sql.NullString
		loserSlot  sql.NullInt64
	)
	err := row.Scan(
		&game.ID, &game.TournamentID, &game.Round, &game.Region, &game.BracketPosition,
		&game.Home.ParticipantID, &game.Home.Seed, &game.Home.IsPlaceholder,
		&game.Away.ParticipantID, &game.Away.Seed, &game.Away.IsPlaceholder,
		&game.Status, &game.ScheduledDate, &game.WinnerParticipantID,
		&winnerPos, &winnerSlot, &loserPos, &loserSlot,
		&game.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	game.WinnerTarget = joinSlotRef(winnerPos, winnerSlot)
	game.LoserTarget = joinSlotRef(loserPos, loserSlot)
	return &game, nil
}

func splitSlotRef(ref *models.SlotRef) (*string, *int) {
	if ref == nil {
		return nil, nil
	}
	slot := int(ref.Slot)
	return &ref.Position, &slot
}

func joinSlotRef(pos sql.NullString, slot sql.NullInt64) *models.SlotRef {
	if !pos.Valid || !slot.Valid {
		return nil
	}
	return &models.SlotRef{Position: pos.String, Slot: models.SlotNumber(slot.Int64)}
}

func (r *postgresGameRepository) handleGameError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "games_tournament_id_fkey":
			return ErrGameTournamentInvalid
		}
	}
	return err
}
