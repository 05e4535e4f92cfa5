package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courtside/bracket-engine/brackets"
	"github.com/courtside/bracket-engine/models"
	"github.com/courtside/bracket-engine/repositories"
)

// PropagateInput identifies one resolved game and its outcome. The loser is
// optional; it only matters for shapes with a consolation bracket.
type PropagateInput struct {
	GameID              int
	WinnerParticipantID int
	LoserParticipantID  *int

	// Force permits overwriting a target slot that already holds a final,
	// non-placeholder participant. Ordinary propagation refuses instead of
	// silently hiding a topology or data-entry bug.
	Force bool
}

type PropagationService interface {
	// PropagateResult writes the resolved participant(s) into the slot(s)
	// designated by the game's advancement edges and returns the updated
	// downstream games. Exactly one hop: propagating into a game never
	// cascades further, even if that game is itself already completed. The
	// caller re-invokes propagation per resolved game. Terminal games are a
	// no-op for advancement; resolving the championship records the champion
	// on the tournament.
	PropagateResult(ctx context.Context, input PropagateInput) ([]*models.Game, error)
}

type propagationService struct {
	txm            repositories.TxManager
	gameRepo       repositories.GameRepository
	tournamentRepo repositories.TournamentRepository
	hub            *brackets.Hub
	logger         *slog.Logger
}

func NewPropagationService(
	txm repositories.TxManager,
	gameRepo repositories.GameRepository,
	tournamentRepo repositories.TournamentRepository,
	hub *brackets.Hub,
	logger *slog.Logger,
) PropagationService {
	return &propagationService{
		txm:            txm,
		gameRepo:       gameRepo,
		tournamentRepo: tournamentRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *propagationService) PropagateResult(ctx context.Context, input PropagateInput) ([]*models.Game, error) {
	game, err := s.gameRepo.GetByID(ctx, nil, input.GameID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to load game %d: %w", input.GameID, err)
	}

	if game.Status != models.GameStatusCompleted {
		return nil, fmt.Errorf("%w: game %d is %s", ErrGameNotCompleted, game.ID, game.Status)
	}
	if err := validateOutcome(game, input); err != nil {
		return nil, err
	}

	if game.Terminal() {
		return nil, s.recordTerminalResult(ctx, game, input.WinnerParticipantID)
	}

	var updated []*models.Game
	err = s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		updated = updated[:0]

		if game.WinnerTarget != nil {
			target, writeErr := s.advance(ctx, exec, game, *game.WinnerTarget, input.WinnerParticipantID, input.Force)
			if writeErr != nil {
				return writeErr
			}
			if target != nil {
				updated = append(updated, target)
			}
		}
		if game.LoserTarget != nil && input.LoserParticipantID != nil {
			target, writeErr := s.advance(ctx, exec, game, *game.LoserTarget, *input.LoserParticipantID, input.Force)
			if writeErr != nil {
				return writeErr
			}
			if target != nil {
				updated = append(updated, target)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, target := range updated {
		s.hub.BroadcastToTournament(game.TournamentID, brackets.Event{
			Type:         brackets.MessageGameUpdated,
			TournamentID: game.TournamentID,
			Payload:      target,
		})
	}
	return updated, nil
}

// advance writes one participant into one downstream slot. Returns the
// updated target game, or nil when the slot already held the same
// participant (propagation is idempotent with respect to correct state).
// The target row is read with a row lock so that two propagations racing
// into the same slot serialize: the second sees the first's write and hits
// the resolved-slot check instead of silently overwriting it.
func (s *propagationService) advance(ctx context.Context, exec repositories.SQLExecutor, from *models.Game, ref models.SlotRef, participantID int, force bool) (*models.Game, error) {
	target, err := s.gameRepo.GetByPositionForUpdate(ctx, exec, from.TournamentID, ref.Position)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			return nil, fmt.Errorf("%w: advancement target %s of game %s", ErrGameNotFound, ref.Position, from.BracketPosition)
		}
		return nil, fmt.Errorf("failed to load advancement target %s: %w", ref.Position, err)
	}

	slot := target.Slot(ref.Slot)
	if slot.Resolved() {
		if *slot.ParticipantID == participantID {
			return nil, nil
		}
		if !force {
			return nil, fmt.Errorf("%w: %s slot %d holds participant %d",
				ErrSlotAlreadyResolved, target.BracketPosition, ref.Slot, *slot.ParticipantID)
		}
		s.logger.Warn("force-overwriting resolved slot",
			slog.Int("tournament_id", from.TournamentID),
			slog.String("position", target.BracketPosition),
			slog.Int("slot", int(ref.Slot)),
			slog.Int("old_participant", *slot.ParticipantID),
			slog.Int("new_participant", participantID))
	}

	id := participantID
	resolved := models.ParticipantSlot{ParticipantID: &id, Seed: from.SeedOf(participantID)}
	if err := s.gameRepo.UpdateSlot(ctx, exec, target.ID, ref.Slot, resolved); err != nil {
		return nil, fmt.Errorf("failed to resolve slot %d of game %s: %w", ref.Slot, target.BracketPosition, err)
	}
	*slot = resolved
	return target, nil
}

// recordTerminalResult handles propagation called on a game with no outgoing
// edges. Not an error: for the championship it records the champion and
// completes the tournament, for any other terminal game it is a plain no-op.
func (s *propagationService) recordTerminalResult(ctx context.Context, game *models.Game, winnerID int) error {
	if game.Round != models.RoundChampionship {
		return nil
	}

	err := s.txm.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		id := winnerID
		return s.tournamentRepo.UpdateChampion(ctx, exec, game.TournamentID, &id, models.TournamentStatusCompleted)
	})
	if err != nil {
		return fmt.Errorf("failed to record champion for tournament %d: %w", game.TournamentID, err)
	}

	s.logger.Info("champion decided",
		slog.Int("tournament_id", game.TournamentID),
		slog.Int("participant_id", winnerID))
	s.hub.BroadcastToTournament(game.TournamentID, brackets.Event{
		Type:         brackets.MessageChampionDecided,
		TournamentID: game.TournamentID,
		Payload:      map[string]int{"participant_id": winnerID},
	})
	return nil
}

// validateOutcome checks the supplied winner (and loser, if given) against
// the game's participants. The check only applies when both slots hold
// final, non-placeholder participants; a completed game with unresolved
// slots is a consistency problem for the guard, not for propagation.
func validateOutcome(game *models.Game, input PropagateInput) error {
	if !game.Home.Resolved() || !game.Away.Resolved() {
		return nil
	}
	inGame := func(participantID int) bool {
		return *game.Home.ParticipantID == participantID || *game.Away.ParticipantID == participantID
	}

	if !inGame(input.WinnerParticipantID) {
		return fmt.Errorf("%w: participant %d in game %s", ErrWinnerNotInGame, input.WinnerParticipantID, game.BracketPosition)
	}
	if input.LoserParticipantID != nil && !inGame(*input.LoserParticipantID) {
		return fmt.Errorf("%w: participant %d in game %s", ErrLoserNotInGame, *input.LoserParticipantID, game.BracketPosition)
	}
	return nil
}
