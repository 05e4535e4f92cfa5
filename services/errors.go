package services

import "errors"

// Errors shared across services and the HTTP mapping layer. Every failure
// mode of the engine is an ordinary returned error: a partially set up
// tournament is a recoverable, inspectable state, never a process-fatal one.
var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrGameNotFound       = errors.New("game not found")

	// Propagation preconditions and conflicts.
	ErrGameNotCompleted    = errors.New("game is not completed")
	ErrWinnerNotInGame     = errors.New("winner is not a participant of this game")
	ErrLoserNotInGame      = errors.New("loser is not a participant of this game")
	ErrSlotAlreadyResolved = errors.New("target slot is already resolved; retry with force to overwrite")

	// Generation against a tournament that already has games. Duplicates are
	// never auto-resolved; run validate and prune first.
	ErrDuplicateTopology = errors.New("tournament already has games; validate and prune before regenerating")
)
