package models

import "time"

type Round string

const (
	RoundOf64         Round = "round_of_64"
	RoundOf32         Round = "round_of_32"
	RoundSweet16      Round = "sweet_16"
	RoundElite8       Round = "elite_8"
	RoundSemifinals   Round = "semifinals"
	RoundChampionship Round = "championship"
	RoundConsolation  Round = "consolation"
)

type GameStatus string

const (
	GameStatusScheduled  GameStatus = "scheduled"
	GameStatusInProgress GameStatus = "in_progress"
	GameStatusCompleted  GameStatus = "completed"
	GameStatusCanceled   GameStatus = "canceled"
)

// SlotNumber identifies one of the two participant positions in a game.
type SlotNumber int

const (
	SlotHome SlotNumber = 1
	SlotAway SlotNumber = 2
)

// RegionFinal is the sentinel region for rounds played across regions
// (semifinals, championship, consolation).
const RegionFinal = "FF"

// ParticipantSlot is one side of a game. A nil ParticipantID means the slot is
// unresolved: no upstream game feeding it has completed. IsPlaceholder marks a
// temporary stand-in written at generation time so consumers that need a
// non-null participant can render the game; propagation overwrites it freely.
type ParticipantSlot struct {
	ParticipantID *int `json:"participant_id,omitempty" db:"participant_id"`
	Seed          *int `json:"seed,omitempty" db:"seed"`
	IsPlaceholder bool `json:"is_placeholder,omitempty" db:"is_placeholder"`
}

// Known reports whether any participant, placeholder or not, occupies the slot.
func (s ParticipantSlot) Known() bool {
	return s.ParticipantID != nil
}

// Resolved reports whether the slot holds a final participant. Placeholders
// do not count; overwriting them is always allowed.
func (s ParticipantSlot) Resolved() bool {
	return s.ParticipantID != nil && !s.IsPlaceholder
}

// SlotRef addresses one slot of one game by its bracket position. Advancement
// edges are stored as SlotRefs rather than database ids so that linking stays
// a pure function of the topology.
type SlotRef struct {
	Position string     `json:"position"`
	Slot     SlotNumber `json:"slot"`
}

// Game is one node of a tournament's bracket graph. BracketPosition is the
// stable join key between generation, linking and repair; it is unique per
// tournament and never reused across regenerations.
type Game struct {
	ID                  int             `json:"id" db:"id"`
	TournamentID        int             `json:"tournament_id" db:"tournament_id"`
	Round               Round           `json:"round" db:"round"`
	Region              string          `json:"region" db:"region"`
	BracketPosition     string          `json:"bracket_position" db:"bracket_position"`
	Home                ParticipantSlot `json:"home"`
	Away                ParticipantSlot `json:"away"`
	Status              GameStatus      `json:"status" db:"status"`
	ScheduledDate       time.Time       `json:"scheduled_date" db:"scheduled_date"`
	WinnerParticipantID *int            `json:"winner_participant_id,omitempty" db:"winner_participant_id"`
	WinnerTarget        *SlotRef        `json:"winner_target,omitempty"`
	LoserTarget         *SlotRef        `json:"loser_target,omitempty"`
	CreatedAt           time.Time       `json:"created_at" db:"created_at"`
}

// Slot returns a pointer to the addressed participant slot.
func (g *Game) Slot(n SlotNumber) *ParticipantSlot {
	if n == SlotAway {
		return &g.Away
	}
	return &g.Home
}

// Terminal reports whether the game has no outgoing advancement edges.
func (g *Game) Terminal() bool {
	return g.WinnerTarget == nil && g.LoserTarget == nil
}

// SeedOf returns the seed recorded for the given participant in this game,
// or nil if the participant does not occupy a slot here.
func (g *Game) SeedOf(participantID int) *int {
	if g.Home.ParticipantID != nil && *g.Home.ParticipantID == participantID {
		return g.Home.Seed
	}
	if g.Away.ParticipantID != nil && *g.Away.ParticipantID == participantID {
		return g.Away.Seed
	}
	return nil
}
