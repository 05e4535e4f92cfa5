package models

import "time"

// Shape identifies the fixed topology of a tournament: team count, round
// structure and whether a consolation bracket exists. The round sequence and
// total game count are fully determined by the shape.
type Shape string

const (
	// ShapeRegionalSingleElim64: four regions of sixteen seeds, 63 games.
	ShapeRegionalSingleElim64 Shape = "regional_single_elimination_64"
	// ShapeMultiTeamEvent4: four seeded participants, winners bracket plus
	// a consolation game for the semifinal losers.
	ShapeMultiTeamEvent4 Shape = "multi_team_event_4"
)

type TournamentStatus string

const (
	TournamentStatusSetup     TournamentStatus = "setup"
	TournamentStatusActive    TournamentStatus = "active"
	TournamentStatusCompleted TournamentStatus = "completed"
	TournamentStatusCanceled  TournamentStatus = "canceled"
)

// Tournament is read-mostly for the bracket engine: it is created and managed
// elsewhere, the engine only reads the shape descriptor and records the
// champion once the terminal game resolves.
type Tournament struct {
	ID                    int              `json:"id" db:"id"`
	Name                  string           `json:"name" db:"name"`
	Shape                 Shape            `json:"shape" db:"shape"`
	Regions               []string         `json:"regions,omitempty" db:"regions"`
	StartDate             time.Time        `json:"start_date" db:"start_date"`
	Status                TournamentStatus `json:"status" db:"status"`
	ChampionParticipantID *int             `json:"champion_participant_id,omitempty" db:"champion_participant_id"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`
}
