package models

// SeedAssignment maps one seed number in one region to a participant. The
// engine never derives seeds; assignments arrive fully formed from outside.
// Shapes without regions (the 4-team event) use RegionFinal as the region.
type SeedAssignment struct {
	ID            int    `json:"id" db:"id"`
	TournamentID  int    `json:"tournament_id" db:"tournament_id"`
	Region        string `json:"region" db:"region"`
	Seed          int    `json:"seed" db:"seed"`
	ParticipantID int    `json:"participant_id" db:"participant_id"`
}

// SeedingTable is the per-region seed -> participant lookup consumed by the
// topology generator.
type SeedingTable map[string]map[int]int

// BuildSeedingTable folds seed assignments into a lookup table. A later
// assignment for the same region and seed overwrites an earlier one.
func BuildSeedingTable(assignments []*SeedAssignment) SeedingTable {
	table := make(SeedingTable)
	for _, a := range assignments {
		if a == nil {
			continue
		}
		region := table[a.Region]
		if region == nil {
			region = make(map[int]int)
			table[a.Region] = region
		}
		region[a.Seed] = a.ParticipantID
	}
	return table
}

// Participant looks up the participant for a seed, reporting whether the
// assignment exists.
func (t SeedingTable) Participant(region string, seed int) (int, bool) {
	seeds, ok := t[region]
	if !ok {
		return 0, false
	}
	id, ok := seeds[seed]
	return id, ok
}
