package league

import (
	"errors"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

// TeamRecord is one row of the standings export
type TeamRecord struct {
	TeamID     models.TeamID
	Display    string
	Wins       *float64
	Losses     *float64
	RunsScored *float64
}

// TeamBatting holds the season batting totals the report needs
type TeamBatting struct {
	TeamID models.TeamID
	HR     *float64
	RBI    *float64
	SB     *float64
	CS     *float64
}

// TeamScoring holds precomputed situational RBI splits, when an export has them
type TeamScoring struct {
	TeamID  models.TeamID
	RBIOnHR *float64
	RBI2Out *float64
}

// LoadRecord reads the standings export. It is required.
func LoadRecord(base, override string, r TeamRange) ([]TeamRecord, string, error) {
	table, err := ReadFirst(base, override, RecordCandidates)
	if err != nil {
		return nil, "", fmt.Errorf("load team record: %w", err)
	}
	idCol, err := table.RequireColumn(teamIDColumns...)
	if err != nil {
		return nil, "", fmt.Errorf("load team record: %w", err)
	}
	nameCol := table.PickColumn(teamNameColumns...)
	winsCol := table.PickColumn("wins", "w")
	lossesCol := table.PickColumn("losses", "l")
	runsCol := table.PickColumn("runs_scored", "rs", "r", "runsscored")

	var records []TeamRecord
	for _, row := range table.Rows {
		id, ok := TeamIDAt(row, idCol)
		if !ok || !r.Contains(id) {
			continue
		}
		records = append(records, TeamRecord{
			TeamID:     id,
			Display:    Cell(row, nameCol),
			Wins:       Number(row, winsCol),
			Losses:     Number(row, lossesCol),
			RunsScored: Number(row, runsCol),
		})
	}
	return records, table.Path, nil
}

// LoadBatting reads the team batting totals. It is required.
func LoadBatting(base, override string, r TeamRange) ([]TeamBatting, string, error) {
	table, err := ReadFirst(base, override, BattingCandidates)
	if err != nil {
		return nil, "", fmt.Errorf("load team batting: %w", err)
	}
	idCol, err := table.RequireColumn(teamIDColumns...)
	if err != nil {
		return nil, "", fmt.Errorf("load team batting: %w", err)
	}
	hrCol := table.PickColumn("hr")
	rbiCol := table.PickColumn("rbi")
	sbCol := table.PickColumn("sb")
	csCol := table.PickColumn("cs")

	var batting []TeamBatting
	for _, row := range table.Rows {
		id, ok := TeamIDAt(row, idCol)
		if !ok || !r.Contains(id) {
			continue
		}
		batting = append(batting, TeamBatting{
			TeamID: id,
			HR:     Number(row, hrCol),
			RBI:    Number(row, rbiCol),
			SB:     Number(row, sbCol),
			CS:     Number(row, csCol),
		})
	}
	return batting, table.Path, nil
}

// LoadScoring reads the optional situational scoring export.
// Missing file or missing team column both yield nil without error.
func LoadScoring(base, override string, r TeamRange) ([]TeamScoring, string, error) {
	table, err := ReadFirst(base, override, ScoringCandidates)
	if errors.Is(err, ErrSourceNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load team scoring: %w", err)
	}
	idCol := table.PickColumn(teamIDColumns...)
	if idCol < 0 {
		return nil, table.Path, nil
	}
	hrCol := table.PickColumn("rbi_on_hr", "hr_rbi", "rbi_hr")
	twoOutCol := table.PickColumn("rbi_2out", "rbi_two_out", "two_out_rbi")

	var scoring []TeamScoring
	for _, row := range table.Rows {
		id, ok := TeamIDAt(row, idCol)
		if !ok || !r.Contains(id) {
			continue
		}
		scoring = append(scoring, TeamScoring{
			TeamID:  id,
			RBIOnHR: Number(row, hrCol),
			RBI2Out: Number(row, twoOutCol),
		})
	}
	return scoring, table.Path, nil
}

// LoadPlayedGames counts played games per team from the optional game log.
// A game counts as played when it has a result or both run totals.
func LoadPlayedGames(base, override string, r TeamRange) (map[models.TeamID]int, string, error) {
	table, err := ReadFirst(base, override, LogCandidates)
	if errors.Is(err, ErrSourceNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load team game log: %w", err)
	}
	idCol := table.PickColumn(teamIDColumns...)
	if idCol < 0 {
		return nil, table.Path, nil
	}
	resultCol := table.PickColumn("result")
	forCol := table.PickColumn("runs_for", "rs", "r")
	againstCol := table.PickColumn("runs_against", "ra")

	counts := make(map[models.TeamID]int)
	for _, row := range table.Rows {
		id, ok := TeamIDAt(row, idCol)
		if !ok || !r.Contains(id) {
			continue
		}
		played := resultCol >= 0 && Cell(row, resultCol) != ""
		if forCol >= 0 && againstCol >= 0 && Number(row, forCol) != nil && Number(row, againstCol) != nil {
			played = true
		}
		if played {
			counts[id]++
		}
	}
	return counts, table.Path, nil
}
