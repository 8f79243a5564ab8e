package models

import (
	"fmt"
	"time"
)

// Report is one completed Run Creation Profile run
type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Sources     map[string]string `json:"sources,omitempty"` // input kind -> resolved path
	Rows        []TeamRow         `json:"rows"`
	Tallies     []TeamTally       `json:"tallies,omitempty"`
}

// Row returns the report row for a team
func (r *Report) Row(id TeamID) (TeamRow, bool) {
	for _, row := range r.Rows {
		if row.TeamID == id {
			return row, true
		}
	}
	return TeamRow{}, false
}

// TeamRow is a single leaderboard line.
// Nil pointers are rendered as NA.
type TeamRow struct {
	TeamID       TeamID   `json:"team_id"`
	TeamDisplay  string   `json:"team_display"`
	Games        *float64 `json:"g"`
	RunsScored   *float64 `json:"runs_scored"`
	HR           *float64 `json:"hr"`
	RBI          *float64 `json:"rbi"`
	SB           *float64 `json:"sb"`
	CS           *float64 `json:"cs"`
	SBAttempts   *float64 `json:"sb_attempts"`
	SBAttPerGame *float64 `json:"sb_att_pg"`
	RBIOnHR      *float64 `json:"rbi_on_hr"`
	PctRunsViaHR *float64 `json:"pct_runs_via_hr"`
	RBI2Out      *float64 `json:"rbi_2out"`
	PctRBI2Out   *float64 `json:"pct_rbi_2out"`

	PowerProfile    string `json:"power_profile"`
	PressureProfile string `json:"pressure_profile"`
	ClutchProfile   string `json:"clutch_profile"`
}

// DisplayName falls back to a generic label when the export has no name
func (r TeamRow) DisplayName() string {
	if r.TeamDisplay != "" {
		return r.TeamDisplay
	}
	return fmt.Sprintf("Team %d", r.TeamID)
}
