package models

// TeamID is the stable league identifier of a club
type TeamID int

// GameLine is one row of the play-by-play narration export.
// Lines are ordered by Sequence within a game and never interleaved across
// half-innings.
type GameLine struct {
	GameID   string `json:"game_id" validate:"required"`
	Sequence int    `json:"sequence" validate:"gte=0"`
	Inning   int    `json:"inning,omitempty"`
	Half     string `json:"half,omitempty"`
	Text     string `json:"text"`
}

// RunTally holds the per-team run attribution totals recovered from narration
type RunTally struct {
	HRRuns       int `json:"hr_runs"`
	HRTwoOutRuns int `json:"hr_two_out_runs"` // subset of HRRuns hit with two outs
	TwoOutRuns   int `json:"two_out_runs"`    // non-HR runs credited with two outs
}

// TwoOutRBI is every run driven in with two outs, home runs included
func (t RunTally) TwoOutRBI() int {
	return t.TwoOutRuns + t.HRTwoOutRuns
}

// Add returns the field-wise sum of two tallies
func (t RunTally) Add(o RunTally) RunTally {
	return RunTally{
		HRRuns:       t.HRRuns + o.HRRuns,
		HRTwoOutRuns: t.HRTwoOutRuns + o.HRTwoOutRuns,
		TwoOutRuns:   t.TwoOutRuns + o.TwoOutRuns,
	}
}

// TeamTally pairs a tally with its team, used for storage and transport
type TeamTally struct {
	TeamID TeamID `json:"team_id"`
	RunTally
}
