package report

import (
	"math"
	"sort"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/attribution"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/league"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

// Profile labels
const (
	Unknown = "Unknown"

	PowerSlugging  = "Slugging"
	PowerPunchy    = "Punchy"
	PowerBalanced  = "Balanced"
	PowerSmallBall = "Small-ball"

	PressureRelentless = "Relentless"
	PressureAggressive = "Aggressive"
	PressureSelective  = "Selective"
	PressureStation    = "Station-to-Station"

	ClutchMachine    = "Two-out Machine"
	ClutchTimely     = "Timely"
	ClutchOccasional = "Occasional"
	ClutchNeedsSpark = "Needs Spark"
)

// Inputs is everything Build merges into report rows
type Inputs struct {
	Records []league.TeamRecord
	Batting []league.TeamBatting
	Scoring []league.TeamScoring // nil when no scoring export exists
	Games   map[models.TeamID]int
	Teams   []league.TeamInfo

	// Narration holds play-by-play tallies. Nil means no narration was
	// available; a non-nil map overrides the scoring export for every team,
	// teams absent from it counting zero.
	Narration attribution.Tallies
}

// Build merges the inputs into one row per team, computes the ratios and
// profiles and returns the rows in leaderboard order.
func Build(in Inputs) []models.TeamRow {
	rows := make(map[models.TeamID]*models.TeamRow)
	row := func(id models.TeamID) *models.TeamRow {
		r, ok := rows[id]
		if !ok {
			r = &models.TeamRow{TeamID: id}
			rows[id] = r
		}
		return r
	}

	// record and batting are outer-joined
	for _, rec := range in.Records {
		r := row(rec.TeamID)
		r.TeamDisplay = rec.Display
		if rec.Wins != nil && rec.Losses != nil {
			r.Games = float(*rec.Wins + *rec.Losses)
		}
		r.RunsScored = rec.RunsScored
	}
	for _, bat := range in.Batting {
		r := row(bat.TeamID)
		r.HR, r.RBI, r.SB, r.CS = bat.HR, bat.RBI, bat.SB, bat.CS
	}

	// the remaining sources only decorate teams already present
	for _, sc := range in.Scoring {
		if r, ok := rows[sc.TeamID]; ok {
			r.RBIOnHR, r.RBI2Out = sc.RBIOnHR, sc.RBI2Out
		}
	}
	if in.Narration != nil {
		for id, r := range rows {
			tally := in.Narration[id]
			r.RBIOnHR = float(float64(tally.HRRuns))
			r.RBI2Out = float(float64(tally.TwoOutRBI()))
		}
	}

	names := make(map[models.TeamID]string, len(in.Teams))
	for _, t := range in.Teams {
		names[t.TeamID] = t.Display
	}

	out := make([]models.TeamRow, 0, len(rows))
	for id, r := range rows {
		if (r.Games == nil || *r.Games == 0) && in.Games != nil {
			if n, ok := in.Games[id]; ok {
				r.Games = float(float64(n))
			}
		}
		if r.TeamDisplay == "" {
			r.TeamDisplay = names[id]
		}
		derive(r)
		out = append(out, *r)
	}

	Sort(out)
	return out
}

func derive(r *models.TeamRow) {
	if r.RunsScored == nil && r.RBI != nil {
		r.RunsScored = float(*r.RBI)
	}

	if r.SB != nil || r.CS != nil {
		r.SBAttempts = float(value(r.SB) + value(r.CS))
	}

	r.SBAttPerGame = ratio(r.SBAttempts, r.Games)
	r.PctRunsViaHR = ratio(r.RBIOnHR, r.RunsScored)
	r.PctRBI2Out = ratio(r.RBI2Out, r.RBI)

	r.PowerProfile = ClassifyPower(r.PctRunsViaHR)
	r.PressureProfile = ClassifyPressure(r.SBAttPerGame)
	r.ClutchProfile = ClassifyClutch(r.PctRBI2Out)
}

// ratio is num/den rounded to three places, or nil when either side is
// missing or den is not positive
func ratio(num, den *float64) *float64 {
	if num == nil || den == nil || *den <= 0 {
		return nil
	}
	return float(Round3(*num / *den))
}

// Round3 rounds to three decimal places
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// ClassifyPower buckets the share of runs that came on home runs
func ClassifyPower(pct *float64) string {
	switch {
	case pct == nil:
		return Unknown
	case *pct >= 0.4:
		return PowerSlugging
	case *pct >= 0.3:
		return PowerPunchy
	case *pct >= 0.2:
		return PowerBalanced
	default:
		return PowerSmallBall
	}
}

// ClassifyPressure buckets stolen-base attempts per game
func ClassifyPressure(perGame *float64) string {
	switch {
	case perGame == nil:
		return Unknown
	case *perGame >= 1.2:
		return PressureRelentless
	case *perGame >= 0.8:
		return PressureAggressive
	case *perGame >= 0.4:
		return PressureSelective
	default:
		return PressureStation
	}
}

// ClassifyClutch buckets the share of RBI driven in with two outs
func ClassifyClutch(pct *float64) string {
	switch {
	case pct == nil:
		return Unknown
	case *pct >= 0.3:
		return ClutchMachine
	case *pct >= 0.2:
		return ClutchTimely
	case *pct >= 0.1:
		return ClutchOccasional
	default:
		return ClutchNeedsSpark
	}
}

// Sort orders rows by HR share, then stolen-base pressure, both descending
// with NA last. Team id breaks remaining ties.
func Sort(rows []models.TeamRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if c := compareDesc(rows[i].PctRunsViaHR, rows[j].PctRunsViaHR); c != 0 {
			return c < 0
		}
		if c := compareDesc(rows[i].SBAttPerGame, rows[j].SBAttPerGame); c != 0 {
			return c < 0
		}
		return rows[i].TeamID < rows[j].TeamID
	})
}

// compareDesc is negative when a sorts before b
func compareDesc(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a > *b:
		return -1
	case *a < *b:
		return 1
	}
	return 0
}

func float(v float64) *float64 {
	return &v
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
