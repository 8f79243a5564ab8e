package report

import (
	"fmt"
	"strings"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/mattn/go-runewidth"
)

// DefaultTextLimit caps the text report at one line per league club
const DefaultTextLimit = 24

const title = "ABL Run Creation Profile"

var blurb = []string{
	"Breaks down how each lineup manufactures runs: long ball share, stolen-base pressure, and two-out conversion rate.",
	"Great for spotting clubs that live on slugging versus those who pressure defenses or cash in late-inning chances.",
}

var key = []string{
	"Key:",
	"  HR% uses explicit HR RBIs parsed from game logs; SB Att/G = (SB+CS)/G.",
	"  PWR Slugging >=40%, Punchy 30-39%, Balanced 20-29%, Small-ball <20%.",
	"  SPD Relentless >=1.20 att/G, Aggressive 0.80-1.19, Selective 0.40-0.79, Station-to-Station <0.40.",
	"  CLT Two-out Machine >=30%, Timely 20-29%, Occasional 10-19%, Needs Spark <10%.",
	"Definition: HR% is runs via HR / total runs; SB pressure measures attempts per game; 2-out RBI% shows production after two outs.",
}

// column widths: team, power, pressure, clutch, HR%, SB Att/G, 2-out RBI%
var widths = [7]int{22, 16, 16, 16, 7, 9, 11}

// Text renders the plain-text report for the first limit rows
func Text(rows []models.TeamRow, limit int) string {
	lines := []string{title, strings.Repeat("=", 28), ""}
	lines = append(lines, blurb...)
	lines = append(lines, "")

	header := tableLine("Team", "Power", "Pressure", "Clutch", "HR%", "SB Att/G", "2-out RBI%")
	lines = append(lines, header, strings.Repeat("-", runewidth.StringWidth(header)))

	if len(rows) > limit {
		rows = rows[:limit]
	}
	if len(rows) == 0 {
		lines = append(lines, "(No data available.)")
	}
	for _, r := range rows {
		lines = append(lines, tableLine(
			r.DisplayName(),
			r.PowerProfile,
			r.PressureProfile,
			r.ClutchProfile,
			FormatRatio(r.PctRunsViaHR),
			FormatRatio(r.SBAttPerGame),
			FormatRatio(r.PctRBI2Out),
		))
	}

	lines = append(lines, "")
	lines = append(lines, key...)
	return strings.Join(lines, "\n")
}

// FormatRatio prints a ratio with three decimals, or NA
func FormatRatio(v *float64) string {
	if v == nil {
		return "NA"
	}
	return fmt.Sprintf("%.3f", *v)
}

func tableLine(cells ...string) string {
	return strings.Join(padCells(cells), " ")
}

// padCells left-aligns the four text columns and right-aligns the ratios.
// Padding is by display width so accented club names stay aligned.
func padCells(cells []string) []string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		if i < 4 {
			parts[i] = runewidth.FillRight(cell, widths[i])
		} else {
			parts[i] = runewidth.FillLeft(cell, widths[i])
		}
	}
	return parts
}
