package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/fatih/color"
)

// PreviewRows is how many rows the terminal preview shows
const PreviewRows = 12

var (
	headerColor  = color.New(color.Bold)
	naColor      = color.New(color.Faint)
	profileColor = map[string]*color.Color{
		PowerSlugging:      color.New(color.FgRed, color.Bold),
		PowerPunchy:        color.New(color.FgYellow),
		PressureRelentless: color.New(color.FgGreen, color.Bold),
		PressureAggressive: color.New(color.FgGreen),
		ClutchMachine:      color.New(color.FgCyan, color.Bold),
		ClutchTimely:       color.New(color.FgCyan),
	}
)

// Preview prints the top rows as an aligned, coloured table. Colour follows
// color.NoColor, so redirected output stays plain.
func Preview(w io.Writer, rows []models.TeamRow) {
	headerColor.Fprintf(w, "Run Creation Profile (top %d):\n", PreviewRows)
	headerColor.Fprintln(w, tableLine("Team", "Power", "Pressure", "Clutch", "HR%", "SB Att/G", "2-out RBI%"))

	if len(rows) > PreviewRows {
		rows = rows[:PreviewRows]
	}
	for _, r := range rows {
		cells := padCells([]string{
			r.DisplayName(),
			r.PowerProfile,
			r.PressureProfile,
			r.ClutchProfile,
			FormatRatio(r.PctRunsViaHR),
			FormatRatio(r.SBAttPerGame),
			FormatRatio(r.PctRBI2Out),
		})
		// colour after padding; escape codes would skew the widths
		for i := 1; i < len(cells); i++ {
			if c, ok := profileColor[strings.TrimSpace(cells[i])]; ok && i < 4 {
				cells[i] = c.Sprint(cells[i])
			} else if strings.TrimSpace(cells[i]) == Unknown || strings.TrimSpace(cells[i]) == "NA" {
				cells[i] = naColor.Sprint(cells[i])
			}
		}
		fmt.Fprintln(w, strings.Join(cells, " "))
	}
}
