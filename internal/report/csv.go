package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

// DefaultOutput is the CSV path relative to the base directory
const DefaultOutput = "out/csv_out/z_ABL_Run_Creation_Profile.csv"

// Columns is the CSV column order
var Columns = []string{
	"team_id",
	"team_display",
	"g",
	"runs_scored",
	"HR",
	"RBI",
	"SB",
	"CS",
	"sb_attempts",
	"sb_att_pg",
	"rbi_on_hr",
	"pct_runs_via_hr",
	"rbi_2out",
	"pct_rbi_2out",
}

// WriteCSV writes rows in Columns order. Missing values are left blank.
func WriteCSV(w io.Writer, rows []models.TeamRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(int(r.TeamID)),
			r.TeamDisplay,
			formatCell(r.Games),
			formatCell(r.RunsScored),
			formatCell(r.HR),
			formatCell(r.RBI),
			formatCell(r.SB),
			formatCell(r.CS),
			formatCell(r.SBAttempts),
			formatCell(r.SBAttPerGame),
			formatCell(r.RBIOnHR),
			formatCell(r.PctRunsViaHR),
			formatCell(r.RBI2Out),
			formatCell(r.PctRBI2Out),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for team %d: %w", r.TeamID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// TextPath maps a CSV output path to its text report path. A CSV inside a
// csv_out directory gets its report in the sibling txt_out directory;
// anywhere else the report sits next to the CSV.
func TextPath(csvPath string) string {
	dir := filepath.Dir(csvPath)
	name := strings.TrimSuffix(filepath.Base(csvPath), filepath.Ext(csvPath)) + ".txt"
	if strings.EqualFold(filepath.Base(dir), "csv_out") {
		dir = filepath.Join(filepath.Dir(dir), "txt_out")
	}
	return filepath.Join(dir, name)
}

// WriteFiles writes the CSV and text report, creating directories as needed.
// It returns the text report path.
func WriteFiles(csvPath string, rows []models.TeamRow) (string, error) {
	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, rows) }); err != nil {
		return "", err
	}
	textPath := TextPath(csvPath)
	if err := writeFile(textPath, func(w io.Writer) error {
		_, err := io.WriteString(w, Text(rows, DefaultTextLimit))
		return err
	}); err != nil {
		return "", err
	}
	return textPath, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
