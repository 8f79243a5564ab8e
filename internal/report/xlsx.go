package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the leaderboard
const SheetName = "Run Creation"

var profileColumns = []string{"power_profile", "pressure_profile", "clutch_profile"}

// ratio columns get a three-decimal number format
var ratioColumns = []string{"J", "L", "N"}

// WriteXLSX writes the rows, profiles included, to a workbook at path
func WriteXLSX(path string, rows []models.TeamRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, 0, len(Columns)+len(profileColumns))
	for _, col := range append(append([]string{}, Columns...), profileColumns...) {
		header = append(header, col)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			int(r.TeamID),
			r.TeamDisplay,
			cellValue(r.Games),
			cellValue(r.RunsScored),
			cellValue(r.HR),
			cellValue(r.RBI),
			cellValue(r.SB),
			cellValue(r.CS),
			cellValue(r.SBAttempts),
			cellValue(r.SBAttPerGame),
			cellValue(r.RBIOnHR),
			cellValue(r.PctRunsViaHR),
			cellValue(r.RBI2Out),
			cellValue(r.PctRBI2Out),
			r.PowerProfile,
			r.PressureProfile,
			r.ClutchProfile,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row for team %d: %w", r.TeamID, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	if len(rows) > 0 {
		numFmt := "0.000"
		ratioStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
		if err != nil {
			return fmt.Errorf("ratio style: %w", err)
		}
		last := len(rows) + 1
		for _, col := range ratioColumns {
			if err := f.SetCellStyle(SheetName, fmt.Sprintf("%s2", col), fmt.Sprintf("%s%d", col, last), ratioStyle); err != nil {
				return fmt.Errorf("apply ratio style: %w", err)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func cellValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
