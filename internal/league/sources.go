package league

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

var (
	// ErrSourceNotFound is returned when no candidate file exists
	ErrSourceNotFound = errors.New("source not found")

	// ErrColumnMissing is returned when a required column has no synonym in the header
	ErrColumnMissing = errors.New("column missing")
)

// Candidate filenames per input, tried in order
var (
	RecordCandidates = []string{
		"team_record.csv",
		"team_season.csv",
		"team_totals.csv",
		"teams_season.csv",
		"standings.csv",
	}
	BattingCandidates = []string{
		"team_batting.csv",
		"teams_batting.csv",
		"team_batting_stats.csv",
		"teams_batting_stats.csv",
		"batting_team_totals.csv",
	}
	ScoringCandidates = []string{
		"team_scoring.csv",
		"batting_splits_situational.csv",
		"team_run_scoring.csv",
	}
	TeamInfoCandidates = []string{
		"team_info.csv",
		"teams.csv",
	}
	LogCandidates = []string{
		"team_game_log.csv",
		"teams_game_log.csv",
		"game_log_team.csv",
		"team_log.csv",
		"schedule_results.csv",
	}
	NarrationCandidates = []string{"game_logs.csv"}
)

// Column synonyms shared by several tables
var teamIDColumns = []string{"team_id", "teamid", "teamID", "TeamID"}
var teamNameColumns = []string{"team_display", "team_name", "name", "TeamName"}

// TeamRange bounds the team ids that belong to the league
type TeamRange struct {
	Min models.TeamID
	Max models.TeamID
}

// DefaultTeamRange covers the 24-club league
var DefaultTeamRange = TeamRange{Min: 1, Max: 24}

// Contains reports whether id lies inside the range
func (r TeamRange) Contains(id models.TeamID) bool {
	return id >= r.Min && id <= r.Max
}

// IDs lists every id in the range in ascending order
func (r TeamRange) IDs() []models.TeamID {
	var ids []models.TeamID
	for id := r.Min; id <= r.Max; id++ {
		ids = append(ids, id)
	}
	return ids
}

// ResolveSource picks the input file. An override must exist; otherwise the
// first candidate present under base wins.
func ResolveSource(base, override string, candidates []string) (string, error) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", fmt.Errorf("specified file not found: %s: %w", override, err)
		}
		return override, nil
	}
	for _, name := range candidates {
		path := filepath.Join(base, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s in %s", ErrSourceNotFound, strings.Join(candidates, ", "), base)
}

// Table is a fully loaded CSV export
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// ReadTable loads a CSV file with a header row
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := newCSVReader(f)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Table{Path: path}, nil
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	table := &Table{Path: path, Header: trimAll(header)}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}

// ReadFirst resolves and loads a table in one step
func ReadFirst(base, override string, candidates []string) (*Table, error) {
	path, err := ResolveSource(base, override, candidates)
	if err != nil {
		return nil, err
	}
	return ReadTable(path)
}

// PickColumn returns the index of the first synonym present in the header,
// compared case-insensitively, or -1.
func (t *Table) PickColumn(names ...string) int {
	lowered := make(map[string]int, len(t.Header))
	for i, col := range t.Header {
		key := strings.ToLower(col)
		if _, seen := lowered[key]; !seen {
			lowered[key] = i
		}
	}
	for _, name := range names {
		if i, ok := lowered[strings.ToLower(name)]; ok {
			return i
		}
	}
	return -1
}

// RequireColumn is PickColumn returning ErrColumnMissing when nothing matches
func (t *Table) RequireColumn(names ...string) (int, error) {
	i := t.PickColumn(names...)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s in %s", ErrColumnMissing, names[0], t.Path)
	}
	return i, nil
}

// Cell returns the trimmed value at col, or "" when the row is short or col < 0
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Number parses a numeric cell. Blank and non-numeric values are missing,
// mirroring a coercing numeric conversion.
func Number(row []string, col int) *float64 {
	s := Cell(row, col)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// TeamIDAt parses a team id cell; "7" and "7.0" are both accepted
func TeamIDAt(row []string, col int) (models.TeamID, bool) {
	v := Number(row, col)
	if v == nil || *v != float64(int64(*v)) {
		return 0, false
	}
	return models.TeamID(int64(*v)), true
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false
	return reader
}

func trimAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(strings.TrimPrefix(v, "\ufeff"))
	}
	return out
}
