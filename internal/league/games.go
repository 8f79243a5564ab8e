package league

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// GamesFile is the schedule export used to pick the games worth scanning
const GamesFile = "games.csv"

// LoadRelevantGameIDs returns the ids of played games involving at least one
// league club. A nil set (and nil error) means no schedule was found and
// every game should be scanned.
func LoadRelevantGameIDs(base string, r TeamRange) (map[string]struct{}, error) {
	path := filepath.Join(base, GamesFile)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	table, err := ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}

	var cols [4]int
	for i, name := range []string{"game_id", "home_team", "away_team", "played"} {
		col, err := table.RequireColumn(name)
		if err != nil {
			return nil, fmt.Errorf("load games: %w", err)
		}
		cols[i] = col
	}
	idCol, homeCol, awayCol, playedCol := cols[0], cols[1], cols[2], cols[3]

	ids := make(map[string]struct{})
	for _, row := range table.Rows {
		played := Number(row, playedCol)
		if played == nil || *played != 1 {
			continue
		}
		home, homeOK := TeamIDAt(row, homeCol)
		away, awayOK := TeamIDAt(row, awayCol)
		if (homeOK && r.Contains(home)) || (awayOK && r.Contains(away)) {
			ids[Cell(row, idCol)] = struct{}{}
		}
	}
	return ids, nil
}
