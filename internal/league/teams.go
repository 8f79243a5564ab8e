package league

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/attribution"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

// TeamInfo is one club from the team info export
type TeamInfo struct {
	TeamID   models.TeamID
	Display  string
	Nickname string
	Abbr     string
}

// Labels returns every textual key the club may appear under in narration
func (t TeamInfo) Labels() []string {
	labels := []string{t.Display, t.Nickname, t.Abbr}
	if t.Display != "" && t.Nickname != "" {
		labels = append(labels, t.Display+" "+t.Nickname)
	}
	return labels
}

// LoadTeams reads the team info export and builds the label map used to
// resolve half-inning headers. A missing file yields no teams and an empty
// map, not an error: narration then simply cannot be attributed.
func LoadTeams(base, override string, r TeamRange) ([]TeamInfo, attribution.NameMap, error) {
	names := make(attribution.NameMap)

	table, err := ReadFirst(base, override, TeamInfoCandidates)
	if errors.Is(err, ErrSourceNotFound) {
		return nil, names, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load team info: %w", err)
	}

	idCol := table.PickColumn(teamIDColumns...)
	nameCol := table.PickColumn(teamNameColumns...)
	if idCol < 0 || nameCol < 0 {
		return nil, names, nil
	}
	nickCol := table.PickColumn("nickname")
	abbrCol := table.PickColumn("abbr", "abbreviation", "team_abbr")

	var teams []TeamInfo
	for _, row := range table.Rows {
		id, ok := TeamIDAt(row, idCol)
		if !ok || !r.Contains(id) {
			continue
		}
		info := TeamInfo{
			TeamID:   id,
			Display:  Cell(row, nameCol),
			Nickname: Cell(row, nickCol),
			Abbr:     Cell(row, abbrCol),
		}
		teams = append(teams, info)
		for _, label := range info.Labels() {
			names.Add(label, id)
		}
	}
	return teams, names, nil
}

// AliasFile is the TOML layout of extra header labels:
//
//	[[team]]
//	id = 3
//	aliases = ["River City", "RC"]
type AliasFile struct {
	Teams []TeamAliases `toml:"team"`
}

// TeamAliases lists additional labels for one club
type TeamAliases struct {
	ID      int      `toml:"id"`
	Aliases []string `toml:"aliases"`
}

// LoadAliases decodes an alias file
func LoadAliases(path string) (AliasFile, error) {
	var file AliasFile
	meta, err := toml.DecodeFile(path, &file)
	if err != nil {
		return AliasFile{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("team") {
		return AliasFile{}, fmt.Errorf("%s: missing [[team]] entries", path)
	}
	for i, team := range file.Teams {
		if team.ID == 0 {
			return AliasFile{}, fmt.Errorf("%s: team entry %d has no id", path, i+1)
		}
	}
	return file, nil
}

// Apply merges the aliases into names, overriding earlier keys.
// Ids outside r are ignored.
func (f AliasFile) Apply(names attribution.NameMap, r TeamRange) int {
	added := 0
	for _, team := range f.Teams {
		id := models.TeamID(team.ID)
		if !r.Contains(id) {
			continue
		}
		for _, alias := range team.Aliases {
			if strings.TrimSpace(alias) == "" {
				continue
			}
			names.Add(alias, id)
			added++
		}
	}
	return added
}
