package attribution

import (
	"regexp"
	"strings"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"golang.org/x/text/cases"
)

// NameMap maps normalized team labels to team ids.
// One team usually has several keys: city+nickname, city, nickname, abbreviation.
type NameMap map[string]models.TeamID

// Add registers a label for a team. Blank labels are ignored.
func (m NameMap) Add(label string, id models.TeamID) {
	key := NormalizeLabel(label)
	if key == "" {
		return
	}
	m[key] = id
}

// NormalizeLabel case-folds a label and collapses internal whitespace
func NormalizeLabel(label string) string {
	// Caser values are stateful, so each call gets its own
	folded := cases.Fold().String(label)
	return strings.Join(strings.Fields(folded), " ")
}

// Resolve looks up a free-text team label
func Resolve(label string, names NameMap) (models.TeamID, bool) {
	key := NormalizeLabel(label)
	if key == "" {
		return 0, false
	}
	id, ok := names[key]
	return id, ok
}

// headerLabelPattern captures the team between the first dash and "batting"
var headerLabelPattern = regexp.MustCompile(`(?i)[-–—]\s*(.+?)\s+batting`)

// HeaderLabel extracts the team label from a half-inning header line,
// e.g. "Top of the 3rd - Atlanta Emperors batting" -> "Atlanta Emperors".
func HeaderLabel(text string) string {
	match := headerLabelPattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
