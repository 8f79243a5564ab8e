package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

// Team ids used across fixtures
const (
	AtlantaID  models.TeamID = 1
	MetroID    models.TeamID = 2
	RiverID    models.TeamID = 3
	HarborID   models.TeamID = 4
	UnknownID  models.TeamID = 99
	GameOneID                = "g-1001"
	GameTwoID                = "g-1002"
	GameSkipID               = "g-9999"
)

// TeamLabels returns the raw labels each fixture team answers to
func TeamLabels() map[models.TeamID][]string {
	return map[models.TeamID][]string{
		AtlantaID: {"Atlanta Emperors", "Atlanta", "Emperors"},
		MetroID:   {"Metro Giants", "Metro", "Giants"},
		RiverID:   {"River City", "River City Rafters", "Rafters"},
		HarborID:  {"Harbor Town Gulls", "Harbor Town", "Gulls"},
	}
}

// GameLineFixture creates a narration line with sensible defaults
func GameLineFixture(overrides ...func(*models.GameLine)) models.GameLine {
	line := models.GameLine{
		GameID:   GameOneID,
		Sequence: 0,
		Inning:   1,
		Half:     "top",
		Text:     "Smith: ground out",
	}

	for _, override := range overrides {
		override(&line)
	}

	return line
}

// Lines turns narration texts into ordered lines of a single game
func Lines(gameID string, texts ...string) []models.GameLine {
	lines := make([]models.GameLine, 0, len(texts))
	for i, text := range texts {
		lines = append(lines, GameLineFixture(func(l *models.GameLine) {
			l.GameID = gameID
			l.Sequence = i
			l.Text = text
		}))
	}
	return lines
}

// WriteFile writes content under dir and returns the full path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Float returns a pointer to v, for building expected report rows
func Float(v float64) *float64 {
	return &v
}
