package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHomeRunRuns(t *testing.T) {
	assert.Equal(t, 4, HomeRunRuns("z: grand slam home run"))
	assert.Equal(t, 3, HomeRunRuns("z: 3-run home run to right"))
	assert.Equal(t, 2, HomeRunRuns("two-run shot, 2-run home run"))
	assert.Equal(t, 1, HomeRunRuns("solo home run"))
	assert.Equal(t, 1, HomeRunRuns("home run"))
	// grand slam wins over an explicit count
	assert.Equal(t, 4, HomeRunRuns("grand slam (4-run home run)"))
	// a count too large for an int falls back to one
	assert.Equal(t, 1, HomeRunRuns("ruiz: 99999999999999999999-run home run"))
}

func TestOutsDelta(t *testing.T) {
	tests := map[string]int{
		"x: lines into a triple play": 3,
		"x: grounds into double play": 2,
		"x: ground out to short":      1,
		"x: grounds out to second":    1,
		"x: hits a fly out to center": 1,
		"x: strikes out swinging":     1,
		"x: caught looking":           1,
		"x: sac fly to right":         1,
		"x: sacrifice bunt":           1,
		"runner is caught stealing":   1,
		"x: picked off first":         1,
		"x: fielders choice":          1,
		"x: singles to left":          0,
		"x: walks":                    0,
		// leading space matters for the fly/line/pop/foul family
		"x:fly out": 0,
	}
	for text, want := range tests {
		assert.Equal(t, want, OutsDelta(text), text)
	}
}

func TestRBIEligible(t *testing.T) {
	eligible := []string{
		"x: singles to left",
		"x: doubles down the line",
		"x: walks",
		"x: hit by pitch",
		"x: sacrifice fly",
		"x: ground out to short",
		"x: fielders choice",
	}
	for _, text := range eligible {
		assert.True(t, RBIEligible(text), text)
	}

	ineligible := []string{
		"x: strikes out",
		"x: reaches on error, singles",
		"x: wild pitch",
		"x: passed ball",
		"x: balk",
		"x: pop out to first",
	}
	for _, text := range ineligible {
		assert.False(t, RBIEligible(text), text)
	}
}

func TestScoringCreditAllowed(t *testing.T) {
	assert.True(t, ScoringCreditAllowed("d scores"))
	assert.False(t, ScoringCreditAllowed("d scores on wild pitch"))
	assert.False(t, ScoringCreditAllowed("d scores on passed ball"))
	assert.False(t, ScoringCreditAllowed("d scores (pb)"))
	assert.False(t, ScoringCreditAllowed("d scores on throwing error"))
	assert.False(t, ScoringCreditAllowed("d scores on the balk"))
}
