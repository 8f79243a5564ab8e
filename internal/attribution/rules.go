package attribution

import (
	"regexp"
	"strconv"
	"strings"
)

// Keyword tables. Callers pass lower-cased text.
var (
	outKeywords = []string{
		" fly out",
		" line out",
		" pop out",
		" foul out",
		"ground out",
		"grounds out",
		"strike out",
		"strikes out",
		"caught looking",
		"fielders choice",
		"sacrifice fly",
		"sacrifice bunt",
		"sac fly",
		"infield fly",
		"bunt out",
		"is caught stealing",
		"picked off",
	}

	rbiDisqualifiers = []string{"error", "wild pitch", "passed ball", "balk"}

	rbiQualifiers = []string{
		"single",
		"double",
		"triple",
		"home run",
		"walk",
		"hit by pitch",
		"sacrifice",
		"ground out",
		"fly out",
		"line out",
		"fielders choice",
	}

	// "pb" is the scorer's shorthand for a passed ball
	scoringDisqualifiers = []string{"wild pitch", "passed ball", "error", "balk", "pb"}

	nonCreditKeywords = []string{"wild pitch", "passed ball", "balk"}

	nonResultPrefixes = []string{
		"ball",
		"called strike",
		"swinging strike",
		"foul ball",
		"bunts foul",
		"timeout",
		"pickoff attempt",
		"throw over",
		"defensive",
	}
)

var runCountPattern = regexp.MustCompile(`(\d+)-run`)

// HomeRunRuns returns how many runs a home run line drove in
func HomeRunRuns(lower string) int {
	if strings.Contains(lower, "grand slam") {
		return 4
	}
	if match := runCountPattern.FindStringSubmatch(lower); match != nil {
		if n, err := strconv.Atoi(match[1]); err == nil {
			return n
		}
		return 1
	}
	// solo shots and unlabelled home runs both count one
	return 1
}

// OutsDelta returns the outs recorded by a terminal play
func OutsDelta(lower string) int {
	switch {
	case strings.Contains(lower, "triple play"):
		return 3
	case strings.Contains(lower, "double play"):
		return 2
	case containsAny(lower, outKeywords):
		return 1
	default:
		return 0
	}
}

// RBIEligible reports whether a run scoring on this play counts as driven in
func RBIEligible(lower string) bool {
	if containsAny(lower, rbiDisqualifiers) {
		return false
	}
	return containsAny(lower, rbiQualifiers)
}

// ScoringCreditAllowed reports whether the scoring line itself permits credit
func ScoringCreditAllowed(lower string) bool {
	return !containsAny(lower, scoringDisqualifiers)
}

// isFinalPlay reports whether a line resolves an at-bat or base-running event.
// The text must carry a "name: detail" shape with a detail that is not pitch
// commentary.
func isFinalPlay(text string) bool {
	if !strings.Contains(text, ": ") {
		return false
	}
	_, detail, _ := strings.Cut(text, ":")
	detail = strings.ToLower(strings.TrimSpace(detail))
	if detail == "" {
		return false
	}
	for _, prefix := range nonResultPrefixes {
		if strings.HasPrefix(detail, prefix) {
			return false
		}
	}
	return true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
