package attribution

import "strings"

// EventKind tags a classified narration line
type EventKind int

const (
	KindContinuation EventKind = iota
	KindHalfInningHeader
	KindHomeRun
	KindTerminalPlay
	KindNonCredit
	KindScoring
)

var kindNames = [...]string{
	KindContinuation:     "continuation",
	KindHalfInningHeader: "half_inning_header",
	KindHomeRun:          "home_run",
	KindTerminalPlay:     "terminal_play",
	KindNonCredit:        "non_credit",
	KindScoring:          "scoring",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds lists every event kind in classifier priority order
func Kinds() []EventKind {
	return []EventKind{
		KindHalfInningHeader,
		KindHomeRun,
		KindTerminalPlay,
		KindNonCredit,
		KindScoring,
		KindContinuation,
	}
}

// LineEvent is the classification of a single narration line.
// Only the fields relevant to Kind are set.
type LineEvent struct {
	Kind EventKind

	// KindHalfInningHeader
	Label string

	// KindHomeRun
	Runs int

	// KindTerminalPlay
	RBIEligible bool
	OutsDelta   int

	// KindScoring
	CreditAllowed bool
}

// Classify tags one narration line. The first matching rule wins and the
// order below is part of the contract: a "Q: wild pitch" line is a terminal
// play, not a non-credit event, because it carries the colon shape.
func Classify(raw string) LineEvent {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	if (strings.Contains(lower, "top of the") || strings.Contains(lower, "bottom of the")) &&
		strings.Contains(lower, "batting") {
		return LineEvent{Kind: KindHalfInningHeader, Label: HeaderLabel(text)}
	}

	if strings.Contains(lower, "home run") {
		return LineEvent{Kind: KindHomeRun, Runs: HomeRunRuns(lower)}
	}

	if isFinalPlay(text) {
		return LineEvent{
			Kind:        KindTerminalPlay,
			RBIEligible: RBIEligible(lower),
			OutsDelta:   OutsDelta(lower),
		}
	}

	if containsAny(lower, nonCreditKeywords) {
		return LineEvent{Kind: KindNonCredit}
	}

	if isScoringLine(lower) {
		return LineEvent{Kind: KindScoring, CreditAllowed: ScoringCreditAllowed(lower)}
	}

	return LineEvent{Kind: KindContinuation}
}

func isScoringLine(lower string) bool {
	if strings.Contains(lower, "scores") {
		return true
	}
	return strings.Contains(lower, "runner from 3rd") &&
		(strings.Contains(lower, "safe") || strings.Contains(lower, "scores"))
}
