package attribution

import "github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"

// PendingCredit is the last play that could explain an upcoming scoring line
type PendingCredit struct {
	TeamID      models.TeamID
	OutsAtPlay  int
	RBIEligible bool
}

// HalfInningContext is the scoring context reconstructed for one half-inning.
// The zero value is the Unresolved state.
type HalfInningContext struct {
	Resolved    bool
	BattingTeam models.TeamID
	Outs        int // unclamped; only a header resets it
	Pending     *PendingCredit
}

// CreditKind tags what a transition asks the engine to record
type CreditKind int

const (
	CreditNone CreditKind = iota
	CreditHomeRun
	CreditTwoOutRun
)

// Credit is emitted by a transition and applied to the team tallies
type Credit struct {
	Kind   CreditKind
	TeamID models.TeamID
	Runs   int
	TwoOut bool // home runs only: hit with two or more outs
}

// Advance applies one classified line to the context and returns the next
// context plus any credit to record. The input context is not modified.
func Advance(hc HalfInningContext, ev LineEvent, names NameMap) (HalfInningContext, Credit) {
	if ev.Kind == KindHalfInningHeader {
		id, ok := Resolve(ev.Label, names)
		if !ok {
			return HalfInningContext{}, Credit{}
		}
		return HalfInningContext{Resolved: true, BattingTeam: id}, Credit{}
	}

	// Lines outside a resolved half-inning cannot be attributed
	if !hc.Resolved {
		return hc, Credit{}
	}

	switch ev.Kind {
	case KindHomeRun:
		credit := Credit{
			Kind:   CreditHomeRun,
			TeamID: hc.BattingTeam,
			Runs:   ev.Runs,
			TwoOut: hc.Outs >= 2,
		}
		hc.Pending = nil
		return hc, credit

	case KindTerminalPlay:
		hc.Pending = &PendingCredit{
			TeamID:      hc.BattingTeam,
			OutsAtPlay:  hc.Outs,
			RBIEligible: ev.RBIEligible,
		}
		hc.Outs += ev.OutsDelta
		return hc, Credit{}

	case KindNonCredit:
		hc.Pending = &PendingCredit{
			TeamID:     hc.BattingTeam,
			OutsAtPlay: hc.Outs,
		}
		return hc, Credit{}

	case KindScoring:
		// pending survives: one play can score several runners
		p := hc.Pending
		if p != nil && p.RBIEligible && ev.CreditAllowed && p.OutsAtPlay >= 2 {
			return hc, Credit{Kind: CreditTwoOutRun, TeamID: p.TeamID, Runs: 1}
		}
		return hc, Credit{}
	}

	return hc, Credit{}
}
