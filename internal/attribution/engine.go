package attribution

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"golang.org/x/sync/errgroup"
)

// Tallies maps each team to its recovered run totals
type Tallies map[models.TeamID]models.RunTally

// Merge adds every tally in o into t
func (t Tallies) Merge(o Tallies) {
	for id, tally := range o {
		t[id] = t[id].Add(tally)
	}
}

// Observer receives per-line notifications, e.g. for metrics.
// Implementations must be safe for concurrent use when ScanParallel is used.
type Observer interface {
	ObserveLine(kind EventKind)
	ObserveUnresolvedHeader(label string)
}

// Engine reduces ordered narration lines into per-team run tallies
type Engine struct {
	names    NameMap
	relevant map[string]struct{}
	observer Observer
	logger   *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithRelevantGames restricts scanning to the given game ids.
// A nil set disables the filter; an empty set skips every game.
func WithRelevantGames(ids map[string]struct{}) Option {
	return func(e *Engine) {
		e.relevant = ids
	}
}

// WithObserver attaches a line observer
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the logger used for unresolved header diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine resolving header labels through names
func New(names NameMap, opts ...Option) *Engine {
	e := &Engine{
		names:  names,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Accumulator is the streaming form of Scan: feed lines in order, read the
// tallies at the end. It keeps one HalfInningContext per game and resets it
// whenever the game id changes.
type Accumulator struct {
	engine  *Engine
	gameID  string
	started bool
	context HalfInningContext
	tallies Tallies
}

// NewAccumulator starts an empty scan
func (e *Engine) NewAccumulator() *Accumulator {
	return &Accumulator{engine: e, tallies: make(Tallies)}
}

// Feed consumes the next line of the stream
func (a *Accumulator) Feed(line models.GameLine) {
	e := a.engine
	if e.relevant != nil {
		if _, ok := e.relevant[line.GameID]; !ok {
			return
		}
	}

	if !a.started || line.GameID != a.gameID {
		a.started = true
		a.gameID = line.GameID
		a.context = HalfInningContext{}
	}

	ev := Classify(line.Text)
	if e.observer != nil {
		e.observer.ObserveLine(ev.Kind)
	}

	next, credit := Advance(a.context, ev, e.names)
	if ev.Kind == KindHalfInningHeader && !next.Resolved {
		e.logger.Debug("unresolved half-inning header",
			"game_id", line.GameID,
			"sequence", line.Sequence,
			"label", ev.Label)
		if e.observer != nil {
			e.observer.ObserveUnresolvedHeader(ev.Label)
		}
	}
	a.context = next
	a.apply(credit)
}

func (a *Accumulator) apply(c Credit) {
	switch c.Kind {
	case CreditHomeRun:
		t := a.tallies[c.TeamID]
		t.HRRuns += c.Runs
		if c.TwoOut {
			t.HRTwoOutRuns += c.Runs
		}
		a.tallies[c.TeamID] = t
	case CreditTwoOutRun:
		t := a.tallies[c.TeamID]
		t.TwoOutRuns += c.Runs
		a.tallies[c.TeamID] = t
	}
}

// Context returns the current half-inning context
func (a *Accumulator) Context() HalfInningContext {
	return a.context
}

// Tallies returns the totals accumulated so far
func (a *Accumulator) Tallies() Tallies {
	return a.tallies
}

// Scan reduces the whole stream sequentially
func (e *Engine) Scan(lines []models.GameLine) Tallies {
	acc := e.NewAccumulator()
	for _, line := range lines {
		acc.Feed(line)
	}
	return acc.Tallies()
}

// ScanParallel splits the stream by game and scans games concurrently on at
// most workers goroutines. Lines keep their in-game order; per-game results
// are merged once every worker is done, so the totals equal Scan's.
func (e *Engine) ScanParallel(ctx context.Context, lines []models.GameLine, workers int) (Tallies, error) {
	games := groupByGame(e.filterRelevant(lines))
	if workers < 1 {
		workers = 1
	}

	results := make([]Tallies, len(games))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(workers, max(len(games), 1)))

	for i, game := range games {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = e.Scan(game)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan games: %w", err)
	}

	total := make(Tallies)
	for _, r := range results {
		total.Merge(r)
	}
	return total, nil
}

// filterRelevant drops lines outside the relevant games, so lines of one game
// separated only by skipped games stay a single run as they do in Feed
func (e *Engine) filterRelevant(lines []models.GameLine) []models.GameLine {
	if e.relevant == nil {
		return lines
	}
	kept := make([]models.GameLine, 0, len(lines))
	for _, line := range lines {
		if _, ok := e.relevant[line.GameID]; ok {
			kept = append(kept, line)
		}
	}
	return kept
}

// groupByGame buckets lines per game in first-seen order.
// A game whose lines reappear later in the stream is treated as a new game,
// matching the sequential reset-on-change behaviour.
func groupByGame(lines []models.GameLine) [][]models.GameLine {
	var games [][]models.GameLine
	start := 0
	for i := 1; i <= len(lines); i++ {
		if i == len(lines) || lines[i].GameID != lines[start].GameID {
			games = append(games, lines[start:i])
			start = i
		}
	}
	return games
}
