package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/attribution"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/league"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/report"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/contracts"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
	"github.com/google/uuid"
)

// Source kinds recorded in Report.Sources
const (
	SourceRecord    = "record"
	SourceBatting   = "batting"
	SourceScoring   = "scoring"
	SourceLogs      = "logs"
	SourceNarration = "pbp"
	SourceAliases   = "aliases"
)

// Inputs locates the league exports. Empty overrides fall back to the
// candidate files under Base.
type Inputs struct {
	Base      string
	Record    string
	Batting   string
	Scoring   string
	Logs      string
	Narration string
	Teams     string
	Aliases   string
	Range     league.TeamRange
}

// Recorder receives engine and run measurements
type Recorder interface {
	attribution.Observer
	ObserveScan(d time.Duration, err error)
}

// Pipeline loads the exports, scans the narration, builds the report and
// hands it to every sink
type Pipeline struct {
	inputs   Inputs
	workers  int
	sinks    []contracts.ReportSink
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithWorkers scans games concurrently when n > 1
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithSinks appends report sinks
func WithSinks(sinks ...contracts.ReportSink) Option {
	return func(p *Pipeline) { p.sinks = append(p.sinks, sinks...) }
}

// WithRecorder attaches metrics
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline over the given inputs
func New(inputs Inputs, opts ...Option) *Pipeline {
	if inputs.Range == (league.TeamRange{}) {
		inputs.Range = league.DefaultTeamRange
	}
	p := &Pipeline{
		inputs:  inputs,
		workers: 1,
		logger:  slog.Default(),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Inputs returns the configured inputs
func (p *Pipeline) Inputs() Inputs {
	return p.inputs
}

// Run executes one full pass. Sink failures are logged and returned joined,
// after every sink has been tried; the report is returned either way.
func (p *Pipeline) Run(ctx context.Context) (*models.Report, error) {
	start := time.Now()
	rep, err := p.build(ctx)
	if p.recorder != nil {
		p.recorder.ObserveScan(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	p.logger.Info("run creation report built",
		"run_id", rep.RunID,
		"teams", len(rep.Rows),
		"duration", time.Since(start))

	return rep, p.deliver(ctx, rep)
}

func (p *Pipeline) build(ctx context.Context) (*models.Report, error) {
	in := p.inputs
	sources := make(map[string]string)

	relevant, err := league.LoadRelevantGameIDs(in.Base, in.Range)
	if err != nil {
		return nil, err
	}
	if relevant == nil {
		p.logger.Debug("no schedule found, scanning every game")
	}

	records, path, err := league.LoadRecord(in.Base, in.Record, in.Range)
	if err != nil {
		return nil, err
	}
	sources[SourceRecord] = path

	batting, path, err := league.LoadBatting(in.Base, in.Batting, in.Range)
	if err != nil {
		return nil, err
	}
	sources[SourceBatting] = path

	scoring, path, err := league.LoadScoring(in.Base, in.Scoring, in.Range)
	if err != nil {
		return nil, err
	}
	addSource(sources, SourceScoring, path)

	games, path, err := league.LoadPlayedGames(in.Base, in.Logs, in.Range)
	if err != nil {
		return nil, err
	}
	addSource(sources, SourceLogs, path)

	teams, names, err := league.LoadTeams(in.Base, in.Teams, in.Range)
	if err != nil {
		return nil, err
	}
	if in.Aliases != "" {
		aliases, err := league.LoadAliases(in.Aliases)
		if err != nil {
			return nil, err
		}
		added := aliases.Apply(names, in.Range)
		p.logger.Debug("applied team aliases", "path", in.Aliases, "added", added)
		sources[SourceAliases] = in.Aliases
	}

	tallies, path, err := p.scanNarration(ctx, names, relevant)
	if err != nil {
		return nil, err
	}
	addSource(sources, SourceNarration, path)

	rows := report.Build(report.Inputs{
		Records:   records,
		Batting:   batting,
		Scoring:   scoring,
		Games:     games,
		Teams:     teams,
		Narration: tallies,
	})

	return &models.Report{
		RunID:       p.newID(),
		GeneratedAt: p.now().UTC(),
		Sources:     sources,
		Rows:        rows,
		Tallies:     teamTallies(tallies, in.Range),
	}, nil
}

// scanNarration returns nil tallies when no play-by-play export exists or
// no team names are known, so the report keeps the scoring splits
func (p *Pipeline) scanNarration(ctx context.Context, names attribution.NameMap, relevant map[string]struct{}) (attribution.Tallies, string, error) {
	lines, path, err := league.LoadNarration(p.inputs.Base, p.inputs.Narration)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		p.logger.Warn("no play-by-play export found, using scoring splits")
		return nil, "", nil
	}
	if len(names) == 0 {
		p.logger.Warn("no team names loaded, using scoring splits", "path", path)
		return nil, path, nil
	}

	opts := []attribution.Option{
		attribution.WithRelevantGames(relevant),
		attribution.WithLogger(p.logger),
	}
	if p.recorder != nil {
		opts = append(opts, attribution.WithObserver(p.recorder))
	}
	engine := attribution.New(names, opts...)

	var tallies attribution.Tallies
	if p.workers > 1 {
		tallies, err = engine.ScanParallel(ctx, lines, p.workers)
		if err != nil {
			return nil, "", err
		}
	} else {
		tallies = engine.Scan(lines)
	}
	if tallies == nil {
		tallies = attribution.Tallies{}
	}

	p.logger.Debug("scanned play-by-play",
		"path", path,
		"lines", len(lines),
		"teams", len(tallies),
		"workers", p.workers)
	return tallies, path, nil
}

func (p *Pipeline) deliver(ctx context.Context, rep *models.Report) error {
	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Deliver(ctx, rep); err != nil {
			p.logger.Error("report delivery failed", "sink", sink.Name(), "run_id", rep.RunID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		p.logger.Debug("report delivered", "sink", sink.Name(), "run_id", rep.RunID)
	}
	return errors.Join(errs...)
}

// teamTallies flattens tallies in team order, keeping league clubs only
func teamTallies(tallies attribution.Tallies, r league.TeamRange) []models.TeamTally {
	out := make([]models.TeamTally, 0, len(tallies))
	for id, t := range tallies {
		if r.Contains(id) {
			out = append(out, models.TeamTally{TeamID: id, RunTally: t})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

func addSource(sources map[string]string, kind, path string) {
	if path != "" {
		sources[kind] = path
	}
}
