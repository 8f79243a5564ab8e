package contracts

import (
	"context"

	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/models"
)

// ReportSink is the pluggable interface for delivering completed reports.
// The pipeline fans every report out to all configured sinks.
type ReportSink interface {
	// Name identifies the sink in logs ("redis-cache", "postgres", ...)
	Name() string

	// Deliver hands over one report. Sinks must not modify it.
	Deliver(ctx context.Context, report *models.Report) error
}

// ReportReader serves cached reports to the API
type ReportReader interface {
	ReadLatest(ctx context.Context) (*models.Report, error)
	ReadReport(ctx context.Context, runID string) (*models.Report, error)
	RecentRuns(ctx context.Context) ([]string, error)
}

// NewSink adapts a plain function to ReportSink
func NewSink(name string, deliver func(context.Context, *models.Report) error) ReportSink {
	return funcSink{name: name, deliver: deliver}
}

type funcSink struct {
	name    string
	deliver func(context.Context, *models.Report) error
}

func (s funcSink) Name() string { return s.name }

func (s funcSink) Deliver(ctx context.Context, report *models.Report) error {
	return s.deliver(ctx, report)
}
