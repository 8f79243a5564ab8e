package main

import (
	"errors"
	"fmt"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/cache"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/pipeline"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/run-creation/internal/report"
	"github.com/XavierBriggs/fortuna/services/run-creation/pkg/contracts"
	"github.com/spf13/cobra"
)

type scanFlags struct {
	base, record, batting, scoring string
	logs, pbp, teams, aliases      string
	out, xlsx                      string
	workers                        int
	publish, quiet                 bool
}

func newScanCmd(a *app) *cobra.Command {
	f := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Build the Run Creation Profile from league exports",
		Long: `scan loads the league exports under --base, attributes home-run and
two-out runs from the play-by-play narration and writes the CSV and text
reports. Individual files can be overridden with the per-file flags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runScan(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.base, "base", "", "directory holding the league exports (default $RUNCREATION_INPUT_BASE or .)")
	flags.StringVar(&f.record, "record", "", "team record file")
	flags.StringVar(&f.batting, "batting", "", "team batting file")
	flags.StringVar(&f.scoring, "scoring", "", "situational scoring file, used without play-by-play")
	flags.StringVar(&f.logs, "logs", "", "team game log file")
	flags.StringVar(&f.pbp, "pbp", "", "play-by-play narration file")
	flags.StringVar(&f.teams, "teams", "", "team info file")
	flags.StringVar(&f.aliases, "aliases", "", "TOML file with extra team labels")
	flags.StringVar(&f.out, "out", "", "CSV output path (default "+report.DefaultOutput+" under --base)")
	flags.StringVar(&f.xlsx, "xlsx", "", "also write an xlsx workbook to this path")
	flags.IntVar(&f.workers, "workers", 0, "scan games with this many workers")
	flags.BoolVar(&f.publish, "publish", false, "deliver the report to redis (and postgres when configured)")
	flags.BoolVar(&f.quiet, "quiet", false, "skip the terminal preview")

	return cmd
}

func (a *app) runScan(cmd *cobra.Command, f *scanFlags) error {
	ctx := cmd.Context()
	cfg := a.cfg

	if f.base != "" {
		cfg.Input.Base = f.base
	}
	if f.aliases != "" {
		cfg.Input.Aliases = f.aliases
	}
	if f.workers != 0 {
		cfg.Input.Workers = f.workers
	}
	if f.out != "" {
		cfg.Report.Output = f.out
	}
	if f.xlsx != "" {
		cfg.Report.XLSX = f.xlsx
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	inputs := pipelineInputs(cfg)
	inputs.Record = f.record
	inputs.Batting = f.batting
	inputs.Scoring = f.scoring
	inputs.Logs = f.logs
	inputs.Narration = f.pbp
	inputs.Teams = f.teams

	var sinks []contracts.ReportSink
	if f.publish {
		redisClient, err := openRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		sinks = append(sinks,
			pipeline.CacheSink(cache.NewRedisWriter(redisClient)),
			pipeline.StreamSink(publisher.NewStreamPublisher(redisClient, cfg.Stream.MaxLen)))

		store, err := openStore(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
			sinks = append(sinks, pipeline.StoreSink(store))
		}
	}

	p := pipeline.New(inputs,
		pipeline.WithWorkers(cfg.Input.Workers),
		pipeline.WithSinks(sinks...),
		pipeline.WithLogger(a.logger))

	rep, runErr := p.Run(ctx)
	if rep == nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	csvPath := cfg.OutputPath()
	textPath, err := report.WriteFiles(csvPath, rep.Rows)
	if err != nil {
		return errors.Join(runErr, err)
	}
	fmt.Fprintf(out, "✓ Wrote %s\n", csvPath)
	fmt.Fprintf(out, "✓ Wrote %s\n", textPath)

	if cfg.Report.XLSX != "" {
		if err := report.WriteXLSX(cfg.Report.XLSX, rep.Rows); err != nil {
			return errors.Join(runErr, err)
		}
		fmt.Fprintf(out, "✓ Wrote %s\n", cfg.Report.XLSX)
	}

	if !f.quiet {
		fmt.Fprintln(out)
		report.Preview(out, rep.Rows)
	}

	return runErr
}
