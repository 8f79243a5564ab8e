package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// app carries state shared by every subcommand after the root pre-run
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "run-creation",
		Short: "Run Creation Profile for ABL league exports",
		Long: `run-creation reconstructs home-run and two-out runs from play-by-play
narration and ranks clubs by how they create runs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error), overrides RUNCREATION_LOG_LEVEL")
	root.PersistentFlags().String("log-format", "", "log format (text|json), overrides RUNCREATION_LOG_FORMAT")
	root.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(newScanCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newClassifyCmd(a))

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Root().PersistentFlags()
	if level, _ := flags.GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := flags.GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	colorFlag, _ := flags.GetString("color")
	switch colorFlag {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
	default:
		return fmt.Errorf("unknown color mode: %s", colorFlag)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format: %s", format)
	}
}
