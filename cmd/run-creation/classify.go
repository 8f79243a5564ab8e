package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/XavierBriggs/fortuna/services/run-creation/internal/attribution"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type classifiedLine struct {
	Line          int    `json:"line"`
	Kind          string `json:"kind"`
	Label         string `json:"label,omitempty"`
	Runs          int    `json:"runs,omitempty"`
	RBIEligible   bool   `json:"rbi_eligible,omitempty"`
	OutsDelta     int    `json:"outs_delta,omitempty"`
	CreditAllowed bool   `json:"credit_allowed,omitempty"`
	Text          string `json:"text"`
}

func newClassifyCmd(_ *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Show how each narration line is classified",
		Long: `classify reads plain narration lines from a file, or stdin when no file
is given, and prints the event each one produces.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open narration: %w", err)
				}
				defer f.Close()
				in = f
			}
			return classifyLines(in, cmd.OutOrStdout(), format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}

func classifyLines(in io.Reader, out io.Writer, format string) error {
	var emit func(classifiedLine) error
	switch format {
	case "pretty":
		kindColor := color.New(color.FgCyan)
		emit = func(l classifiedLine) error {
			_, err := fmt.Fprintf(out, "%4d  %s %-22s %s\n",
				l.Line, kindColor.Sprintf("%-18s", l.Kind), detail(l), l.Text)
			return err
		}
	case "json":
		enc := json.NewEncoder(out)
		emit = func(l classifiedLine) error { return enc.Encode(l) }
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	scanner := bufio.NewScanner(in)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		ev := attribution.Classify(text)
		if err := emit(classifiedLine{
			Line:          n,
			Kind:          ev.Kind.String(),
			Label:         ev.Label,
			Runs:          ev.Runs,
			RBIEligible:   ev.RBIEligible,
			OutsDelta:     ev.OutsDelta,
			CreditAllowed: ev.CreditAllowed,
			Text:          text,
		}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read narration: %w", err)
	}
	return nil
}

func detail(l classifiedLine) string {
	switch l.Kind {
	case attribution.KindHalfInningHeader.String():
		return fmt.Sprintf("label=%q", l.Label)
	case attribution.KindHomeRun.String():
		return fmt.Sprintf("runs=%d", l.Runs)
	case attribution.KindTerminalPlay.String():
		return fmt.Sprintf("rbi=%t outs=%d", l.RBIEligible, l.OutsDelta)
	case attribution.KindScoring.String():
		return fmt.Sprintf("credit=%t", l.CreditAllowed)
	}
	return "-"
}
