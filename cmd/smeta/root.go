package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/smeta/internal/config"
	"github.com/dgallion1/smeta/internal/extract"
	"github.com/dgallion1/smeta/internal/report"
)

// app carries the state shared by all subcommands once flags are parsed.
type app struct {
	cfgFile string
	output  string
	verbose bool

	cfg       config.Config
	format    report.Format // empty for human-readable output
	log       *slog.Logger
	extractor *extract.Extractor
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "smeta",
		Short: "Extract and check construction cost estimates",
		Long: `smeta reads cost estimate XML exports (chapters, ФЕР work items with
ФССЦ materials, ФСЭМ equipment), builds the section tree with prices,
totals it and runs a battery of consistency checks over the result.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./smeta.yaml or ~/.smeta/smeta.yaml)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "", "structured output format: json or yaml (default: text)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.parseCmd(),
		a.checkCmd(),
		a.exportCmd(),
		a.verifyCmd(),
		a.batchCmd(),
		a.watchCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg

	a.format = ""
	if a.output != "" {
		f, err := report.ParseFormat(a.output)
		if err != nil || !f.Structured() {
			return fmt.Errorf("--output must be json or yaml, got %q", a.output)
		}
		a.format = f
	}

	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.extractor = extract.NewExtractor(a.log, extract.NewParseStats(time.Hour))
	return nil
}

// inputPath returns the file argument or the configured default.
func (a *app) inputPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.InputPath
}
