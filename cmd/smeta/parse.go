package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/smeta/internal/report"
	"github.com/dgallion1/smeta/internal/verify"
)

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Print the estimate tree, its total and the check battery",
		Long: `Extract an estimate and print it. An unreadable or malformed file is
reported on stderr and yields an empty result; the exit status stays 0.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			est := a.extractor.ExtractFile(a.inputPath(args))
			if a.format != "" {
				return report.OutputTo(cmd.OutOrStdout(), a.format, est)
			}
			return report.WriteText(cmd.OutOrStdout(), est)
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Run the consistency checks only",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			est := a.extractor.ExtractFile(a.inputPath(args))
			checks, err := verify.Run(est)
			if errors.Is(err, verify.ErrNoData) {
				fmt.Fprintln(cmd.OutOrStdout(), "Error: cannot run checks, estimate data not loaded")
				if strict {
					return err
				}
				return nil
			}
			if err != nil {
				return err
			}

			if a.format != "" {
				err = report.OutputTo(cmd.OutOrStdout(), a.format, checks)
			} else {
				err = report.WriteChecks(cmd.OutOrStdout(), est, checks)
			}
			if err != nil {
				return err
			}
			if strict && !verify.AllPassed(checks) {
				return errors.New("consistency checks failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when a check fails or no data was loaded")
	return cmd
}
