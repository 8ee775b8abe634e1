package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/report"
	"github.com/dgallion1/smeta/internal/verify"
)

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <result.json>",
		Short: "Validate a saved JSON result and re-run its checks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read result: %w", err)
			}
			est, err := estimate.Decode(data)
			if err != nil {
				return err
			}
			checks, err := verify.Run(est)
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
			if !verify.AllPassed(checks) {
				return errors.New("consistency checks failed")
			}
			return nil
		},
	}
}
