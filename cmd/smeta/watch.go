package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dgallion1/smeta/internal/report"
	"github.com/dgallion1/smeta/internal/verify"
	"github.com/dgallion1/smeta/internal/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var include string
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Extract estimates as they are written to a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			cfg := a.cfg
			if include != "" {
				cfg.Watch.Include = include
			}

			w, err := watch.New(root, cfg, a.extractor, a.log)
			if err != nil {
				return err
			}
			defer w.Close()

			a.log.Info("watching for estimates", "root", root, "include", cfg.Watch.Include)
			out := cmd.OutOrStdout()
			return w.Run(cmd.Context(), func(res watch.Result) {
				if err := a.printWatchResult(out, res); err != nil {
					a.log.Error("print result", "file", res.Path, "error", err)
				}
			})
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "glob of files to extract, relative to dir (default: watch.include)")
	return cmd
}

type watchEvent struct {
	File      string         `json:"file" yaml:"file"`
	TotalCost float64        `json:"total_cost" yaml:"total_cost"`
	Attempts  uint           `json:"attempts" yaml:"attempts"`
	Checks    []verify.Check `json:"checks,omitempty" yaml:"checks,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func (a *app) printWatchResult(w io.Writer, res watch.Result) error {
	if a.format != "" {
		ev := watchEvent{File: res.Path, Attempts: res.Attempts, Checks: res.Checks}
		if res.Estimate != nil {
			ev.TotalCost = res.Estimate.TotalCost
		}
		if res.Err != nil {
			ev.Error = res.Err.Error()
		}
		return report.OutputTo(w, a.format, ev)
	}

	if res.Err != nil {
		_, err := fmt.Fprintf(w, "%s: %s %v\n", res.Path, report.Glyph(verify.Check{}), res.Err)
		return err
	}
	marks := ""
	for _, c := range res.Checks {
		marks += report.Glyph(c)
	}
	_, err := fmt.Fprintf(w, "%s: total %.2f, %d sections %s\n",
		res.Path, res.Estimate.TotalCost, len(res.Estimate.Sections), marks)
	return err
}
