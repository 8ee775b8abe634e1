package main

import (
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dgallion1/smeta/internal/report"
	"github.com/dgallion1/smeta/internal/verify"
	"github.com/dgallion1/smeta/internal/watch"
)

// batchRow is one line of the batch summary.
type batchRow struct {
	File      string  `json:"file" yaml:"file"`
	Sections  int     `json:"sections" yaml:"sections"`
	WorkItems int     `json:"work_items" yaml:"work_items"`
	Materials int     `json:"materials" yaml:"materials"`
	TotalCost float64 `json:"total_cost" yaml:"total_cost"`
	Passed    int     `json:"checks_passed" yaml:"checks_passed"`
	Checks    int     `json:"checks" yaml:"checks"`
	Error     string  `json:"error,omitempty" yaml:"error,omitempty"`
}

func (a *app) batchCmd() *cobra.Command {
	var include string
	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Extract every matching estimate under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if include == "" {
				include = a.cfg.Watch.Include
			}
			m, err := watch.NewMatcher(include)
			if err != nil {
				return err
			}
			root := args[0]
			files, err := watch.Discover(root, m)
			if err != nil {
				return err
			}
			a.log.Debug("batch discovered files", "root", root, "include", m.String(), "count", len(files))

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionSetDescription("Extracting estimates"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)

			rows := make([]batchRow, 0, len(files))
			for _, path := range files {
				if err := cmd.Context().Err(); err != nil {
					return err
				}
				rows = append(rows, a.batchOne(root, path))
				_ = bar.Add(1)
			}
			_ = bar.Finish()

			if a.format != "" {
				return report.OutputTo(cmd.OutOrStdout(), a.format, rows)
			}
			return writeBatchTable(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "glob of files to extract, relative to dir (default: watch.include)")
	return cmd
}

func (a *app) batchOne(root, path string) batchRow {
	row := batchRow{File: path}
	if rel, err := filepath.Rel(root, path); err == nil {
		row.File = rel
	}

	est, err := a.extractor.ParseFile(path)
	if err != nil {
		a.log.Error("extraction failed", "file", path, "error", err)
		row.Error = err.Error()
		return row
	}
	row.Sections = len(est.Sections)
	row.WorkItems = est.WorkItemCount()
	row.Materials = est.MaterialCount()
	row.TotalCost = est.TotalCost

	checks, err := verify.Run(est)
	if err != nil {
		row.Error = err.Error()
		return row
	}
	row.Checks = len(checks)
	for _, c := range checks {
		if c.Passed {
			row.Passed++
		}
	}
	return row
}

func writeBatchTable(w io.Writer, rows []batchRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSECTIONS\tWORKS\tMATERIALS\tTOTAL\tCHECKS\tERROR")
	var grand float64
	failed := 0
	for _, r := range rows {
		checks := fmt.Sprintf("%d/%d", r.Passed, r.Checks)
		if r.Error != "" {
			failed++
			checks = "-"
		}
		grand += r.TotalCost
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.2f\t%s\t%s\n",
			r.File, r.Sections, r.WorkItems, r.Materials, r.TotalCost, checks, r.Error)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d files, %d failed, combined total %.2f\n", len(rows), failed, grand)
	return err
}
