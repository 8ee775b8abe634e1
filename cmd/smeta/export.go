package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/smeta/internal/report"
)

func (a *app) exportCmd() *cobra.Command {
	var formatName, out, title string
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write the estimate as json, yaml, md, html, docx or text",
		Long: `Extract an estimate and write it in the chosen format. Without --out the
result is written next to the input with the format's extension; use
--out - for stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}
			in := a.inputPath(args)
			est, err := a.extractor.ParseFile(in)
			if err != nil {
				return err
			}
			if title == "" {
				title = strings.TrimSuffix(filepath.Base(in), filepath.Ext(in))
			}

			if out == "-" {
				return report.Write(cmd.OutOrStdout(), format, title, est)
			}
			if out == "" {
				out = strings.TrimSuffix(in, filepath.Ext(in)) + format.Ext()
			}
			if err := writeFile(out, func(w io.Writer) error {
				return report.Write(w, format, title, est)
			}); err != nil {
				return err
			}
			a.log.Info("estimate exported", "file", out, "format", format)
			return nil
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "json", "json, yaml, md, html, docx or text")
	cmd.Flags().StringVar(&out, "out", "", "output path, - for stdout")
	cmd.Flags().StringVar(&title, "title", "", "report title (default: input file name)")
	return cmd
}

// writeFile writes through a temporary file so a failed render leaves no
// partial output behind.
func writeFile(path string, render func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".smeta-export-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
