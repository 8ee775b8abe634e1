// Package report renders an extracted estimate and its checks for people:
// a console tree, Markdown, HTML and DOCX, plus JSON/YAML structured output.
package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/verify"
)

const (
	glyphPassed  = "✅"
	glyphFailed  = "❌"
	glyphWarning = "⚠️"
)

// Glyph returns the status mark of a check.
func Glyph(c verify.Check) string {
	switch {
	case c.Passed:
		return glyphPassed
	case c.Warning:
		return glyphWarning
	default:
		return glyphFailed
	}
}

func status(c verify.Check) string {
	switch {
	case c.Passed:
		return "passed"
	case c.Warning:
		return "warning"
	default:
		return "failed"
	}
}

// WriteTree prints sections, their work items and materials, then the total.
func WriteTree(w io.Writer, est *estimate.Estimate) error {
	ew := &errWriter{w: w}
	if est.IsEmpty() {
		ew.printf("No estimate data\n")
		return ew.err
	}

	ew.printf("Estimate structure with prices:\n")
	for _, s := range est.Sections {
		ew.printf("\nSection: %s\n", s.Name)
		for i, item := range s.Items {
			ew.printf("  %d. %s [%s] - %.2f\n", i+1, item.Caption, item.Units, item.Price)
			if len(item.Materials) == 0 {
				continue
			}
			ew.printf("    Materials:\n")
			for j, m := range item.Materials {
				ew.printf("      %d. %s [%s] - %.2f\n", j+1, m.Name, m.Units, m.Price)
			}
		}
	}
	ew.printf("\nTotal estimate cost: %.2f\n", est.TotalCost)
	return ew.err
}

// WriteChecks prints one block per check. The unique units check also lists
// the units, numbered.
func WriteChecks(w io.Writer, est *estimate.Estimate, checks []verify.Check) error {
	ew := &errWriter{w: w}
	ew.printf("\n=== CHECKS ===\n")
	for _, c := range checks {
		ew.printf("\nCheck %d: %s\n", c.ID, c.Name)
		ew.printf("%s\n", c.Detail)
		if c.ID == 6 && est.Stats != nil {
			for i, u := range est.Stats.UniqueUnits {
				ew.printf("  %d. %s\n", i+1, u)
			}
		}
		ew.printf("%s %s\n", Glyph(c), status(c))
	}
	return ew.err
}

// WriteText prints the tree followed by the check battery. A failed
// extraction prints a single diagnostic line instead of the battery.
func WriteText(w io.Writer, est *estimate.Estimate) error {
	if err := WriteTree(w, est); err != nil {
		return err
	}
	checks, err := verify.Run(est)
	if errors.Is(err, verify.ErrNoData) {
		_, werr := fmt.Fprintln(w, "Error: cannot run checks, estimate data not loaded")
		return werr
	}
	if err != nil {
		return err
	}
	return WriteChecks(w, est, checks)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
