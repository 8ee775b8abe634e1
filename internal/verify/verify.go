// Package verify cross-checks an extracted estimate against the statistics
// gathered while it was walked.
package verify

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/dgallion1/smeta/internal/estimate"
)

// ErrNoData is returned when the estimate carries no statistics, which is
// the shape of a failed extraction.
var ErrNoData = errors.New("estimate data not loaded")

// Tolerance is the largest accepted difference between the running total and
// the tree total.
const Tolerance = 0.01

// Check is the outcome of one consistency check. A Warning check did not pass
// but reports a data-quality issue rather than an inconsistency.
type Check struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Passed  bool   `json:"passed" yaml:"passed"`
	Warning bool   `json:"warning,omitempty" yaml:"warning,omitempty"`
	Detail  string `json:"detail" yaml:"detail"`
}

// Failed reports whether the check is a hard failure.
func (c Check) Failed() bool {
	return !c.Passed && !c.Warning
}

type checkFunc func(est *estimate.Estimate, st *estimate.Stats) Check

var battery = []checkFunc{
	checkPositions,
	checkChapters,
	checkWorks,
	checkMaterials,
	checkTotal,
	checkUniqueUnits,
	checkEmptyUnits,
}

// Run executes every check in order. It does not modify est.
func Run(est *estimate.Estimate) ([]Check, error) {
	if est.IsEmpty() || est.Stats == nil {
		return nil, ErrNoData
	}
	checks := make([]Check, 0, len(battery))
	for i, fn := range battery {
		c := fn(est, est.Stats)
		c.ID = i + 1
		checks = append(checks, c)
	}
	return checks, nil
}

// AllPassed reports whether no check is a hard failure. Warnings are allowed.
func AllPassed(checks []Check) bool {
	for _, c := range checks {
		if c.Failed() {
			return false
		}
	}
	return true
}

func checkPositions(_ *estimate.Estimate, st *estimate.Stats) Check {
	return Check{
		Name:   "positions excluding equipment",
		Passed: st.TotalPositions == st.TotalFER+st.TotalFSSC,
		Detail: fmt.Sprintf("positions %d, work %d + material %d (equipment %d not counted)",
			st.TotalPositions, st.TotalFER, st.TotalFSSC, st.TotalFSEM),
	}
}

func checkChapters(est *estimate.Estimate, st *estimate.Stats) Check {
	n := len(est.Sections)
	return Check{
		Name:   "chapter count",
		Passed: st.TotalChapters == n,
		Detail: fmt.Sprintf("chapters %d, sections in result %d", st.TotalChapters, n),
	}
}

func checkWorks(est *estimate.Estimate, st *estimate.Stats) Check {
	n := est.WorkItemCount()
	return Check{
		Name:   "work item count",
		Passed: st.TotalFER == n,
		Detail: fmt.Sprintf("work codes %d, work items in result %d", st.TotalFER, n),
	}
}

func checkMaterials(est *estimate.Estimate, st *estimate.Stats) Check {
	n := est.MaterialCount()
	return Check{
		Name:   "material count",
		Passed: st.TotalFSSC == n,
		Detail: fmt.Sprintf("material codes %d, materials in result %d", st.TotalFSSC, n),
	}
}

func checkTotal(est *estimate.Estimate, st *estimate.Stats) Check {
	return Check{
		Name:   "total cost",
		Passed: math.Abs(st.CalculatedTotalFromPrices-est.TotalCost) < Tolerance,
		Detail: fmt.Sprintf("price base sum %.2f, result total %.2f",
			st.CalculatedTotalFromPrices, est.TotalCost),
	}
}

func checkUniqueUnits(_ *estimate.Estimate, st *estimate.Stats) Check {
	return Check{
		Name:   "unique units",
		Passed: true,
		Detail: fmt.Sprintf("%d: %s", st.UniqueUnitsCount, strings.Join(st.UniqueUnits, ", ")),
	}
}

func checkEmptyUnits(est *estimate.Estimate, _ *estimate.Stats) Check {
	var blank []string
	for _, s := range est.Sections {
		for _, w := range s.Items {
			if strings.TrimSpace(w.Units) == "" {
				blank = append(blank, w.Code)
			}
		}
	}
	c := Check{Name: "no empty units", Passed: len(blank) == 0}
	if c.Passed {
		c.Detail = "every work item has units"
	} else {
		c.Warning = true
		c.Detail = fmt.Sprintf("%d work items without units: %s", len(blank), strings.Join(blank, ", "))
	}
	return c
}
