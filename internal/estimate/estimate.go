package estimate

import "strconv"

// Reserved keys of the result mapping. They carry metadata, not sections.
const (
	KeyTotalCost = "total_cost"
	KeyStats     = "_stats"
)

// Estimate is the extracted cost estimate.
type Estimate struct {
	Sections  []*Section // In order of first appearance
	TotalCost float64    // Sum over the finished tree, rounded to 2 places
	Stats     *Stats     // nil for an empty (failed) extraction

	index map[string]*Section
}

// Section is a named group of work items (a Chapter in the export).
type Section struct {
	Name  string
	Items []*WorkItem
}

// WorkItem is a priced unit of labor (ФЕР code).
type WorkItem struct {
	Code      string      `json:"code"`
	Caption   string      `json:"caption"`
	Units     string      `json:"units"`
	Price     float64     `json:"price"`
	Materials []*Material `json:"materials"`
}

// Material is a priced cost component (ФССЦ code) attached to a work item.
type Material struct {
	Name  string  `json:"name"`
	Units string  `json:"units"`
	Price float64 `json:"price"`
}

// Stats summarises one extraction. Its counters are accumulated during the
// walk, independently of the tree, so they can be cross-checked against it.
type Stats struct {
	TotalPositions            int      `json:"total_positions" yaml:"total_positions"`
	TotalFER                  int      `json:"total_fer" yaml:"total_fer"`
	TotalFSSC                 int      `json:"total_fssc" yaml:"total_fssc"`
	TotalFSEM                 int      `json:"total_fsem" yaml:"total_fsem"`
	TotalChapters             int      `json:"total_chapters" yaml:"total_chapters"`
	CalculatedTotalFromPrices float64  `json:"calculated_total_from_prices" yaml:"calculated_total_from_prices"`
	UniqueUnitsCount          int      `json:"unique_units_count" yaml:"unique_units_count"`
	UniqueUnits               []string `json:"unique_units" yaml:"unique_units"` // sorted
}

// New returns an estimate with no sections, ready to be filled.
func New() *Estimate {
	return &Estimate{index: make(map[string]*Section)}
}

// Empty returns the result of a failed extraction.
func Empty() *Estimate {
	return New()
}

// IsEmpty reports whether the estimate carries no data at all, which is how
// a failed extraction presents itself to callers.
func (e *Estimate) IsEmpty() bool {
	return e == nil || (e.Stats == nil && len(e.Sections) == 0)
}

// Section returns the section with the given name, or nil.
func (e *Estimate) Section(name string) *Section {
	if e.index == nil {
		e.reindex()
	}
	return e.index[name]
}

// EnsureSection returns the section named name, creating it at the end of the
// section list if it does not exist yet.
func (e *Estimate) EnsureSection(name string) *Section {
	if s := e.Section(name); s != nil {
		return s
	}
	s := &Section{Name: name}
	e.Sections = append(e.Sections, s)
	e.index[name] = s
	return s
}

func (e *Estimate) reindex() {
	e.index = make(map[string]*Section, len(e.Sections))
	for _, s := range e.Sections {
		e.index[s.Name] = s
	}
}

// WorkItemCount returns the number of work items across all sections.
func (e *Estimate) WorkItemCount() int {
	n := 0
	for _, s := range e.Sections {
		n += len(s.Items)
	}
	return n
}

// MaterialCount returns the number of materials attached to work items.
func (e *Estimate) MaterialCount() int {
	n := 0
	for _, s := range e.Sections {
		for _, w := range s.Items {
			n += len(w.Materials)
		}
	}
	return n
}

// CalculateTotalCost sums every work item price and every material price
// over the finished sections.
func CalculateTotalCost(sections []*Section) float64 {
	var total float64
	for _, s := range sections {
		for _, w := range s.Items {
			total += w.Price
			for _, m := range w.Materials {
				total += m.Price
			}
		}
	}
	return Round2(total)
}

// Round2 rounds to two decimal places. Rounding is done on the exact binary
// value with ties to even, so 2.675 (stored just below) gives 2.67 and 0.125
// gives 0.12.
func Round2(v float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return r
}
