package parser

import (
	"io"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/dgallion1/smeta/internal/estimate"
)

// Element and attribute names of the estimate export.
const (
	tagChapter   = "Chapter"
	tagPosition  = "Position"
	tagPriceBase = "PriceBase"

	attrCaption = "Caption"
	attrCode    = "Code"
	attrUnits   = "Units"

	priceBasePath = ".//" + tagPriceBase
)

// XMLParser handles estimate exports: Chapter elements introduce sections,
// Position elements carry works, materials and machinery, and a nested
// PriceBase element carries the amounts.
type XMLParser struct{}

func (p *XMLParser) Parse(r io.Reader, filename string) (*estimate.Estimate, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &SyntaxError{Filename: filename, Err: err}
	}
	root := doc.Root()
	if root == nil {
		return nil, &SyntaxError{Filename: filename, Err: ErrNoRoot}
	}
	return Walk(root)
}

// Walk folds the elements under root, root included, in document order into
// an estimate.
func Walk(root *etree.Element) (*estimate.Estimate, error) {
	st := newWalkState()
	for _, el := range preorder(root) {
		if err := st.visit(el); err != nil {
			return nil, err
		}
	}
	return st.finish(), nil
}

// preorder flattens the tree into document order.
func preorder(root *etree.Element) []*etree.Element {
	var out []*etree.Element
	stack := []*etree.Element{root}
	for len(stack) > 0 {
		el := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, el)

		children := el.ChildElements()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out
}

// walkState is the accumulator of one extraction. section and lastWork are
// cursors moved by the elements seen so far, so visit order matters.
type walkState struct {
	est      *estimate.Estimate
	section  *estimate.Section
	lastWork *estimate.WorkItem

	stats estimate.Stats
	total float64
	units map[string]struct{}
}

func newWalkState() *walkState {
	return &walkState{
		est:   estimate.New(),
		units: make(map[string]struct{}),
	}
}

func (st *walkState) visit(el *etree.Element) error {
	if el.SelectAttr(attrCaption) == nil {
		return nil
	}
	switch el.Tag {
	case tagChapter:
		st.visitChapter(el)
	case tagPosition:
		return st.visitPosition(el)
	}
	return nil
}

func (st *walkState) visitChapter(el *etree.Element) {
	st.section = st.est.EnsureSection(el.SelectAttrValue(attrCaption, ""))
	st.stats.TotalChapters++
}

func (st *walkState) visitPosition(el *etree.Element) error {
	code := el.SelectAttrValue(attrCode, "")
	units := el.SelectAttrValue(attrUnits, "")
	caption := el.SelectAttrValue(attrCaption, "")

	if units != "" {
		st.units[strings.ToLower(strings.TrimSpace(units))] = struct{}{}
	}

	switch Classify(code) {
	case KindWork:
		st.stats.TotalFER++
		if countsAsPosition(code) {
			st.stats.TotalPositions++
		}

		var price float64
		if pb := el.FindElement(priceBasePath); pb != nil {
			p, err := sumAmounts(pb, workPriceFields)
			if err != nil {
				return err
			}
			price = p
			st.total += p
		}

		// A chapter with an empty caption still opens a section, but
		// works under it are counted and dropped like orphans.
		if st.section == nil || st.section.Name == "" {
			return nil
		}
		work := &estimate.WorkItem{
			Code:      code,
			Caption:   caption,
			Units:     units,
			Price:     price,
			Materials: []*estimate.Material{},
		}
		st.section.Items = append(st.section.Items, work)
		st.lastWork = work

	case KindMaterial:
		st.stats.TotalFSSC++
		if countsAsPosition(code) {
			st.stats.TotalPositions++
		}
		if st.lastWork == nil {
			return nil
		}

		var price float64
		if pb := el.FindElement(priceBasePath); pb != nil {
			p, err := readAmount(pb, materialPriceField)
			if err != nil {
				return err
			}
			price = p
			st.total += p
		}
		st.lastWork.Materials = append(st.lastWork.Materials, &estimate.Material{
			Name:  caption,
			Units: units,
			Price: price,
		})

	case KindEquipment:
		st.stats.TotalFSEM++
	}
	return nil
}

func (st *walkState) finish() *estimate.Estimate {
	units := make([]string, 0, len(st.units))
	for u := range st.units {
		units = append(units, u)
	}
	sort.Strings(units)

	st.stats.CalculatedTotalFromPrices = estimate.Round2(st.total)
	st.stats.UniqueUnits = units
	st.stats.UniqueUnitsCount = len(units)

	st.est.TotalCost = estimate.CalculateTotalCost(st.est.Sections)
	st.est.Stats = &st.stats
	return st.est
}
