package parser

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Price-base fields summed into a work item price.
var workPriceFields = []string{"PZ", "OZ", "EM", "ZM", "MT"}

// materialPriceField is the only price-base field read for materials.
const materialPriceField = "PZ"

// readAmount reads a numeric attribute. A missing attribute counts as "0";
// a decimal comma is accepted in place of the decimal point and surrounding
// whitespace is ignored.
func readAmount(el *etree.Element, attr string) (float64, error) {
	raw := el.SelectAttrValue(attr, "0")
	v, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(raw, ",", ".")), 64)
	if err != nil {
		return 0, &AmountError{Attr: attr, Value: raw, Err: err}
	}
	return v, nil
}

// sumAmounts adds up the given attributes of el.
func sumAmounts(el *etree.Element, attrs []string) (float64, error) {
	var total float64
	for _, attr := range attrs {
		v, err := readAmount(el, attr)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}
