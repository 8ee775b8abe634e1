package report

import (
	"fmt"
	"io"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/verify"
)

// Font sizes in half-points.
const (
	sizeTitle   = "32"
	sizeSection = "28"
	sizeBody    = "22"
)

// WriteDOCX writes the estimate as a Word document: one bold heading per
// section, one paragraph per work item and material, then the total and the
// check results.
func WriteDOCX(w io.Writer, title string, est *estimate.Estimate, checks []verify.Check) error {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(title).Size(sizeTitle).Bold()

	if est.IsEmpty() {
		doc.AddParagraph().AddText("No estimate data.").Size(sizeBody)
	} else {
		for _, s := range est.Sections {
			doc.AddParagraph().AddText(s.Name).Size(sizeSection).Bold()
			for i, item := range s.Items {
				doc.AddParagraph().AddText(
					fmt.Sprintf("%d. %s [%s] - %.2f", i+1, item.Caption, item.Units, item.Price),
				).Size(sizeBody)
				for j, m := range item.Materials {
					doc.AddParagraph().AddText(
						fmt.Sprintf("    %d.%d. %s [%s] - %.2f", i+1, j+1, m.Name, m.Units, m.Price),
					).Size(sizeBody)
				}
			}
		}
		doc.AddParagraph().AddText(fmt.Sprintf("Total estimate cost: %.2f", est.TotalCost)).Size(sizeSection).Bold()
	}

	if len(checks) > 0 {
		doc.AddParagraph().AddText("Checks").Size(sizeSection).Bold()
		for _, c := range checks {
			doc.AddParagraph().AddText(
				fmt.Sprintf("%s %d. %s: %s", Glyph(c), c.ID, c.Name, c.Detail),
			).Size(sizeBody)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
