package report

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/verify"
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

// Markdown renders the estimate as headings and tables. checks may be nil.
func Markdown(title string, est *estimate.Estimate, checks []verify.Check) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# %s\n\n", title)

	if est.IsEmpty() {
		b.WriteString("No estimate data.\n")
		return b.Bytes()
	}

	for _, s := range est.Sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Name)
		if len(s.Items) == 0 {
			b.WriteString("_No work items._\n\n")
			continue
		}
		b.WriteString("| # | Code | Item | Units | Price |\n")
		b.WriteString("|---|------|------|-------|------:|\n")
		for i, item := range s.Items {
			fmt.Fprintf(&b, "| %d | %s | %s | %s | %.2f |\n",
				i+1, cell(item.Code), cell(item.Caption), cell(item.Units), item.Price)
			for j, m := range item.Materials {
				fmt.Fprintf(&b, "| %d.%d |  | %s | %s | %.2f |\n",
					i+1, j+1, cell(m.Name), cell(m.Units), m.Price)
			}
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "**Total estimate cost:** %.2f\n", est.TotalCost)

	if len(checks) > 0 {
		b.WriteString("\n## Checks\n\n")
		b.WriteString("| # | Check | Result | Detail |\n")
		b.WriteString("|---|-------|--------|--------|\n")
		for _, c := range checks {
			fmt.Fprintf(&b, "| %d | %s | %s %s | %s |\n",
				c.ID, cell(c.Name), Glyph(c), status(c), cell(c.Detail))
		}
	}
	return b.Bytes()
}

func cell(s string) string {
	return cellEscaper.Replace(s)
}

// HTML converts the Markdown report to a standalone HTML page.
func HTML(title string, est *estimate.Estimate, checks []verify.Check) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var body bytes.Buffer
	if err := md.Convert(Markdown(title, est, checks), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
