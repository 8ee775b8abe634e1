package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/verify"
)

// Format names an output rendering.
type Format string

const (
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatText     Format = "text"
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// ParseFormat accepts a format name, case-insensitively. "markdown" is an
// alias of "md".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatText, FormatMarkdown, FormatHTML, FormatDOCX:
		return f, nil
	case "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// Structured reports whether f is a data format rather than a document.
func (f Format) Structured() bool {
	return f == FormatJSON || f == FormatYAML
}

// ContentType is the HTTP media type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatYAML:
		return "application/yaml"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Ext is the file extension for f, dot included.
func (f Format) Ext() string {
	if f == FormatText {
		return ".txt"
	}
	return "." + string(f)
}

// OutputTo writes data as indented JSON or YAML.
func OutputTo(w io.Writer, format Format, data any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

// Write renders est in any format. Document formats include the check
// battery when the estimate has data.
func Write(w io.Writer, format Format, title string, est *estimate.Estimate) error {
	if format.Structured() {
		return OutputTo(w, format, est)
	}
	if format == FormatText {
		return WriteText(w, est)
	}

	checks, _ := verify.Run(est)
	switch format {
	case FormatMarkdown:
		_, err := w.Write(Markdown(title, est, checks))
		return err
	case FormatHTML:
		page, err := HTML(title, est, checks)
		if err != nil {
			return err
		}
		_, err = w.Write(page)
		return err
	case FormatDOCX:
		return WriteDOCX(w, title, est, checks)
	}
	return fmt.Errorf("unknown output format: %s", format)
}
