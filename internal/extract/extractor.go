package extract

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/parser"
)

// ErrUnexpected marks a failure recovered from a panic during extraction.
var ErrUnexpected = errors.New("unexpected failure")

// Extractor runs estimate extraction for files and streams. The Extract*
// methods never fail: a parse error or any other failure is logged and an
// empty estimate is returned. The Parse* methods return the error instead.
type Extractor struct {
	parser parser.Parser // nil selects a parser by file extension
	log    *slog.Logger
	Stats  *ParseStats
}

func NewExtractor(log *slog.Logger, stats *ParseStats) *Extractor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		log:   log,
		Stats: stats,
	}
}

// ExtractFile extracts the estimate stored at path.
func (x *Extractor) ExtractFile(path string) *estimate.Estimate {
	est, err := x.ParseFile(path)
	if err != nil {
		x.logFailure(path, err)
		return estimate.Empty()
	}
	return est
}

// Extract extracts an estimate from r.
func (x *Extractor) Extract(r io.Reader, filename string) *estimate.Estimate {
	est, err := x.Parse(r, filename)
	if err != nil {
		x.logFailure(filename, err)
		return estimate.Empty()
	}
	return est
}

// ParseFile opens path and parses it. The file is closed before returning.
func (x *Extractor) ParseFile(path string) (*estimate.Estimate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open estimate: %w", err)
	}
	defer f.Close()
	return x.Parse(f, filepath.Base(path))
}

// Parse parses one estimate from r. A panic during the walk is recovered and
// reported as an error.
func (x *Extractor) Parse(r io.Reader, filename string) (est *estimate.Estimate, err error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			est = nil
			err = fmt.Errorf("extract %s: %w: %v", filename, ErrUnexpected, rec)
		}
		if x.Stats != nil {
			positions := 0
			if est != nil && est.Stats != nil {
				positions = est.Stats.TotalPositions
			}
			x.Stats.Record(time.Since(start), positions, err)
		}
	}()

	p := x.parser
	if p == nil {
		if p, err = parser.ForFile(filename); err != nil {
			return nil, err
		}
	}
	est, err = p.Parse(r, filename)
	if err != nil {
		return nil, err
	}
	x.log.Debug("estimate extracted",
		"file", filename,
		"sections", len(est.Sections),
		"total_cost", est.TotalCost,
	)
	return est, nil
}

func (x *Extractor) logFailure(file string, err error) {
	if parser.IsSyntax(err) {
		x.log.Error("xml parse failed", "file", file, "error", err)
		return
	}
	x.log.Error("extraction failed", "file", file, "error", err)
}
