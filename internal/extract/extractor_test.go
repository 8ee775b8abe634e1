package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/smeta/internal/estimate"
	"github.com/dgallion1/smeta/internal/parser"
)

const fixture = "../../testdata/estimate.xml"

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestExtractFile(t *testing.T) {
	stats := NewParseStats(time.Hour)
	x := NewExtractor(nil, stats)

	est := x.ExtractFile(fixture)
	if est.IsEmpty() {
		t.Fatal("expected a populated estimate")
	}
	if len(est.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(est.Sections))
	}
	if est.TotalCost != 23604.72 {
		t.Fatalf("expected total_cost=23604.72, got %v", est.TotalCost)
	}
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.Failed != 0 {
		t.Fatalf("expected one successful sample, got %+v", snap)
	}
	if snap.Positions != 5 {
		t.Fatalf("expected 5 positions recorded, got %d", snap.Positions)
	}
}

func TestExtractFileMissingDegradesToEmpty(t *testing.T) {
	log, buf := captureLogger()
	x := NewExtractor(log, nil)

	est := x.ExtractFile(filepath.Join(t.TempDir(), "missing.xml"))
	if !est.IsEmpty() {
		t.Fatalf("expected empty estimate, got %+v", est)
	}
	if !strings.Contains(buf.String(), "extraction failed") {
		t.Fatalf("expected diagnostic in log, got %q", buf.String())
	}
}

func TestExtractMalformedDegradesToEmpty(t *testing.T) {
	log, buf := captureLogger()
	stats := NewParseStats(time.Hour)
	x := NewExtractor(log, stats)

	est := x.Extract(strings.NewReader("<Root><Chapter Caption=\"A\">"), "broken.xml")
	if !est.IsEmpty() {
		t.Fatal("expected empty estimate for malformed input")
	}
	out, err := json.Marshal(est)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "{}" {
		t.Fatalf("expected {}, got %s", out)
	}
	if !strings.Contains(buf.String(), "xml parse failed") {
		t.Fatalf("expected parse diagnostic, got %q", buf.String())
	}
	snap := stats.Snapshot()
	if snap.Failed != 1 || snap.Failures[OutcomeSyntax] != 1 {
		t.Fatalf("expected one syntax failure, got %+v", snap)
	}
}

func TestParseReturnsError(t *testing.T) {
	x := NewExtractor(nil, nil)
	_, err := x.Parse(strings.NewReader(""), "empty.xml")
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

type panicParser struct{}

func (panicParser) Parse(io.Reader, string) (*estimate.Estimate, error) {
	panic("boom")
}

func TestParseRecoversPanic(t *testing.T) {
	log, buf := captureLogger()
	stats := NewParseStats(time.Hour)
	x := NewExtractor(log, stats)
	x.parser = panicParser{}

	if _, err := x.Parse(strings.NewReader("<Root/>"), "x.xml"); !errors.Is(err, ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected, got %v", err)
	}
	if got := stats.Snapshot().Failures[OutcomeUnexpected]; got != 1 {
		t.Fatalf("expected one unexpected failure, got %d", got)
	}

	est := x.Extract(strings.NewReader("<Root/>"), "x.xml")
	if !est.IsEmpty() {
		t.Fatal("expected empty estimate after panic")
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Fatalf("expected panic value in log, got %q", buf.String())
	}
}

func TestExtractFileClosesHandle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one.xml")
	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	x := NewExtractor(nil, nil)
	_ = x.ExtractFile(path)
	if err := os.Remove(path); err != nil {
		t.Fatalf("expected file removable after extraction: %v", err)
	}
}

func TestParseUnsupportedExtension(t *testing.T) {
	stats := NewParseStats(time.Hour)
	x := NewExtractor(nil, stats)
	_, err := x.Parse(strings.NewReader("<Root/>"), "estimate.pdf")
	if !errors.Is(err, parser.ErrUnsupportedExtension) {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
	if got := stats.Snapshot().Failures[OutcomeUnsupported]; got != 1 {
		t.Fatalf("expected one unsupported failure, got %d", got)
	}
}

func TestParseRecordsAmountFailure(t *testing.T) {
	stats := NewParseStats(time.Hour)
	x := NewExtractor(nil, stats)
	input := `<Root><Chapter Caption="A"><Position Code="ФЕР1" Caption="w"><PriceBase PZ="n/a"/></Position></Chapter></Root>`

	if _, err := x.Parse(strings.NewReader(input), "amount.xml"); err == nil {
		t.Fatal("expected amount error")
	}
	snap := stats.Snapshot()
	if snap.Failures[OutcomeAmount] != 1 || snap.Positions != 0 {
		t.Fatalf("expected one amount failure and no positions, got %+v", snap)
	}
}
