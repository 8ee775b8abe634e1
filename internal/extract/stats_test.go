package extract

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/dgallion1/smeta/internal/parser"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseStatsLatencyDistribution(t *testing.T) {
	stats := NewParseStats(time.Hour)
	for _, ms := range []int{100, 200, 300, 400, 500} {
		stats.Record(time.Duration(ms)*time.Millisecond, 1, nil)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"avg", snap.AvgMs, 300},
		{"p50", snap.P50Ms, 300},
		{"p95", snap.P95Ms, 480},
		{"p99", snap.P99Ms, 496},
	}
	for _, c := range checks {
		if !near(c.got, c.want) {
			t.Errorf("expected %s=%v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestParseStatsFailuresByOutcome(t *testing.T) {
	stats := NewParseStats(time.Hour)
	stats.Record(time.Millisecond, 12, nil)
	stats.Record(time.Millisecond, 0, &parser.SyntaxError{Filename: "a.xml", Err: errors.New("EOF")})
	stats.Record(time.Millisecond, 0, &parser.SyntaxError{Filename: "b.xml", Err: parser.ErrNoRoot})
	stats.Record(time.Millisecond, 3, fmt.Errorf("walk: %w", &parser.AmountError{Attr: "PZ", Value: "x"}))
	stats.Record(time.Millisecond, 0, fmt.Errorf("%w: .pdf", parser.ErrUnsupportedExtension))

	snap := stats.Snapshot()
	if snap.Count != 5 || snap.Failed != 4 {
		t.Fatalf("expected count=5 failed=4, got count=%d failed=%d", snap.Count, snap.Failed)
	}
	want := map[Outcome]int{OutcomeSyntax: 2, OutcomeAmount: 1, OutcomeUnsupported: 1}
	if len(snap.Failures) != len(want) {
		t.Fatalf("expected failures %v, got %v", want, snap.Failures)
	}
	for k, v := range want {
		if snap.Failures[k] != v {
			t.Errorf("expected %s=%d, got %d", k, v, snap.Failures[k])
		}
	}
	if snap.Positions != 12 {
		t.Errorf("expected positions from successful parses only, got %d", snap.Positions)
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeOK},
		{&parser.SyntaxError{Err: errors.New("bad")}, OutcomeSyntax},
		{&parser.AmountError{Attr: "OZ"}, OutcomeAmount},
		{fmt.Errorf("x: %w", parser.ErrUnsupportedExtension), OutcomeUnsupported},
		{fmt.Errorf("extract a.xml: %w: boom", ErrUnexpected), OutcomeUnexpected},
		{errors.New("disk on fire"), OutcomeOther},
	}
	for _, tc := range tests {
		if got := OutcomeOf(tc.err); got != tc.want {
			t.Errorf("expected %s for %v, got %s", tc.want, tc.err, got)
		}
	}
}

func TestParseStatsEmptySnapshot(t *testing.T) {
	snap := NewParseStats(0).Snapshot()
	if snap.Count != 0 || snap.Failed != 0 || snap.Positions != 0 || snap.P99Ms != 0 {
		t.Fatalf("expected zero snapshot, got %+v", snap)
	}
	if snap.Failures == nil {
		t.Fatal("expected non-nil failures map")
	}
}

func TestParseStatsExpiresOldSamples(t *testing.T) {
	stats := NewParseStats(10 * time.Millisecond)
	stats.Record(100*time.Millisecond, 0, errors.New("gone"))
	time.Sleep(25 * time.Millisecond)

	snap := stats.Snapshot()
	if snap.Count != 0 || snap.Failed != 0 || len(snap.Failures) != 0 {
		t.Fatalf("expected empty window after expiry, got %+v", snap)
	}

	stats.Record(200*time.Millisecond, 4, nil)
	snap = stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 200 || snap.MaxMs != 200 || snap.Positions != 4 {
		t.Fatalf("expected single fresh sample, got %+v", snap)
	}
}

func TestParseStatsClampsNegativeDuration(t *testing.T) {
	stats := NewParseStats(time.Hour)
	stats.Record(-10*time.Millisecond, 0, nil)
	if snap := stats.Snapshot(); snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
