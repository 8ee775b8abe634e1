package extract

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/smeta/internal/parser"
)

// Outcome classifies how a parse ended.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeSyntax      Outcome = "syntax"      // not well-formed markup
	OutcomeAmount      Outcome = "amount"      // non-numeric price-base attribute
	OutcomeUnsupported Outcome = "unsupported" // no parser for the file extension
	OutcomeUnexpected  Outcome = "unexpected"  // recovered panic
	OutcomeOther       Outcome = "other"
)

// OutcomeOf maps a Parse error to its outcome; nil is OutcomeOK.
func OutcomeOf(err error) Outcome {
	var ae *parser.AmountError
	switch {
	case err == nil:
		return OutcomeOK
	case parser.IsSyntax(err):
		return OutcomeSyntax
	case errors.As(err, &ae):
		return OutcomeAmount
	case errors.Is(err, parser.ErrUnsupportedExtension):
		return OutcomeUnsupported
	case errors.Is(err, ErrUnexpected):
		return OutcomeUnexpected
	default:
		return OutcomeOther
	}
}

type parseSample struct {
	at        time.Time
	ms        int64
	outcome   Outcome
	positions int
}

// StatsSnapshot aggregates the parses of the current window.
type StatsSnapshot struct {
	Count     int             `json:"count"`
	Failed    int             `json:"failed"`
	Failures  map[Outcome]int `json:"failures"`  // failed parses by outcome
	Positions int             `json:"positions"` // positions extracted by successful parses
	MinMs     int64           `json:"min_ms"`
	MaxMs     int64           `json:"max_ms"`
	AvgMs     float64         `json:"avg_ms"`
	P50Ms     float64         `json:"p50_ms"`
	P95Ms     float64         `json:"p95_ms"`
	P99Ms     float64         `json:"p99_ms"`
}

// ParseStats keeps the parses of a rolling window: how long they took, how
// they failed and how much they extracted.
type ParseStats struct {
	mu      sync.Mutex
	window  time.Duration
	samples []parseSample
}

func NewParseStats(window time.Duration) *ParseStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ParseStats{window: window}
}

// Record adds one finished parse. positions is the number of counted
// positions of the result and is ignored for failed parses.
func (s *ParseStats) Record(elapsed time.Duration, positions int, err error) {
	sm := parseSample{
		at:      time.Now(),
		ms:      max(elapsed.Milliseconds(), 0),
		outcome: OutcomeOf(err),
	}
	if sm.outcome == OutcomeOK {
		sm.positions = positions
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(sm.at)
	s.samples = append(s.samples, sm)
}

func (s *ParseStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(time.Now())

	snap := StatsSnapshot{Failures: map[Outcome]int{}}
	if len(s.samples) == 0 {
		return snap
	}

	durations := make([]int64, len(s.samples))
	var sum int64
	for i, sm := range s.samples {
		durations[i] = sm.ms
		sum += sm.ms
		if sm.outcome != OutcomeOK {
			snap.Failed++
			snap.Failures[sm.outcome]++
		}
		snap.Positions += sm.positions
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	snap.Count = len(durations)
	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(sum) / float64(len(durations))
	snap.P50Ms = rankValue(durations, 0.50)
	snap.P95Ms = rankValue(durations, 0.95)
	snap.P99Ms = rankValue(durations, 0.99)
	return snap
}

// expireLocked drops samples older than the window. Samples are appended in
// time order, so the expired ones form a prefix.
func (s *ParseStats) expireLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := sort.Search(len(s.samples), func(i int) bool {
		return !s.samples[i].at.Before(cutoff)
	})
	if i > 0 {
		s.samples = append(s.samples[:0], s.samples[i:]...)
	}
}

// rankValue interpolates the q-quantile (0..1) of sorted durations.
func rankValue(sorted []int64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := q * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return float64(sorted[n-1])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
