// Package news evaluates scheduled economic-calendar events against a
// reference time-of-day within one trading day.
package news

import (
	"sort"
	"time"

	"github.com/otcflow/signaldesk/internal/domain"
)

// ImpactWindows maps event impact (1..3) to the proximity window inside which
// the event qualifies as penalizable. Impact 0 never qualifies.
type ImpactWindows map[int]time.Duration

// DefaultImpactWindows returns the standard windows: higher impact reaches
// further from the reference time.
func DefaultImpactWindows() ImpactWindows {
	return ImpactWindows{
		1: 10 * time.Minute,
		2: 30 * time.Minute,
		3: 60 * time.Minute,
	}
}

// Match is the proximity result for one reference time.
type Match struct {
	NearestPast      *domain.NewsEvent
	NearestFuture    *domain.NewsEvent
	QualifyingImpact *domain.NewsEvent
}

// Matcher scans an event snapshot in a single pass. Events need no ordering.
type Matcher struct {
	windows ImpactWindows
}

func NewMatcher(windows ImpactWindows) *Matcher {
	if windows == nil {
		windows = DefaultImpactWindows()
	}
	return &Matcher{windows: windows}
}

// Match returns the nearest past event (smallest non-negative delta), the
// nearest future event (smallest magnitude among negative deltas), and the
// highest-impact event inside its impact-specific window, first seen winning
// ties.
func (m *Matcher) Match(ref domain.TimeOfDay, events []domain.NewsEvent) Match {
	var out Match
	var pastDelta, futureDelta time.Duration

	for i := range events {
		ev := &events[i]
		delta := ref.Sub(ev.Time) // positive: event already happened

		if delta >= 0 && (out.NearestPast == nil || delta < pastDelta) {
			out.NearestPast = ev
			pastDelta = delta
		}
		if delta < 0 && (out.NearestFuture == nil || -delta < futureDelta) {
			out.NearestFuture = ev
			futureDelta = -delta
		}

		window, ok := m.windows[ev.Impact]
		if !ok {
			continue
		}
		abs := delta
		if abs < 0 {
			abs = -abs
		}
		if abs <= window && (out.QualifyingImpact == nil || ev.Impact > out.QualifyingImpact.Impact) {
			out.QualifyingImpact = ev
		}
	}

	return out
}

// Closest returns up to limit events ordered by absolute distance from ref,
// for display in score reports.
func (m *Matcher) Closest(ref domain.TimeOfDay, events []domain.NewsEvent, limit int) []domain.NewsEvent {
	sorted := make([]domain.NewsEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, dj := ref.Sub(sorted[i].Time), ref.Sub(sorted[j].Time)
		if di < 0 {
			di = -di
		}
		if dj < 0 {
			dj = -dj
		}
		return di < dj
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
