// Package reconcile chooses one summary per student across track files.
package reconcile

import (
	"github.com/nconklindev/rollup/internal/types"
)

// Reconciler holds the per-source summaries of one cohort, in source order.
type Reconciler struct {
	sources []types.Source
}

// New returns a Reconciler over sources. Order matters: on a full tie the
// later source wins.
func New(sources ...types.Source) *Reconciler {
	return &Reconciler{sources: sources}
}

// Pick chooses between two summaries of the same student. More sessions
// attended wins; on equal sessions b wins unless a appeared in strictly more
// tests.
func Pick(a, b types.SourceSummary) types.SourceSummary {
	switch {
	case a.SessionsAttended > b.SessionsAttended:
		return a
	case b.SessionsAttended > a.SessionsAttended:
		return b
	case b.TestsAppeared >= a.TestsAppeared:
		return b
	default:
		return a
	}
}

// Merge returns one summary per key present in any source.
func (r *Reconciler) Merge() map[string]types.SourceSummary {
	out := make(map[string]types.SourceSummary)
	for _, src := range r.sources {
		for k, s := range src.Summaries {
			if prev, ok := out[k]; ok {
				out[k] = Pick(prev, s)
				continue
			}
			out[k] = s
		}
	}
	return out
}

// Lookup probes every source with keys in priority order, taking the first
// key each source knows, and picks among the matches in source order.
func (r *Reconciler) Lookup(keys ...string) (types.SourceSummary, bool) {
	var (
		chosen types.SourceSummary
		found  bool
	)
	for _, src := range r.sources {
		s, ok := probe(src.Summaries, keys)
		if !ok {
			continue
		}
		if !found {
			chosen, found = s, true
			continue
		}
		chosen = Pick(chosen, s)
	}
	return chosen, found
}

func probe(m map[string]types.SourceSummary, keys []string) (types.SourceSummary, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if s, ok := m[k]; ok {
			return s, true
		}
	}
	return types.SourceSummary{}, false
}

// Totals are the cohort-wide lecture and test counts used when a registered
// student has no data anywhere.
func (r *Reconciler) Totals() (sessions, tests int) {
	for _, src := range r.sources {
		sessions = max(sessions, src.LectureCount)
		tests = max(tests, src.ScoreColCount)
	}
	return sessions, tests
}
