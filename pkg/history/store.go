// Package history reconstructs and bounds the list of earlier runs kept
// inside a managed report section.
package history

import "github.com/cicd-ai-toolkit/report-publisher/pkg/run"

// DefaultLimit is the number of earlier runs kept when none is configured.
const DefaultLimit = 10

// Store is a bounded, newest-first list of earlier runs.
type Store struct {
	limit   int
	entries []run.Record
}

// New returns an empty store holding at most limit entries.
func New(limit int) Store {
	if limit < 1 {
		limit = DefaultLimit
	}
	return Store{limit: limit}
}

// Merge builds the history shown next to current from the prior entries
// parsed out of the previous document. Entries for the current run are
// dropped so re-publishing the same report does not list it twice, and
// only the newest Limit entries are kept.
func Merge(current run.Record, prior []run.Record, limit int) Store {
	s := New(limit)
	for _, e := range prior {
		if e.Key() == current.Key() {
			continue
		}
		if len(s.entries) == s.limit {
			break
		}
		s.entries = append(s.entries, e)
	}
	return s
}

// Entries returns a copy of the stored runs, newest first.
func (s Store) Entries() []run.Record {
	out := make([]run.Record, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of stored runs.
func (s Store) Len() int { return len(s.entries) }

// Limit returns the maximum number of stored runs.
func (s Store) Limit() int { return s.limit }
