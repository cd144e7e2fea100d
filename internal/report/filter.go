package report

import (
	"github.com/smartyoni/inaeFlexbook/internal/core"
)

// FilterOptions narrows a transaction set beyond the date range. The zero
// value applies no extra filters.
type FilterOptions struct {
	Kind      core.Kind // empty: both kinds
	ProjectID string    // empty: any project, including none
}

// Filter returns the transactions whose OccurredAt falls inside r, bounds
// inclusive, and which match every supplied option.
//
// A transaction whose timestamp could not be parsed at the persistence
// boundary arrives here with a zero OccurredAt; such records are dropped
// rather than aborting the report. No ordering is imposed on the result;
// sorting is the aggregator's concern.
func Filter(txs []core.Transaction, r Range, opts FilterOptions) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.OccurredAt.IsZero() {
			continue
		}
		if !r.Contains(t.OccurredAt) {
			continue
		}
		if opts.Kind != "" && t.Kind != opts.Kind {
			continue
		}
		if opts.ProjectID != "" && t.ProjectID != opts.ProjectID {
			continue
		}
		out = append(out, t)
	}
	return out
}
