// Package store defines the canonical signal log consumed by the
// reconciliation engine. The log is append-mostly: rows are created by
// reconciliation, mutated only to resolve a pending outcome, and destroyed
// only by a retention rewrite.
package store

import (
	"context"

	"github.com/otcflow/signaldesk/internal/domain"
)

// HeaderRowCount is the number of non-data rows preserved at the top of the
// log across retention rewrites.
const HeaderRowCount = 2

// Row is one data row together with its position in the log. Positions are
// stable between a snapshot and the writes computed from it; passes are
// externally serialized, so no other writer moves rows in between.
type Row struct {
	Index  int // position among data rows, 0-based, in log order
	Signal domain.Signal
}

// View is a consistent read of the whole log taken at pass start.
type View struct {
	Header [][]string
	Rows   []Row
}

// TotalRows is header rows plus data rows, the quantity the retention cap
// is measured against.
func (v *View) TotalRows() int {
	return len(v.Header) + len(v.Rows)
}

// Lookup builds a key index over the view's rows. First occurrence wins.
func (v *View) Lookup() map[domain.Key]Row {
	m := make(map[domain.Key]Row, len(v.Rows))
	for _, r := range v.Rows {
		k := r.Signal.Key()
		if _, exists := m[k]; !exists {
			m[k] = r
		}
	}
	return m
}

// SignalLog is the storage collaborator behind the canonical log.
// Implementations must apply UpdateRow and AppendRows sequentially in call
// order; Rewrite replaces the entire log atomically.
type SignalLog interface {
	Snapshot(ctx context.Context) (*View, error)
	UpdateRow(ctx context.Context, index int, sig domain.Signal) error
	AppendRows(ctx context.Context, sigs []domain.Signal) error
	Rewrite(ctx context.Context, header [][]string, rows []domain.Signal) error
}
