package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/store"
)

// RetentionCap bounds the canonical log size. The cap counts header plus data
// rows, matching how the storage collaborator reports its row total.
type RetentionCap struct {
	HeaderRows int `yaml:"header_rows"`
	DataRows   int `yaml:"data_rows"`
}

func DefaultRetentionCap() RetentionCap {
	return RetentionCap{HeaderRows: store.HeaderRowCount, DataRows: 500}
}

func (c RetentionCap) Validate() error {
	if c.HeaderRows < 0 {
		return fmt.Errorf("retention header_rows must be non-negative, got %d", c.HeaderRows)
	}
	if c.DataRows <= 0 {
		return fmt.Errorf("retention data_rows must be positive, got %d", c.DataRows)
	}
	return nil
}

// Pruner caps the log after a reconciliation pass. Above the cap it keeps the
// header rows verbatim plus the most recent DataRows data rows by log order
// and rewrites the log in one atomic replace; below the cap it is a no-op.
type Pruner struct {
	log store.SignalLog
	cap RetentionCap
}

func NewPruner(sl store.SignalLog, cap RetentionCap) *Pruner {
	return &Pruner{log: sl, cap: cap}
}

// Prune returns the number of rows discarded.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	view, err := p.log.Snapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("prune snapshot: %w", err)
	}

	if view.TotalRows() <= p.cap.HeaderRows+p.cap.DataRows {
		log.Debug().Int("rows", view.TotalRows()).Msg("retention cap not reached")
		return 0, nil
	}

	keepFrom := len(view.Rows) - p.cap.DataRows
	if keepFrom <= 0 {
		// Oversized header alone tripped the cap; there is nothing to discard.
		return 0, nil
	}
	kept := make([]domain.Signal, 0, p.cap.DataRows)
	for _, row := range view.Rows[keepFrom:] {
		kept = append(kept, row.Signal)
	}

	if err := p.log.Rewrite(ctx, view.Header, kept); err != nil {
		return 0, fmt.Errorf("prune rewrite: %w", err)
	}

	discarded := keepFrom
	log.Info().Int("discarded", discarded).Int("kept", len(kept)).Msg("log pruned")
	return discarded, nil
}
