// Package reconcile folds freshly parsed candidate signals into the canonical
// log: batch dedup, insert-or-resolve decisions, paced batch writes, and
// retention pruning. A pass is idempotent: re-running it against an up-to-date
// log produces zero writes.
package reconcile

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/store"
)

// RowUpdate resolves one existing pending row in place.
type RowUpdate struct {
	Index  int
	Signal domain.Signal
}

// Plan is the minimal write set computed from one consistent log view.
type Plan struct {
	PassID  uuid.UUID
	Updates []RowUpdate
	Appends []domain.Signal

	// Pass statistics for logging and metrics.
	Candidates int
	Deduped    int // dropped as duplicate keys within the batch
	Skipped    int // matched an existing row but required no write
	Invalid    int // failed field validation
}

// BuildPlan dedups candidates by (date, time) key, keeping the first
// occurrence in batch order, then decides insert/update/skip per candidate
// against the view. It never deletes rows and never downgrades a resolved
// outcome.
func BuildPlan(candidates []domain.Signal, view *store.View) Plan {
	plan := Plan{PassID: uuid.New(), Candidates: len(candidates)}

	existing := view.Lookup()
	seen := make(map[domain.Key]bool, len(candidates))

	for _, cand := range candidates {
		key := cand.Key()
		if seen[key] {
			plan.Deduped++
			continue
		}
		seen[key] = true

		if err := cand.Validate(); err != nil {
			plan.Invalid++
			log.Warn().Err(err).Str("pass", plan.PassID.String()).
				Str("key", key.Date+" "+key.Time).Msg("candidate rejected")
			continue
		}

		row, found := existing[key]
		switch {
		case !found:
			plan.Appends = append(plan.Appends, cand)
		case row.Signal.Outcome == domain.OutcomePending && cand.Outcome.Resolved():
			plan.Updates = append(plan.Updates, RowUpdate{Index: row.Index, Signal: cand})
		default:
			// Already resolved, or candidate still pending: idempotent no-op.
			plan.Skipped++
		}
	}

	log.Info().
		Str("pass", plan.PassID.String()).
		Int("candidates", plan.Candidates).
		Int("appends", len(plan.Appends)).
		Int("updates", len(plan.Updates)).
		Int("deduped", plan.Deduped).
		Int("skipped", plan.Skipped).
		Int("invalid", plan.Invalid).
		Msg("reconciliation plan built")

	return plan
}

// Writes is the total write count the plan will issue.
func (p Plan) Writes() int {
	return len(p.Updates) + len(p.Appends)
}
