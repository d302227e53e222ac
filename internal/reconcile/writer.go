package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/otcflow/signaldesk/internal/store"
)

// WriterConfig controls write pacing against the storage collaborator.
type WriterConfig struct {
	BatchSize       int           `yaml:"write_batch_size"`
	InterBatchDelay time.Duration `yaml:"inter_batch_delay"`
}

func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:       100,
		InterBatchDelay: 500 * time.Millisecond,
	}
}

func (c WriterConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("write_batch_size must be positive, got %d", c.BatchSize)
	}
	if c.InterBatchDelay < 0 {
		return fmt.Errorf("inter_batch_delay must be non-negative, got %s", c.InterBatchDelay)
	}
	return nil
}

// PartialError reports a pass that aborted mid-way. Applied writes stand;
// the dedup key makes a retried pass idempotent, so nothing is rolled back.
type PartialError struct {
	Applied int
	Pending int
	Err     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("reconciliation aborted after %d of %d writes: %v",
		e.Applied, e.Applied+e.Pending, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Writer applies a plan's writes strictly sequentially: updates first, then
// appends in fixed-size batches spaced by the inter-batch delay. Every storage
// call goes through a circuit breaker so a flapping collaborator fails fast.
type Writer struct {
	log     store.SignalLog
	cfg     WriterConfig
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

func NewWriter(sl store.SignalLog, cfg WriterConfig) *Writer {
	limit := rate.Inf
	if cfg.InterBatchDelay > 0 {
		limit = rate.Every(cfg.InterBatchDelay)
	}
	return &Writer{
		log:     sl,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "signal-log-writes",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).
					Str("from", from.String()).Str("to", to.String()).
					Msg("signal log breaker state change")
			},
		}),
	}
}

// Apply executes the plan. On a write failure it aborts the remaining batches
// and returns a *PartialError with applied/pending counts.
func (w *Writer) Apply(ctx context.Context, plan Plan) (int, error) {
	applied := 0
	pending := plan.Writes()

	fail := func(err error) (int, error) {
		return applied, &PartialError{Applied: applied, Pending: pending, Err: err}
	}

	for _, upd := range plan.Updates {
		if err := w.write(ctx, func() error { return w.log.UpdateRow(ctx, upd.Index, upd.Signal) }); err != nil {
			return fail(fmt.Errorf("update row %d: %w", upd.Index, err))
		}
		applied++
		pending--
		log.Info().Str("pass", plan.PassID.String()).Int("row", upd.Index).
			Str("outcome", string(upd.Signal.Outcome)).Msg("resolved pending row")
	}

	for start := 0; start < len(plan.Appends); start += w.cfg.BatchSize {
		end := start + w.cfg.BatchSize
		if end > len(plan.Appends) {
			end = len(plan.Appends)
		}
		batch := plan.Appends[start:end]

		if err := w.limiter.Wait(ctx); err != nil {
			return fail(fmt.Errorf("inter-batch pacing: %w", err))
		}
		if err := w.write(ctx, func() error { return w.log.AppendRows(ctx, batch) }); err != nil {
			return fail(fmt.Errorf("append batch of %d: %w", len(batch), err))
		}
		applied += len(batch)
		pending -= len(batch)
		log.Info().Str("pass", plan.PassID.String()).Int("batch", len(batch)).
			Int("applied", applied).Msg("append batch written")
	}

	return applied, nil
}

func (w *Writer) write(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}
