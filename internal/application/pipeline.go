package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/chat"
	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/metrics"
	"github.com/otcflow/signaldesk/internal/parser"
	"github.com/otcflow/signaldesk/internal/reconcile"
	"github.com/otcflow/signaldesk/internal/store"
)

// PassSummary reports one reconciliation pass.
type PassSummary struct {
	Messages   int
	Candidates int
	Applied    int
	Pruned     int
	Plan       reconcile.Plan
}

// Pipeline runs reconciliation passes: fetch recent chat messages, parse,
// dedup, write the minimal set against one consistent log view, then prune.
// Passes must be externally serialized; the pipeline takes no internal lock.
type Pipeline struct {
	stream     chat.Stream
	parser     *parser.Parser
	log        store.SignalLog
	writer     *reconcile.Writer
	pruner     *reconcile.Pruner
	fetchLimit int
	metrics    *metrics.Registry
}

func NewPipeline(stream chat.Stream, p *parser.Parser, sl store.SignalLog,
	writer *reconcile.Writer, pruner *reconcile.Pruner, fetchLimit int, reg *metrics.Registry) *Pipeline {
	return &Pipeline{
		stream:     stream,
		parser:     p,
		log:        sl,
		writer:     writer,
		pruner:     pruner,
		fetchLimit: fetchLimit,
		metrics:    reg,
	}
}

// RunPass executes one full pass. A write failure aborts the pass's remaining
// batches and is returned alongside the counts applied so far; committed
// writes stand and the next pass skips them via dedup.
func (p *Pipeline) RunPass(ctx context.Context) (PassSummary, error) {
	started := time.Now()
	if p.metrics != nil {
		p.metrics.PassesTotal.Inc()
		defer func() { p.metrics.PassDuration.Observe(time.Since(started).Seconds()) }()
	}

	msgs, err := p.stream.Recent(ctx, p.fetchLimit)
	if err != nil {
		return PassSummary{}, fmt.Errorf("fetch chat messages: %w", err)
	}

	candidates := p.collect(msgs)
	summary := PassSummary{Messages: len(msgs), Candidates: len(candidates)}

	view, err := p.log.Snapshot(ctx)
	if err != nil {
		return summary, fmt.Errorf("snapshot canonical log: %w", err)
	}

	plan := reconcile.BuildPlan(candidates, view)
	summary.Plan = plan

	applied, err := p.writer.Apply(ctx, plan)
	summary.Applied = applied
	if p.metrics != nil {
		p.metrics.WritesTotal.WithLabelValues("update").Add(float64(min(applied, len(plan.Updates))))
		if extra := applied - len(plan.Updates); extra > 0 {
			p.metrics.WritesTotal.WithLabelValues("append").Add(float64(extra))
		}
	}
	if err != nil {
		return summary, err
	}

	pruned, err := p.pruner.Prune(ctx)
	summary.Pruned = pruned
	if err != nil {
		return summary, err
	}
	if p.metrics != nil {
		p.metrics.RowsPruned.Add(float64(pruned))
	}

	log.Info().
		Str("pass", plan.PassID.String()).
		Int("messages", summary.Messages).
		Int("candidates", summary.Candidates).
		Int("applied", summary.Applied).
		Int("pruned", summary.Pruned).
		Dur("took", time.Since(started)).
		Msg("reconciliation pass complete")

	return summary, nil
}

// collect parses messages into dated candidates. Non-signal messages are
// discarded quietly; they are the bulk of chat traffic.
func (p *Pipeline) collect(msgs []chat.Message) []domain.Signal {
	candidates := make([]domain.Signal, 0, len(msgs))
	for _, msg := range msgs {
		res, ok := p.parser.Parse(msg.Text)
		if !ok {
			if p.metrics != nil {
				p.metrics.ParseMisses.Inc()
			}
			log.Debug().Int64("message", msg.ID).Msg("no signal shape in message")
			continue
		}
		sig := res.Signal
		sig.Date = attributeDate(msg.Timestamp, sig.Time)
		candidates = append(candidates, sig)
		if p.metrics != nil {
			p.metrics.Candidates.Inc()
		}
	}
	return candidates
}

// attributeDate assigns the trading day. A result posted shortly after
// midnight reports a signal from the previous day: when the signal's
// time-of-day is later than the message's, the signal belongs to yesterday.
func attributeDate(msgTime time.Time, tod domain.TimeOfDay) time.Time {
	msgTod := msgTime.Hour()*3600 + msgTime.Minute()*60 + msgTime.Second()
	day := time.Date(msgTime.Year(), msgTime.Month(), msgTime.Day(), 0, 0, 0, 0, time.UTC)
	if int(tod) > msgTod {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
