package application

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/calendar"
	"github.com/otcflow/signaldesk/internal/chat"
	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/notify"
	"github.com/otcflow/signaldesk/internal/parser"
)

// Monitor is the long-running loop: it watches live chat messages, scores
// fresh entry signals, and schedules a delayed reconciliation pass so the
// eventual WIN/LOSS edit has landed before the pass reads the chat. All state
// mutation happens on the loop goroutine; the watcher only feeds a channel.
type Monitor struct {
	watcher   chat.Watcher
	parser    *parser.Parser
	scorer    *Scorer
	pipeline  *Pipeline
	refresher *calendar.Refresher
	notifier  notify.Notifier

	passDelay   time.Duration
	newsDisplay int

	events []domain.NewsEvent
}

func NewMonitor(watcher chat.Watcher, p *parser.Parser, scorer *Scorer, pipeline *Pipeline,
	refresher *calendar.Refresher, notifier notify.Notifier, passDelay time.Duration) *Monitor {
	return &Monitor{
		watcher:     watcher,
		parser:      p,
		scorer:      scorer,
		pipeline:    pipeline,
		refresher:   refresher,
		notifier:    notifier,
		passDelay:   passDelay,
		newsDisplay: 3,
	}
}

// Run blocks until ctx is done. It refreshes the calendar and runs a catch-up
// reconciliation pass on start, then serves live messages.
func (m *Monitor) Run(ctx context.Context) error {
	m.refreshCalendar(ctx)
	if _, err := m.pipeline.RunPass(ctx); err != nil {
		log.Error().Err(err).Msg("startup reconciliation pass failed")
	}

	msgs := make(chan chat.Message, 64)
	watchErr := make(chan error, 1)
	go func() { watchErr <- m.watcher.Watch(ctx, msgs) }()

	// Delayed passes are requested by live signals and drained here, on the
	// loop goroutine, so passes never overlap.
	passDue := make(chan struct{}, 16)

	daily := time.NewTicker(time.Minute)
	defer daily.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-watchErr:
			return err
		case <-daily.C:
			m.refreshCalendar(ctx)
		case <-passDue:
			if _, err := m.pipeline.RunPass(ctx); err != nil {
				log.Error().Err(err).Msg("delayed reconciliation pass failed")
			}
		case msg := <-msgs:
			m.handleMessage(ctx, msg, passDue)
		}
	}
}

func (m *Monitor) handleMessage(ctx context.Context, msg chat.Message, passDue chan<- struct{}) {
	res, ok := m.parser.Parse(msg.Text)
	if !ok {
		return
	}

	// Every signal sighting warrants a follow-up pass once the result edit
	// has had time to appear.
	m.schedulePass(passDue)

	if res.Kind != parser.KindLiveEntry {
		return
	}

	// One event set feeds both the score and the report, so the displayed
	// news always matches what the score was computed from.
	events := m.currentEvents(ctx)

	sr, err := m.scorer.ScoreWithEvents(ctx, res.Signal.Asset, res.Signal.Time.String(), events)
	if err != nil {
		log.Error().Err(err).Str("asset", res.Signal.Asset).Msg("scoring live signal failed")
		return
	}
	m.notifier.Publish(notify.Report{
		Result:     sr,
		NearbyNews: m.scorer.NearbyNews(events, sr.Time, m.newsDisplay),
	})
}

func (m *Monitor) schedulePass(passDue chan<- struct{}) {
	time.AfterFunc(m.passDelay, func() {
		select {
		case passDue <- struct{}{}:
		default:
			// A pass is already queued; it will cover this signal too.
		}
	})
}

func (m *Monitor) refreshCalendar(ctx context.Context) {
	events, fetched, err := m.refresher.RefreshIfStale(ctx)
	if err != nil {
		log.Error().Err(err).Msg("calendar refresh failed, keeping previous snapshot")
		return
	}
	if fetched {
		m.events = events
	}
}

// currentEvents returns the refreshed calendar snapshot, falling back to the
// stats snapshot's calendar rows until the first refresh lands.
func (m *Monitor) currentEvents(ctx context.Context) []domain.NewsEvent {
	if m.events != nil {
		return m.events
	}
	events, err := m.scorer.SnapshotEvents(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("stats snapshot calendar unavailable for display")
		return nil
	}
	return events
}
