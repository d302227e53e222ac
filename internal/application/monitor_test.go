package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcflow/signaldesk/internal/calendar"
	"github.com/otcflow/signaldesk/internal/chat"
	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/notify"
	"github.com/otcflow/signaldesk/internal/parser"
	"github.com/otcflow/signaldesk/internal/stats"
	"github.com/otcflow/signaldesk/internal/store"
)

type recordingNotifier struct {
	mu      sync.Mutex
	reports []notify.Report
}

func (n *recordingNotifier) Publish(report notify.Report) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, report)
}

func (n *recordingNotifier) snapshot() []notify.Report {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Report(nil), n.reports...)
}

type calendarStub struct {
	events []domain.NewsEvent
	err    error
}

func (c calendarStub) Fetch(ctx context.Context) ([]domain.NewsEvent, error) {
	return c.events, c.err
}

func TestMonitorScoresLiveEntryAndRunsDelayedPass(t *testing.T) {
	live := chat.Message{
		ID:        10,
		Timestamp: at("15/03/2026", "16:01:00"),
		Text:      "Ativo: EURUSD-OTC\nHorário: 16:05:00\nDireção: CALL",
	}
	stream := &chat.ReplayStream{Messages: []chat.Message{live}}
	sl := store.NewMemoryLog()

	notifier := &recordingNotifier{}
	scorer := newScorer(&stubSource{raw: stats.RawStats{
		AssetRows: []stats.Row{{Name: "EURUSD-OTC", Cell: "90%"}},
	}}, false)
	refresher := calendar.NewRefresher(calendarStub{}, calendar.NewMemoryState())

	mon := NewMonitor(stream, parser.New(), scorer, newTestPipeline(stream, sl),
		refresher, notifier, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	err := mon.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	reports := notifier.snapshot()
	require.Len(t, reports, 1)
	assert.Equal(t, "EURUSD-OTC", reports[0].Result.Asset)
	assert.Equal(t, "16:05:00", reports[0].Result.Time.String())
	assert.Equal(t, domain.StronglyRecommended, reports[0].Result.Tier)

	// The startup pass already reconciled the replayed entry; the delayed
	// pass must not duplicate it.
	view, err := sl.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, domain.OutcomePending, view.Rows[0].Signal.Outcome)
}

func TestMonitorIgnoresNonSignalMessages(t *testing.T) {
	stream := &chat.ReplayStream{Messages: []chat.Message{
		{ID: 1, Timestamp: at("15/03/2026", "16:00:00"), Text: "vamos operar?"},
	}}
	sl := store.NewMemoryLog()

	notifier := &recordingNotifier{}
	scorer := newScorer(&stubSource{}, false)
	refresher := calendar.NewRefresher(calendarStub{}, calendar.NewMemoryState())

	mon := NewMonitor(stream, parser.New(), scorer, newTestPipeline(stream, sl),
		refresher, notifier, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, mon.Run(ctx), context.DeadlineExceeded)

	assert.Empty(t, notifier.snapshot())
}

func TestMonitorReportShowsEventsTheScoreUsed(t *testing.T) {
	live := chat.Message{
		ID:        10,
		Timestamp: at("15/03/2026", "16:01:00"),
		Text:      "Ativo: EURUSD-OTC\nHorário: 16:05:00\nDireção: CALL",
	}
	stream := &chat.ReplayStream{Messages: []chat.Message{live}}
	sl := store.NewMemoryLog()

	// Calendar refresh fails, so scoring falls back to the stats snapshot's
	// calendar rows; the report must list the same event that cost a point.
	notifier := &recordingNotifier{}
	scorer := newScorer(&stubSource{raw: stats.RawStats{
		NewsRows: [][]string{{"16:15", "USD", "3", "NFP"}},
	}}, false)
	refresher := calendar.NewRefresher(calendarStub{err: assert.AnError}, calendar.NewMemoryState())

	mon := NewMonitor(stream, parser.New(), scorer, newTestPipeline(stream, sl),
		refresher, notifier, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, mon.Run(ctx), context.DeadlineExceeded)

	reports := notifier.snapshot()
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Result.QualifyingImpact)
	require.Len(t, reports[0].NearbyNews, 1)
	assert.Equal(t, "NFP", reports[0].NearbyNews[0].Text)
	assert.Equal(t, reports[0].Result.QualifyingImpact.Text, reports[0].NearbyNews[0].Text)
}

func TestMonitorUsesRefreshedCalendar(t *testing.T) {
	live := chat.Message{
		ID:        10,
		Timestamp: at("15/03/2026", "16:01:00"),
		Text:      "Ativo: EURUSD-OTC\nHorário: 16:05:00\nDireção: CALL",
	}
	stream := &chat.ReplayStream{Messages: []chat.Message{live}}
	sl := store.NewMemoryLog()

	// High-impact event ten minutes after the entry, delivered by the
	// calendar collaborator rather than the stats snapshot.
	cal := calendarStub{events: []domain.NewsEvent{
		{Time: domain.MustTimeOfDay("16:15:00"), Currency: "USD", Impact: 3, Text: "NFP"},
	}}
	notifier := &recordingNotifier{}
	scorer := newScorer(&stubSource{}, false)
	refresher := calendar.NewRefresher(cal, calendar.NewMemoryState())

	mon := NewMonitor(stream, parser.New(), scorer, newTestPipeline(stream, sl),
		refresher, notifier, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, mon.Run(ctx), context.DeadlineExceeded)

	reports := notifier.snapshot()
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].Result.QualifyingImpact)
	assert.Equal(t, 3, reports[0].Result.QualifyingImpact.Impact)
	assert.Equal(t, domain.NotRecommended, reports[0].Result.Tier)
}
