// Package calendar gates the daily refresh of the scheduled-events snapshot.
// The scraper itself is an external collaborator; this package only decides
// whether today's refresh already ran and records when it does.
package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/domain"
)

// Source fetches the day's scheduled events from the external calendar.
type Source interface {
	Fetch(ctx context.Context) ([]domain.NewsEvent, error)
}

// StateStore persists the date of the last successful refresh.
type StateStore interface {
	LastRefreshDate(ctx context.Context) (string, error)
	SetLastRefreshDate(ctx context.Context, date string) error
}

// Refresher runs the calendar fetch at most once per calendar day.
type Refresher struct {
	source Source
	state  StateStore
	now    func() time.Time
}

func NewRefresher(source Source, state StateStore) *Refresher {
	return &Refresher{source: source, state: state, now: time.Now}
}

// RefreshIfStale fetches events when today's refresh has not run yet.
// It returns the fetched events and whether a fetch happened; when today's
// refresh already ran it returns (nil, false, nil) and the caller keeps its
// current snapshot.
func (r *Refresher) RefreshIfStale(ctx context.Context) ([]domain.NewsEvent, bool, error) {
	today := r.now().Format(domain.DateLayout)

	last, err := r.state.LastRefreshDate(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read last refresh date: %w", err)
	}
	if last == today {
		log.Debug().Str("date", today).Msg("calendar already refreshed today")
		return nil, false, nil
	}

	events, err := r.source.Fetch(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("fetch calendar: %w", err)
	}
	if err := r.state.SetLastRefreshDate(ctx, today); err != nil {
		return nil, false, fmt.Errorf("record refresh date: %w", err)
	}

	log.Info().Str("date", today).Int("events", len(events)).Msg("calendar refreshed")
	return events, true, nil
}
