package application

import (
	"context"

	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/news"
)

// StatsCalendarSource derives the day's scheduled events from the stats
// snapshot's calendar rows. The scraper that populates those rows runs
// elsewhere; reusing the snapshot keeps one fetch path.
type StatsCalendarSource struct {
	Provider *SnapshotProvider
}

func (s StatsCalendarSource) Fetch(ctx context.Context) ([]domain.NewsEvent, error) {
	raw, err := s.Provider.Raw(ctx)
	if err != nil {
		return nil, err
	}
	return news.ParseRows(raw.NewsRows), nil
}
