package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcflow/signaldesk/internal/domain"
)

type fakeSource struct {
	events  []domain.NewsEvent
	err     error
	fetches int
}

func (f *fakeSource) Fetch(ctx context.Context) ([]domain.NewsEvent, error) {
	f.fetches++
	return f.events, f.err
}

func fixedClock(day string) func() time.Time {
	d, err := time.Parse(domain.DateLayout, day)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return d }
}

func TestRefreshIfStale_RunsOncePerDay(t *testing.T) {
	src := &fakeSource{events: []domain.NewsEvent{{Time: domain.MustTimeOfDay("14:30"), Impact: 3}}}
	r := NewRefresher(src, NewMemoryState())
	r.now = fixedClock("28/08/2026")

	events, fetched, err := r.RefreshIfStale(context.Background())
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Len(t, events, 1)

	_, fetched, err = r.RefreshIfStale(context.Background())
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Equal(t, 1, src.fetches)
}

func TestRefreshIfStale_NewDayRefreshesAgain(t *testing.T) {
	src := &fakeSource{}
	state := NewMemoryState()
	r := NewRefresher(src, state)

	r.now = fixedClock("28/08/2026")
	_, fetched, err := r.RefreshIfStale(context.Background())
	require.NoError(t, err)
	assert.True(t, fetched)

	r.now = fixedClock("29/08/2026")
	_, fetched, err = r.RefreshIfStale(context.Background())
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, 2, src.fetches)
}

func TestRefreshIfStale_FetchFailureDoesNotRecordDate(t *testing.T) {
	src := &fakeSource{err: errors.New("scrape blocked")}
	state := NewMemoryState()
	r := NewRefresher(src, state)
	r.now = fixedClock("28/08/2026")

	_, _, err := r.RefreshIfStale(context.Background())
	require.Error(t, err)

	date, _ := state.LastRefreshDate(context.Background())
	assert.Empty(t, date, "a failed refresh must stay retryable today")
}
