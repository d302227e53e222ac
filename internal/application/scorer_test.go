package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otcflow/signaldesk/internal/cache"
	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/news"
	"github.com/otcflow/signaldesk/internal/score"
	"github.com/otcflow/signaldesk/internal/stats"
)

type stubSource struct {
	raw stats.RawStats
	err error

	calls int
}

func (s *stubSource) Fetch(ctx context.Context) (stats.RawStats, error) {
	s.calls++
	return s.raw, s.err
}

func newScorer(source stats.Source, allowPartial bool) *Scorer {
	matcher := news.NewMatcher(nil)
	engine := score.NewEngine(score.DefaultConfig(), matcher)
	provider := NewSnapshotProvider(source, nil, time.Minute)
	return NewScorer(engine, matcher, provider, stats.DefaultThresholds(), allowPartial, nil)
}

func TestScoreUsesSnapshotNewsRows(t *testing.T) {
	source := &stubSource{raw: stats.RawStats{
		AssetRows: []stats.Row{{Name: "EURUSD-OTC", Cell: "90%"}},
		NewsRows:  [][]string{{"16:10", "USD", "3", "NFP"}},
	}}
	s := newScorer(source, false)

	res, err := s.Score(context.Background(), " eurusd-otc ", "16:00:00")
	require.NoError(t, err)

	// +1 asset, -1 high-impact news inside its window, +1 good-time+good-asset
	// bonus because the news rules out the first bonus.
	assert.Equal(t, "EURUSD-OTC", res.Asset)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, domain.Recommended, res.Tier)
	assert.Contains(t, res.Criteria, score.BonusTimeGoodAsset)
	require.NotNil(t, res.QualifyingImpact)
	assert.Equal(t, 3, res.QualifyingImpact.Impact)
}

func TestScoreWithEventsOverridesSnapshotCalendar(t *testing.T) {
	source := &stubSource{raw: stats.RawStats{
		NewsRows: [][]string{{"16:10", "USD", "3", "NFP"}},
	}}
	s := newScorer(source, false)

	res, err := s.ScoreWithEvents(context.Background(), "EURUSD-OTC", "16:00:00", []domain.NewsEvent{})
	require.NoError(t, err)

	// Explicit empty snapshot means the calendar rows are ignored.
	assert.Nil(t, res.QualifyingImpact)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, domain.Recommended, res.Tier)
}

func TestScoreInvalidTime(t *testing.T) {
	s := newScorer(&stubSource{}, false)

	_, err := s.Score(context.Background(), "EURUSD-OTC", "not-a-time")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestScoreFailsFastWhenSnapshotUnavailable(t *testing.T) {
	s := newScorer(&stubSource{err: errors.New("sheet down")}, false)

	_, err := s.Score(context.Background(), "EURUSD-OTC", "16:00:00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet down")
}

func TestScoreDegradesToNeutralWhenAllowed(t *testing.T) {
	s := newScorer(&stubSource{err: errors.New("sheet down")}, true)

	res, err := s.Score(context.Background(), "EURUSD-OTC", "16:00:00")
	require.NoError(t, err)

	// Neutral asset, good time, no news, good-time bonus.
	assert.Equal(t, 1, res.Score)
	assert.Contains(t, res.Criteria, score.CriterionAssetNeutral)
}

func TestSnapshotProviderCachesWithinTTL(t *testing.T) {
	source := &stubSource{raw: stats.RawStats{
		AssetRows: []stats.Row{{Name: "EURUSD-OTC", Cell: "90%"}},
	}}
	provider := NewSnapshotProvider(source, nil, time.Minute)

	for i := 0; i < 3; i++ {
		raw, err := provider.Raw(context.Background())
		require.NoError(t, err)
		require.Len(t, raw.AssetRows, 1)
	}
	assert.Equal(t, 1, source.calls)
}

func TestSnapshotProviderEvictsUndecodableCache(t *testing.T) {
	source := &stubSource{raw: stats.RawStats{
		AssetRows: []stats.Row{{Name: "EURUSD-OTC", Cell: "90%"}},
	}}
	c := cache.NewMemory()
	c.Set(rawStatsCacheKey, []byte("{corrupt"), 0)
	provider := NewSnapshotProvider(source, c, time.Minute)

	raw, err := provider.Raw(context.Background())
	require.NoError(t, err)
	require.Len(t, raw.AssetRows, 1)
	assert.Equal(t, 1, source.calls)

	// The bad entry was replaced; the next call hits the cache.
	_, err = provider.Raw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)
}

func TestSnapshotProviderDoesNotCacheFailures(t *testing.T) {
	source := &stubSource{err: errors.New("sheet down")}
	provider := NewSnapshotProvider(source, nil, time.Minute)

	_, err := provider.Raw(context.Background())
	require.Error(t, err)
	_, err = provider.Raw(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, source.calls)
}
