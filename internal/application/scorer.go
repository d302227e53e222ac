package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/metrics"
	"github.com/otcflow/signaldesk/internal/news"
	"github.com/otcflow/signaldesk/internal/score"
	"github.com/otcflow/signaldesk/internal/stats"
)

// ErrInvalidTime marks a scoring request whose time could not be parsed.
// It is the caller's input error, not a snapshot problem.
var ErrInvalidTime = errors.New("invalid time of day")

// Scorer serves scoring requests: it assembles the stats index and news
// snapshot around the pure scoring engine. Calls are independent and
// read-only; they may run concurrently with each other.
type Scorer struct {
	engine       *score.Engine
	matcher      *news.Matcher
	provider     *SnapshotProvider
	thresholds   stats.Thresholds
	allowPartial bool
	metrics      *metrics.Registry
}

func NewScorer(engine *score.Engine, matcher *news.Matcher, provider *SnapshotProvider,
	thresholds stats.Thresholds, allowPartial bool, reg *metrics.Registry) *Scorer {
	return &Scorer{
		engine:       engine,
		matcher:      matcher,
		provider:     provider,
		thresholds:   thresholds,
		allowPartial: allowPartial,
		metrics:      reg,
	}
}

// Score evaluates one (asset, time) pair. News events come from the stats
// snapshot's calendar rows.
func (s *Scorer) Score(ctx context.Context, asset, timeStr string) (domain.ScoreResult, error) {
	return s.ScoreWithEvents(ctx, asset, timeStr, nil)
}

// ScoreWithEvents is Score with an externally refreshed events snapshot (the
// daily calendar collaborator) taking precedence over the stats source's
// calendar rows.
func (s *Scorer) ScoreWithEvents(ctx context.Context, asset, timeStr string, events []domain.NewsEvent) (domain.ScoreResult, error) {
	tod, err := domain.ParseTimeOfDay(timeStr)
	if err != nil {
		s.countFailure()
		return domain.ScoreResult{}, fmt.Errorf("%w: %q", ErrInvalidTime, timeStr)
	}

	raw, err := s.provider.Raw(ctx)
	if err != nil {
		if !s.allowPartial {
			s.countFailure()
			return domain.ScoreResult{}, err
		}
		// Degrade to a neutral snapshot: every classification comes out
		// neutral/good and only the supplied events still count.
		log.Warn().Err(err).Msg("stats snapshot unavailable, scoring with neutral classification")
		raw = stats.RawStats{}
	}

	idx := stats.BuildIndex(raw, s.thresholds)
	if events == nil {
		events = news.ParseRows(raw.NewsRows)
	}

	res := s.engine.Score(strings.ToUpper(strings.TrimSpace(asset)), tod, idx, events)
	if s.metrics != nil {
		s.metrics.ScoreRequests.WithLabelValues(string(res.Tier)).Inc()
	}
	return res, nil
}

// SnapshotEvents returns the calendar rows of the current stats snapshot,
// for callers that need the same event set scoring would fall back to.
func (s *Scorer) SnapshotEvents(ctx context.Context) ([]domain.NewsEvent, error) {
	raw, err := s.provider.Raw(ctx)
	if err != nil {
		return nil, err
	}
	return news.ParseRows(raw.NewsRows), nil
}

// NearbyNews lists the closest events around tod for report display.
func (s *Scorer) NearbyNews(events []domain.NewsEvent, tod domain.TimeOfDay, limit int) []domain.NewsEvent {
	return s.matcher.Closest(tod, events, limit)
}

func (s *Scorer) countFailure() {
	if s.metrics != nil {
		s.metrics.ScoreFailures.Inc()
	}
}
