// Package score evaluates one (asset, time) pair against the historical
// winrate snapshot and the news calendar, producing a recommendation tier.
package score

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/domain"
	"github.com/otcflow/signaldesk/internal/news"
	"github.com/otcflow/signaldesk/internal/stats"
)

// Criteria labels, appended in evaluation order.
const (
	CriterionAssetGood    = "asset: good"
	CriterionAssetBad     = "asset: bad"
	CriterionAssetNeutral = "asset: neutral"
	CriterionTimeGood     = "time: good"
	CriterionTimeBad      = "time: bad"
	CriterionNewsClear    = "news: clear"
	CriterionNewsNearby   = "news: high-impact nearby"
	BonusTimeNoNews       = "bonus: good-time+no-news"
	BonusTimeGoodAsset    = "bonus: good-time+good-asset"
)

// Config tunes the rule set. The evaluation order itself is fixed: the bonus
// rules are mutually exclusive and precedence-sensitive.
type Config struct {
	// MinPenalizableNewsImpact is the lowest impact that costs a point when a
	// qualifying event sits inside its window.
	MinPenalizableNewsImpact int `yaml:"min_penalizable_news_impact"`
	// TimeSlotExactMatch looks slots up by "HH:MM" instead of the hour bucket.
	TimeSlotExactMatch bool `yaml:"time_slot_exact_match"`
}

func DefaultConfig() Config {
	return Config{MinPenalizableNewsImpact: 2}
}

func (c Config) Validate() error {
	if c.MinPenalizableNewsImpact < 0 || c.MinPenalizableNewsImpact > 3 {
		return fmt.Errorf("min_penalizable_news_impact %d outside 0..3", c.MinPenalizableNewsImpact)
	}
	return nil
}

// Engine scores opportunities. It is read-only over its snapshots and safe
// for concurrent calls.
type Engine struct {
	cfg     Config
	matcher *news.Matcher
}

func NewEngine(cfg Config, matcher *news.Matcher) *Engine {
	return &Engine{cfg: cfg, matcher: matcher}
}

// Score evaluates asset at tod against the given snapshot. Absent stats mean
// neutral classification, never an error. The result always carries the
// nearest past/future events for display.
func (e *Engine) Score(asset string, tod domain.TimeOfDay, idx *stats.Index, events []domain.NewsEvent) domain.ScoreResult {
	res := domain.ScoreResult{Asset: asset, Time: tod}

	// 1. Asset classification.
	switch {
	case idx.BestAssets[asset]:
		res.Score++
		res.Criteria = append(res.Criteria, CriterionAssetGood)
	case idx.WorstAssets[asset]:
		res.Score--
		res.Criteria = append(res.Criteria, CriterionAssetBad)
	default:
		res.Criteria = append(res.Criteria, CriterionAssetNeutral)
	}

	// 2. Time-slot classification.
	slot := tod.HourBucket()
	if e.cfg.TimeSlotExactMatch {
		slot = tod.Short()
	}
	if idx.BadTimeSlots[slot] {
		res.Score--
		res.Criteria = append(res.Criteria, CriterionTimeBad)
	} else {
		res.Criteria = append(res.Criteria, CriterionTimeGood)
	}

	// 3. News proximity.
	match := e.matcher.Match(tod, events)
	res.NearestPast = match.NearestPast
	res.NearestFuture = match.NearestFuture
	res.QualifyingImpact = match.QualifyingImpact
	if match.QualifyingImpact != nil && match.QualifyingImpact.Impact >= e.cfg.MinPenalizableNewsImpact {
		res.Score--
		res.Criteria = append(res.Criteria, CriterionNewsNearby)
	} else {
		res.Criteria = append(res.Criteria, CriterionNewsClear)
	}

	// 4. At most one bonus, first matching rule wins.
	if has(res.Criteria, CriterionTimeGood) && has(res.Criteria, CriterionNewsClear) {
		res.Score++
		res.Criteria = append(res.Criteria, BonusTimeNoNews)
	} else if has(res.Criteria, CriterionAssetGood) && has(res.Criteria, CriterionTimeGood) {
		res.Score++
		res.Criteria = append(res.Criteria, BonusTimeGoodAsset)
	}

	// 5. Tier.
	res.Tier = tierFor(res.Score)

	log.Debug().
		Str("asset", asset).
		Str("time", tod.String()).
		Int("score", res.Score).
		Str("tier", string(res.Tier)).
		Strs("criteria", res.Criteria).
		Msg("scored opportunity")

	return res
}

func tierFor(score int) domain.Recommendation {
	switch {
	case score > 1:
		return domain.StronglyRecommended
	case score == 1:
		return domain.Recommended
	case score == 0:
		return domain.Moderate
	default:
		return domain.NotRecommended
	}
}

func has(criteria []string, label string) bool {
	for _, c := range criteria {
		if c == label {
			return true
		}
	}
	return false
}
