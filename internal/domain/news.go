package domain

// NewsEvent is one scheduled economic-calendar event for the trading day.
// Events are a read-only snapshot, refreshed at most daily by an external
// collaborator.
type NewsEvent struct {
	Time     TimeOfDay `json:"time"`
	Currency string    `json:"currency"`
	Impact   int       `json:"impact"` // severity 0..3
	Text     string    `json:"text"`
}

// Recommendation is the ordinal tier derived from a score.
type Recommendation string

const (
	StronglyRecommended Recommendation = "STRONGLY_RECOMMENDED"
	Recommended         Recommendation = "RECOMMENDED"
	Moderate            Recommendation = "MODERATE"
	NotRecommended      Recommendation = "NOT_RECOMMENDED"
)

// ScoreResult is the outcome of evaluating one (asset, time) pair.
// Criteria preserves evaluation order. The nearest events are always present
// when the snapshot has any events, even when they did not affect the score.
type ScoreResult struct {
	Asset            string         `json:"asset"`
	Time             TimeOfDay      `json:"time"`
	Score            int            `json:"score"`
	Criteria         []string       `json:"applied_criteria"`
	Tier             Recommendation `json:"recommendation_tier"`
	NearestPast      *NewsEvent     `json:"nearest_past_event,omitempty"`
	NearestFuture    *NewsEvent     `json:"nearest_future_event,omitempty"`
	QualifyingImpact *NewsEvent     `json:"qualifying_impact_event,omitempty"`
}
