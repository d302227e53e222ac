// Package notify formats score reports for the notification sink. Delivery is
// fire-and-forget: a sink failure is logged, never surfaced to reconciliation.
package notify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/domain"
)

// Report is the payload handed to the sink for one scored opportunity.
type Report struct {
	Result     domain.ScoreResult
	NearbyNews []domain.NewsEvent // closest events, for display
}

// Notifier delivers reports to wherever the operator watches.
type Notifier interface {
	Publish(report Report)
}

// FormatReport renders the human-readable message body.
func FormatReport(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📈 NEW SIGNAL ANALYZED\n\n")
	fmt.Fprintf(&b, "Asset: %s\n", r.Result.Asset)
	fmt.Fprintf(&b, "Time: %s\n", r.Result.Time.Short())
	fmt.Fprintf(&b, "Recommendation: %s\n", r.Result.Tier)
	fmt.Fprintf(&b, "Score: %d\n\n", r.Result.Score)

	b.WriteString("Criteria:\n")
	for _, c := range r.Result.Criteria {
		fmt.Fprintf(&b, "- %s\n", c)
	}

	b.WriteString("\nNews:\n")
	if len(r.NearbyNews) == 0 {
		b.WriteString("- no events nearby\n")
	}
	for _, ev := range r.NearbyNews {
		fmt.Fprintf(&b, "- %s %s - %s (impact %d)\n", ev.Time.Short(), ev.Currency, ev.Text, ev.Impact)
	}
	return b.String()
}

// LogNotifier writes reports to the structured log. It stands in for the real
// chat sink in local runs.
type LogNotifier struct{}

func (LogNotifier) Publish(report Report) {
	log.Info().
		Str("asset", report.Result.Asset).
		Str("time", report.Result.Time.String()).
		Str("tier", string(report.Result.Tier)).
		Int("score", report.Result.Score).
		Msg("score report\n" + FormatReport(report))
}
