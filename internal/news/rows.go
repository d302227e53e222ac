package news

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/domain"
)

// ParseRows converts raw calendar cells (time, currency, impact, text) into
// events. Rows with malformed time fields are skipped with a warning; an
// unparseable impact degrades to 0 rather than dropping the row.
func ParseRows(rows [][]string) []domain.NewsEvent {
	events := make([]domain.NewsEvent, 0, len(rows))
	for i, row := range rows {
		if len(row) < 4 {
			log.Warn().Int("row", i).Int("fields", len(row)).Msg("news row too short, skipped")
			continue
		}
		tod, err := domain.ParseTimeOfDay(strings.TrimSpace(row[0]))
		if err != nil {
			log.Warn().Int("row", i).Str("time", row[0]).Msg("news row has malformed time, skipped")
			continue
		}
		impact, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil || impact < 0 {
			impact = 0
		}
		events = append(events, domain.NewsEvent{
			Time:     tod,
			Currency: strings.TrimSpace(row[1]),
			Impact:   impact,
			Text:     strings.TrimSpace(row[3]),
		})
	}
	return events
}
