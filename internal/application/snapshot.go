package application

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/cache"
	"github.com/otcflow/signaldesk/internal/stats"
)

const rawStatsCacheKey = "signaldesk:stats:raw"

// SnapshotProvider fetches the raw stats snapshot through a TTL cache so that
// bursts of scoring calls reuse one fetch.
type SnapshotProvider struct {
	source stats.Source
	cache  cache.Cache
	ttl    time.Duration
}

func NewSnapshotProvider(source stats.Source, c cache.Cache, ttl time.Duration) *SnapshotProvider {
	if c == nil {
		c = cache.NewMemory()
	}
	return &SnapshotProvider{source: source, cache: c, ttl: ttl}
}

// Raw returns the current raw snapshot, cached for the configured TTL.
func (p *SnapshotProvider) Raw(ctx context.Context) (stats.RawStats, error) {
	if b, ok := p.cache.Get(rawStatsCacheKey); ok {
		var raw stats.RawStats
		if err := json.Unmarshal(b, &raw); err == nil {
			return raw, nil
		}
		p.cache.Delete(rawStatsCacheKey)
		log.Warn().Msg("cached stats snapshot undecodable, evicted")
	}

	raw, err := p.source.Fetch(ctx)
	if err != nil {
		return stats.RawStats{}, fmt.Errorf("fetch stats snapshot: %w", err)
	}

	if b, err := json.Marshal(raw); err == nil {
		p.cache.Set(rawStatsCacheKey, b, p.ttl)
	}
	return raw, nil
}
