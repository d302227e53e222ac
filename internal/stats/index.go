// Package stats builds the read-only historical winrate snapshot consulted by
// the scoring engine.
package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Thresholds classify assets and time slots from raw winrates. 0..1 scale.
type Thresholds struct {
	BestAssetMinWinrate   float64 `yaml:"best_asset_min_winrate"`
	WorstAssetMaxWinrate  float64 `yaml:"worst_asset_max_winrate"`
	BadTimeSlotMaxWinrate float64 `yaml:"bad_time_slot_max_winrate"`
}

// DefaultThresholds returns the classification cutoffs observed in production
// sheets: best assets at 85%+, worst under 60%, bad slots under 81%.
func DefaultThresholds() Thresholds {
	return Thresholds{
		BestAssetMinWinrate:   0.85,
		WorstAssetMaxWinrate:  0.60,
		BadTimeSlotMaxWinrate: 0.81,
	}
}

func (t Thresholds) Validate() error {
	for _, v := range []float64{t.BestAssetMinWinrate, t.WorstAssetMaxWinrate, t.BadTimeSlotMaxWinrate} {
		if v < 0 || v > 1 {
			return fmt.Errorf("threshold %v outside 0..1", v)
		}
	}
	if t.WorstAssetMaxWinrate > t.BestAssetMinWinrate {
		return fmt.Errorf("worst_asset_max_winrate %.2f above best_asset_min_winrate %.2f",
			t.WorstAssetMaxWinrate, t.BestAssetMinWinrate)
	}
	return nil
}

// Row is one raw stat cell pair as delivered by the stats collaborator.
type Row struct {
	Name string // asset symbol or time-slot label
	Cell string // winrate cell, e.g. "85,5%"
}

// RawStats is the unparsed snapshot fetched from the external source.
type RawStats struct {
	AssetRows    []Row
	TimeSlotRows []Row
	NewsRows     [][]string
}

// Source fetches raw stat cells on demand.
type Source interface {
	Fetch(ctx context.Context) (RawStats, error)
}

// Index is an immutable per-call snapshot of winrates and derived sets.
type Index struct {
	AssetWinrates map[string]float64
	SlotWinrates  map[string]float64
	BestAssets    map[string]bool
	WorstAssets   map[string]bool
	BadTimeSlots  map[string]bool
}

// BuildIndex parses raw rows and derives the classification sets. Rows whose
// winrate cell fails numeric parsing are dropped with a warning; a bad cell
// never aborts the snapshot.
func BuildIndex(raw RawStats, th Thresholds) *Index {
	idx := &Index{
		AssetWinrates: make(map[string]float64, len(raw.AssetRows)),
		SlotWinrates:  make(map[string]float64, len(raw.TimeSlotRows)),
		BestAssets:    make(map[string]bool),
		WorstAssets:   make(map[string]bool),
		BadTimeSlots:  make(map[string]bool),
	}

	for _, row := range raw.AssetRows {
		name := strings.ToUpper(strings.TrimSpace(row.Name))
		if name == "" {
			continue
		}
		wr, err := ParseWinrateCell(row.Cell)
		if err != nil {
			log.Warn().Str("asset", name).Str("cell", row.Cell).Msg("asset row dropped: bad winrate cell")
			continue
		}
		idx.AssetWinrates[name] = wr
		if wr >= th.BestAssetMinWinrate {
			idx.BestAssets[name] = true
		} else if wr <= th.WorstAssetMaxWinrate {
			idx.WorstAssets[name] = true
		}
	}

	for _, row := range raw.TimeSlotRows {
		slot := strings.TrimSpace(row.Name)
		if slot == "" {
			continue
		}
		wr, err := ParseWinrateCell(row.Cell)
		if err != nil {
			log.Warn().Str("slot", slot).Str("cell", row.Cell).Msg("time-slot row dropped: bad winrate cell")
			continue
		}
		idx.SlotWinrates[slot] = wr
		if wr < th.BadTimeSlotMaxWinrate {
			idx.BadTimeSlots[slot] = true
		}
	}

	return idx
}

// ParseWinrateCell parses a percent cell ("85%", "85,5 %") into 0..1.
func ParseWinrateCell(cell string) (float64, error) {
	s := strings.TrimSpace(cell)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, fmt.Errorf("empty winrate cell")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("winrate cell %q: %w", cell, err)
	}
	return v / 100, nil
}
