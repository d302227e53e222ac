package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource reads a RawStats snapshot from a JSON file. It stands in for the
// live sheet collaborator in offline runs and replays.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(ctx context.Context) (RawStats, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return RawStats{}, fmt.Errorf("read stats snapshot %s: %w", f.Path, err)
	}
	var raw RawStats
	if err := json.Unmarshal(b, &raw); err != nil {
		return RawStats{}, fmt.Errorf("decode stats snapshot %s: %w", f.Path, err)
	}
	return raw, nil
}
