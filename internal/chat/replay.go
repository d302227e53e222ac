package chat

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadMessages reads a JSON array of messages from path, for offline replays.
func LoadMessages(path string) ([]Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chat replay %s: %w", path, err)
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, fmt.Errorf("decode chat replay %s: %w", path, err)
	}
	return msgs, nil
}
