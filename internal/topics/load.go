package topics

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// LoadEntries reads an alias table from a JSON file containing an array
// of {canonical, alt_forms} objects. Malformed entries are rejected
// individually and logged; only an unreadable or unparseable file is a
// fatal load error.
func LoadEntries(path string, logger *zap.Logger) ([]AliasEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias table %s: %w", path, err)
	}

	return ParseEntries(data, logger)
}

// ParseEntries decodes alias entries from raw JSON, skipping entries
// that fail to decode or carry no canonical topic.
func ParseEntries(data []byte, logger *zap.Logger) ([]AliasEntry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse alias table JSON: %w", err)
	}

	entries := make([]AliasEntry, 0, len(raw))
	for i, msg := range raw {
		var entry AliasEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			logger.Warn("rejecting malformed alias entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		if Normalize(entry.Canonical) == "" {
			logger.Warn("rejecting alias entry without canonical topic", zap.Int("index", i))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
