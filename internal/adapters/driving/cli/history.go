package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// maxHistoryEntries caps the on-disk question history.
const maxHistoryEntries = 50

// historyEntry is one recorded question/answer pair.
type historyEntry struct {
	DocumentID string    `json:"document_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	AskedAt    time.Time `json:"asked_at"`
}

// historyPath returns the question history file, next to the metadata
// database.
func historyPath() (string, error) {
	dataDir := cfg.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".contracta", "data")
	}
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return filepath.Join(dataDir, "history.json"), nil
}

// readHistory returns all recorded entries, oldest first. A missing
// file yields an empty history.
func readHistory() ([]historyEntry, error) {
	path, err := historyPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []historyEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entries, nil
}

// appendHistory records an entry, trimming the file to the newest
// maxHistoryEntries.
func appendHistory(entry historyEntry) error {
	entries, err := readHistory()
	if err != nil {
		return err
	}

	if entry.AskedAt.IsZero() {
		entry.AskedAt = time.Now().UTC()
	}
	entries = append(entries, entry)
	if len(entries) > maxHistoryEntries {
		entries = entries[len(entries)-maxHistoryEntries:]
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	path, err := historyPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// clearHistory removes the history file.
func clearHistory() error {
	path, err := historyPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
