package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"spinbot.dev/spin-api-go/internal/schedule"
	"spinbot.dev/spin-api-go/internal/state"
)

// AccountEntry is one record of the accounts.json file
type AccountEntry struct {
	ID                string `json:"id"`
	RefreshCredential string `json:"refreshCredential"`
	AchievementGroup  string `json:"achievementGroup"`
	WindowStart       string `json:"windowStart"` // HH:MM, UTC
	WindowEnd         string `json:"windowEnd"`   // HH:MM, UTC
	BaseIntervalMin   int    `json:"baseIntervalMinutes"`
	JitterMinSec      int    `json:"jitterMinSeconds"`
	JitterMaxSec      int    `json:"jitterMaxSeconds"`
}

// accountsFile is the on-disk document shape
type accountsFile struct {
	Accounts []AccountEntry `json:"accounts"`
}

// LoadResult reports which entries loaded and which were skipped
type LoadResult struct {
	Configs []state.AccountConfig
	Skipped []string // human-readable reasons, one per rejected entry
}

// LoadAccounts reads and validates the accounts file. Malformed entries
// are skipped with a reason rather than failing the whole load; the
// process continues with the remaining accounts.
func LoadAccounts(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read accounts file: %w", err)
	}

	var file accountsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse accounts file: %w", err)
	}

	result := &LoadResult{}
	seen := make(map[string]bool)

	for i, entry := range file.Accounts {
		cfg, err := validateEntry(entry)
		if err != nil {
			result.Skipped = append(result.Skipped, fmt.Sprintf("entry %d (%s): %v", i, entry.ID, err))
			continue
		}
		if seen[entry.ID] {
			result.Skipped = append(result.Skipped, fmt.Sprintf("entry %d (%s): duplicate identifier", i, entry.ID))
			continue
		}
		seen[entry.ID] = true
		result.Configs = append(result.Configs, cfg)
	}

	return result, nil
}

// validateEntry converts a raw entry to an AccountConfig, rejecting
// missing or inconsistent fields
func validateEntry(entry AccountEntry) (state.AccountConfig, error) {
	if entry.ID == "" {
		return state.AccountConfig{}, fmt.Errorf("missing account identifier")
	}
	if entry.RefreshCredential == "" {
		return state.AccountConfig{}, fmt.Errorf("missing refresh credential")
	}

	start, err := schedule.ParseClock(entry.WindowStart)
	if err != nil {
		return state.AccountConfig{}, fmt.Errorf("window start: %w", err)
	}
	end, err := schedule.ParseClock(entry.WindowEnd)
	if err != nil {
		return state.AccountConfig{}, fmt.Errorf("window end: %w", err)
	}
	if end.Minutes() < start.Minutes() {
		return state.AccountConfig{}, fmt.Errorf("window end %s before start %s", end, start)
	}
	if entry.BaseIntervalMin < 0 {
		return state.AccountConfig{}, fmt.Errorf("negative base interval")
	}

	// Swapped jitter bounds are tolerated; the scheduler clamps them too
	jmin, jmax := entry.JitterMinSec, entry.JitterMaxSec
	if jmin > jmax {
		jmin, jmax = jmax, jmin
	}

	return state.AccountConfig{
		ID:                entry.ID,
		RefreshCredential: entry.RefreshCredential,
		AchievementGroup:  entry.AchievementGroup,
		WindowStart:       start,
		WindowEnd:         end,
		BaseIntervalMin:   entry.BaseIntervalMin,
		JitterMinSec:      jmin,
		JitterMaxSec:      jmax,
	}, nil
}

// AccountWriter performs whole-file rewrites of the accounts list when a
// refresh credential rotates. Single-process design: the read-modify-write
// sequence is serialized by its lock.
type AccountWriter struct {
	mu   sync.Mutex
	path string
}

// NewAccountWriter creates a writer for the given accounts file
func NewAccountWriter(path string) *AccountWriter {
	return &AccountWriter{path: path}
}

// RotateCredential updates one account's refresh credential and rewrites
// the file. Write goes to a temp file first, then renames over the
// original so a crash never leaves a truncated accounts file.
func (w *AccountWriter) RotateCredential(accountID, newCredential string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("failed to read accounts file: %w", err)
	}

	var file accountsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse accounts file: %w", err)
	}

	found := false
	for i := range file.Accounts {
		if file.Accounts[i].ID == accountID {
			file.Accounts[i].RefreshCredential = newCredential
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("account %q not present in accounts file", accountID)
	}

	out, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode accounts file: %w", err)
	}
	out = append(out, '\n')

	tmp := w.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("failed to create accounts directory: %w", err)
	}
	if err := os.WriteFile(tmp, out, 0600); err != nil {
		return fmt.Errorf("failed to write accounts file: %w", err)
	}
	return os.Rename(tmp, w.path)
}
