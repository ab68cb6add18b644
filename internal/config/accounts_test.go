package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeAccountsFile(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "accounts.json")
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("Failed to write accounts file: %v", err)
	}
	return path
}

func TestLoadAccountsSkipsBadEntries(t *testing.T) {
	path := writeAccountsFile(t, `{
		"accounts": [
			{"id": "alpha", "refreshCredential": "r1", "windowStart": "08:00", "windowEnd": "22:00", "baseIntervalMinutes": 10, "jitterMinSeconds": 5, "jitterMaxSeconds": 90},
			{"id": "", "refreshCredential": "r2", "windowStart": "08:00", "windowEnd": "22:00"},
			{"id": "beta", "refreshCredential": "", "windowStart": "08:00", "windowEnd": "22:00"},
			{"id": "gamma", "refreshCredential": "r3", "windowStart": "22:00", "windowEnd": "08:00"},
			{"id": "alpha", "refreshCredential": "r4", "windowStart": "08:00", "windowEnd": "22:00"},
			{"id": "delta", "refreshCredential": "r5", "windowStart": "09:15", "windowEnd": "21:45", "baseIntervalMinutes": 15}
		]
	}`)

	result, err := LoadAccounts(path)
	if err != nil {
		t.Fatalf("Failed to load accounts: %v", err)
	}

	if len(result.Configs) != 2 {
		t.Fatalf("Expected 2 valid accounts, got %d", len(result.Configs))
	}
	if result.Configs[0].ID != "alpha" || result.Configs[1].ID != "delta" {
		t.Errorf("Unexpected accepted accounts: %s, %s", result.Configs[0].ID, result.Configs[1].ID)
	}
	if len(result.Skipped) != 4 {
		t.Fatalf("Expected 4 skipped entries, got %d: %v", len(result.Skipped), result.Skipped)
	}
	if !strings.Contains(result.Skipped[3], "duplicate") {
		t.Errorf("Expected duplicate reason for the second alpha, got %q", result.Skipped[3])
	}
}

func TestLoadAccountsToleratesSwappedJitter(t *testing.T) {
	path := writeAccountsFile(t, `{
		"accounts": [
			{"id": "alpha", "refreshCredential": "r1", "windowStart": "08:00", "windowEnd": "22:00", "jitterMinSeconds": 90, "jitterMaxSeconds": 5}
		]
	}`)

	result, err := LoadAccounts(path)
	if err != nil {
		t.Fatalf("Failed to load accounts: %v", err)
	}
	if len(result.Configs) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(result.Configs))
	}
	cfg := result.Configs[0]
	if cfg.JitterMinSec != 5 || cfg.JitterMaxSec != 90 {
		t.Errorf("Expected jitter bounds normalized to 5..90, got %d..%d", cfg.JitterMinSec, cfg.JitterMaxSec)
	}
}

func TestLoadAccountsMissingFile(t *testing.T) {
	if _, err := LoadAccounts(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected error for missing accounts file")
	}
}

func TestRotateCredential(t *testing.T) {
	path := writeAccountsFile(t, `{
		"accounts": [
			{"id": "alpha", "refreshCredential": "old-alpha", "windowStart": "08:00", "windowEnd": "22:00"},
			{"id": "beta", "refreshCredential": "old-beta", "windowStart": "08:00", "windowEnd": "22:00"}
		]
	}`)

	writer := NewAccountWriter(path)
	if err := writer.RotateCredential("alpha", "new-alpha"); err != nil {
		t.Fatalf("Failed to rotate credential: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read back accounts file: %v", err)
	}
	var file struct {
		Accounts []AccountEntry `json:"accounts"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("Rewritten accounts file is not valid JSON: %v", err)
	}
	if len(file.Accounts) != 2 {
		t.Fatalf("Expected 2 accounts after rewrite, got %d", len(file.Accounts))
	}
	if file.Accounts[0].RefreshCredential != "new-alpha" {
		t.Errorf("Expected rotated credential for alpha, got %q", file.Accounts[0].RefreshCredential)
	}
	if file.Accounts[1].RefreshCredential != "old-beta" {
		t.Errorf("Expected beta credential untouched, got %q", file.Accounts[1].RefreshCredential)
	}

	// No stray temp file left behind.
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}
}

func TestRotateCredentialUnknownAccount(t *testing.T) {
	path := writeAccountsFile(t, `{"accounts": [{"id": "alpha", "refreshCredential": "r", "windowStart": "08:00", "windowEnd": "22:00"}]}`)

	writer := NewAccountWriter(path)
	if err := writer.RotateCredential("ghost", "x"); err == nil {
		t.Error("Expected error rotating credential for unknown account")
	}
}
