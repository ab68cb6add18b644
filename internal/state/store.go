package state

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

const (
	// AccountLogCap bounds each account's retained log entries
	AccountLogCap = 200
	// GlobalLogCap bounds the process-wide activity log
	GlobalLogCap = 1000
)

// Store holds every account's mutable state plus the global activity log.
// It is created once at startup from configuration and lives for the
// process lifetime. All access is serialized through its lock.
type Store struct {
	mu        sync.RWMutex
	accounts  map[string]*Account
	order     []string
	globalLog *LogRing
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]*Account),
		globalLog: NewLogRing(GlobalLogCap),
	}
}

// AddAccount registers an account from its static configuration. Duplicate
// identifiers are rejected; identifiers are immutable once added.
func (s *Store) AddAccount(cfg AccountConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cfg.ID == "" {
		return fmt.Errorf("account identifier is required")
	}
	if _, exists := s.accounts[cfg.ID]; exists {
		return fmt.Errorf("duplicate account identifier %q", cfg.ID)
	}

	s.accounts[cfg.ID] = &Account{
		Config:            cfg,
		RefreshCredential: cfg.RefreshCredential,
		log:               NewLogRing(AccountLogCap),
	}
	s.order = append(s.order, cfg.ID)
	return nil
}

// IDs returns account identifiers in registration order
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// View runs fn with read access to the account. Returns false when the
// account does not exist.
func (s *Store) View(id string, fn func(a *Account)) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return false
	}
	fn(a)
	return true
}

// Update runs fn with exclusive access to the account
func (s *Store) Update(id string, fn func(a *Account)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return false
	}
	fn(a)
	return true
}

// Config returns the static configuration for an account
func (s *Store) Config(id string) (AccountConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return AccountConfig{}, false
	}
	return a.Config, true
}

// Credentials returns the current token and refresh credential
func (s *Store) Credentials(id string) (token, refresh string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, found := s.accounts[id]
	if !found {
		return "", "", false
	}
	return a.Token, a.RefreshCredential, true
}

// SetAuthenticated records a successful refresh: the new token, an
// optionally rotated refresh credential, the refresh timestamp and the
// active flag
func (s *Store) SetAuthenticated(id, token, refreshCredential string, at time.Time) {
	s.Update(id, func(a *Account) {
		a.Token = token
		if refreshCredential != "" {
			a.RefreshCredential = refreshCredential
		}
		a.LastRefresh = at
		a.Active = true
	})
}

// Deactivate marks the account inactive after a failed refresh or a
// forbidden response. The stale token is kept but callers treat it as
// invalid through the active flag.
func (s *Store) Deactivate(id string) {
	s.Update(id, func(a *Account) {
		a.Active = false
	})
}

// IsActive reports the account's active flag
func (s *Store) IsActive(id string) bool {
	var active bool
	s.View(id, func(a *Account) { active = a.Active })
	return active
}

// SetRunning toggles the account's autonomous loop flag
func (s *Store) SetRunning(id string, running bool) {
	s.Update(id, func(a *Account) {
		a.Running = running
	})
}

// RecordSpin increments the spin counter
func (s *Store) RecordSpin(id string) {
	s.Update(id, func(a *Account) {
		a.SpinCount++
	})
}

// RecordClaims adds claimed achievements to the cumulative counter
func (s *Store) RecordClaims(id string, count int) {
	s.Update(id, func(a *Account) {
		a.AchievementsClaimed += int64(count)
	})
}

// SetBalance records the most recently observed currency balance
func (s *Store) SetBalance(id string, balance int64) {
	s.Update(id, func(a *Account) {
		a.Balance = balance
	})
}

// SetNextSpin arms the account's next scheduled spin
func (s *Store) SetNextSpin(id string, at time.Time) {
	s.Update(id, func(a *Account) {
		a.NextSpinAt = at
	})
}

// SetNextRefresh arms the account's next calendar refresh
func (s *Store) SetNextRefresh(id string, at time.Time) {
	s.Update(id, func(a *Account) {
		a.NextRefreshAt = at
	})
}

// Log appends a message to the account's ring and mirrors it into the
// global activity log
func (s *Store) Log(id, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := LogEntry{Timestamp: time.Now(), AccountID: id, Message: message}
	if a, ok := s.accounts[id]; ok {
		a.log.Append(entry)
	}
	s.globalLog.Append(entry)
}

// AccountLog returns up to max recent entries for one account, newest first
func (s *Store) AccountLog(id string, max int) []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	return a.log.Recent(max)
}

// GlobalLog returns up to max recent entries across all accounts
func (s *Store) GlobalLog(max int) []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globalLog.Recent(max)
}

// Snapshot returns the sanitized view of one account
func (s *Store) Snapshot(id string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return Snapshot{}, false
	}
	return a.snapshot(), true
}

// Snapshots returns sanitized views of every account, sorted by identifier
func (s *Store) Snapshots() []Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Snapshot, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
