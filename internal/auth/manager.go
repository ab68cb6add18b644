package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spinbot.dev/spin-api-go/internal/api"
	"spinbot.dev/spin-api-go/internal/events"
	"spinbot.dev/spin-api-go/internal/logging"
	"spinbot.dev/spin-api-go/internal/schedule"
	"spinbot.dev/spin-api-go/internal/state"
)

// CredentialWriter persists a rotated refresh credential back to the
// on-disk account configuration
type CredentialWriter interface {
	RotateCredential(accountID, newCredential string) error
}

// Manager owns the token lifecycle: it obtains and renews short-lived
// tokens from long-lived refresh credentials. It never retries itself;
// retry policy belongs to callers via the executor's one-shot
// refresh-and-retry cycle.
type Manager struct {
	client *api.Client
	store  *state.Store
	writer CredentialWriter
	bus    events.EventBus
	logger *logging.Logger

	// refreshTime overrides the per-account window start as the calendar
	// refresh time; nil keeps the window start
	refreshTime *schedule.ClockTime

	now func() time.Time
}

// NewManager creates a token lifecycle manager
func NewManager(client *api.Client, store *state.Store, writer CredentialWriter, bus events.EventBus, logger *logging.Logger) *Manager {
	return &Manager{
		client: client,
		store:  store,
		writer: writer,
		bus:    bus,
		logger: logger,
		now:    time.Now,
	}
}

// SetRefreshTime overrides the calendar refresh clock for all accounts
func (m *Manager) SetRefreshTime(c schedule.ClockTime) {
	m.refreshTime = &c
}

// SetNowFunc overrides the clock, for tests
func (m *Manager) SetNowFunc(now func() time.Time) {
	m.now = now
}

// Refresh exchanges the account's refresh credential for a new token. On
// success the token and any rotated credential are stored, the account is
// marked active and the next calendar refresh is armed for the account's
// window start tomorrow. On failure the account is marked inactive and the
// existing token is left untouched.
func (m *Manager) Refresh(ctx context.Context, accountID string) bool {
	_, credential, ok := m.store.Credentials(accountID)
	if !ok {
		m.logger.AccountError(accountID, "refresh requested for unknown account", nil)
		return false
	}

	result := m.client.SendRequest(ctx, "POST", api.PathRefresh, nil, api.RefreshRequest{
		RefreshToken: credential,
	})
	if !result.Success {
		return m.fail(accountID, fmt.Sprintf("refresh call failed: %v", result.Err))
	}

	var payload api.RefreshResponse
	if err := result.Decode(&payload); err != nil {
		return m.fail(accountID, fmt.Sprintf("refresh payload malformed: %v", err))
	}
	if payload.Token == "" {
		return m.fail(accountID, "refresh payload missing token")
	}

	now := m.now()
	m.store.SetAuthenticated(accountID, payload.Token, payload.RefreshToken, now)

	rotated := payload.RefreshToken != "" && payload.RefreshToken != credential
	if rotated && m.writer != nil {
		if err := m.writer.RotateCredential(accountID, payload.RefreshToken); err != nil {
			// Rotation persisted in memory either way; losing the disk copy
			// only costs a failed refresh after the next restart
			m.logger.AccountError(accountID, "failed to persist rotated credential", err)
		}
	}

	m.scheduleNextRefresh(accountID, now)

	expiry := TokenExpiry(payload.Token)
	m.store.Log(accountID, "token refreshed")
	m.logger.AccountInfo(accountID, "token refreshed")
	if m.bus != nil {
		m.bus.Publish(events.NewTokenRefreshedEvent(accountID, rotated, expiry))
	}
	return true
}

func (m *Manager) fail(accountID, reason string) bool {
	m.store.Deactivate(accountID)
	m.store.Log(accountID, "token refresh failed: "+reason)
	m.logger.AccountWarn(accountID, "token refresh failed: "+reason)
	if m.bus != nil {
		m.bus.Publish(events.NewTokenRefreshFailedEvent(accountID, reason))
		m.bus.Publish(events.NewErrorEvent(accountID, "auth", errors.New(reason), nil))
	}
	return false
}

// scheduleNextRefresh arms the daily calendar refresh for the account's
// window start (or the configured override) on the following day
func (m *Manager) scheduleNextRefresh(accountID string, now time.Time) {
	cfg, ok := m.store.Config(accountID)
	if !ok {
		return
	}
	clock := cfg.WindowStart
	if m.refreshTime != nil {
		clock = *m.refreshTime
	}
	m.store.SetNextRefresh(accountID, schedule.NextDaily(clock, now))
}

// TokenExpiry extracts the exp claim from a JWT without verifying its
// signature. The bot is a client of the remote API; it only needs the
// expiry for logging and early-refresh decisions. Returns the zero time
// for opaque or claimless tokens.
func TokenExpiry(token string) time.Time {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// TokenExpired reports whether the token carries an exp claim in the past
func TokenExpired(token string, now time.Time) bool {
	expiry := TokenExpiry(token)
	return !expiry.IsZero() && expiry.Before(now)
}
