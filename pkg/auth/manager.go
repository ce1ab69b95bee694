package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cobaltforge/launchcore/pkg/metricsx"
)

// ErrPermanent wraps provider errors that require re-login rather than a
// retry: expired/revoked refresh tokens, invalid password, NeedsTwoFactor.
var ErrPermanent = errors.New("auth: permanent authentication failure")

// Refresher refreshes one account's tokens. Implementations live in
// microsoft.go (OAuth2 refresh) and yggdrasil.go (ElyBy/LittleSkin/
// BlessingSkin re-login with stored refresh token).
type Refresher interface {
	Refresh(ctx context.Context, client *http.Client, account AccountData) (AccountData, error)
}

// RefresherFunc adapts a function to a Refresher.
type RefresherFunc func(ctx context.Context, client *http.Client, account AccountData) (AccountData, error)

func (f RefresherFunc) Refresh(ctx context.Context, client *http.Client, account AccountData) (AccountData, error) {
	return f(ctx, client, account)
}

// accountState is the single-flight gate for one account key, modeled
// directly on origin.AuthMgr's authPf/authCv/authErr fields: only one
// refresh for a given account runs at a time, and concurrent callers wait
// on the Cond for its result instead of starting their own.
type accountState struct {
	cv        *sync.Cond
	inFlight  bool
	lastErr   error
	lastValue AccountData
}

// Manager produces valid AccountData for launch across all five provider
// variants, and linearises refreshes per account key per spec §5/§8.
type Manager struct {
	// Timeout bounds every refresh attempt; the spec requires the HTTP
	// client to impose a timeout since token refresh has none built in.
	Timeout time.Duration

	Refreshers map[AccountType]Refresher

	Logger  zerolog.Logger
	Metrics *metricsx.Set

	mu       sync.Mutex
	accounts map[string]*accountState
}

// NewManager returns a Manager with the standard provider refreshers wired.
func NewManager(logger zerolog.Logger, metrics *metricsx.Set) *Manager {
	return &Manager{
		Timeout: 30 * time.Second,
		Refreshers: map[AccountType]Refresher{
			Microsoft:    RefresherFunc(RefreshMicrosoft),
			ElyBy:        RefresherFunc(RefreshYggdrasil),
			LittleSkin:   RefresherFunc(RefreshYggdrasil),
			BlessingSkin: RefresherFunc(RefreshYggdrasil),
		},
		Logger:   logger,
		Metrics:  metrics,
		accounts: make(map[string]*accountState),
	}
}

func (m *Manager) stateFor(key string) *accountState {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.accounts[key]
	if !ok {
		st = &accountState{cv: sync.NewCond(new(sync.Mutex))}
		m.accounts[key] = st
	}
	return st
}

// EnsureValid returns a refreshed AccountData, performing provider-specific
// refresh only when needed. Offline accounts are returned unchanged. Two
// concurrent calls for the same account key trigger exactly one refresh;
// the second call waits on the first's result, mirroring
// origin.AuthMgr.OriginAuth's authCv gate.
func (m *Manager) EnsureValid(ctx context.Context, client *http.Client, account AccountData) (AccountData, error) {
	if account.AccountType == Offline {
		return account, nil
	}
	if !account.NeedsRefresh && account.AccessToken != "" {
		return account, nil
	}

	st := m.stateFor(account.StorageKey())

	st.cv.L.Lock()
	if st.inFlight {
		for st.inFlight {
			st.cv.Wait()
		}
		defer st.cv.L.Unlock()
		return st.lastValue, st.lastErr
	}
	st.inFlight = true
	st.cv.L.Unlock()

	defer func() {
		st.cv.L.Lock()
		st.inFlight = false
		st.cv.Broadcast()
		st.cv.L.Unlock()
	}()

	refresher, ok := m.Refreshers[account.AccountType]
	if !ok {
		err := fmt.Errorf("auth: no refresher registered for %s", account.AccountType)
		st.lastValue, st.lastErr = account, err
		return account, err
	}

	refreshCtx := ctx
	var cancel context.CancelFunc
	if m.Timeout > 0 {
		refreshCtx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	start := time.Now()
	updated, err := refresher.Refresh(refreshCtx, client, account)
	if m.Metrics != nil {
		m.Metrics.AuthRefreshTotal.Inc()
		m.Metrics.AuthRefreshSeconds.Update(time.Since(start).Seconds())
		if err != nil {
			m.Metrics.AuthRefreshFailures.Inc()
		}
	}
	if err != nil {
		m.Logger.Error().Err(err).Str("account", account.StorageKey()).Msg("token refresh failed")
		st.lastValue, st.lastErr = account, err
		return account, err
	}

	updated.NeedsRefresh = false
	st.lastValue, st.lastErr = updated, nil
	return updated, nil
}

// Logout clears any cached single-flight state for account; callers are
// expected to separately erase the stored token from the Encrypted Store or
// keyring under the namespaced key.
func (m *Manager) Logout(account AccountData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.accounts, account.StorageKey())
}
