package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/avelara/coachctl/internal/ports"
	"go.uber.org/zap"
)

// Keys in the durable state store. The token and the user cache are
// session-derived and removed on logout; the locale preference and the
// playground journal outlive the session.
const (
	StateKeyToken       = "token"
	StateKeyUserCache   = "user_cache"
	StateKeyUserCacheAt = "user_cache_time"
	StateKeyLanguage    = "language_preference"
	StateKeyJournal     = "playground_journal"
)

type SessionState string

const (
	SessionUnauthenticated SessionState = "unauthenticated"
	SessionAuthenticating  SessionState = "authenticating"
	SessionAuthenticated   SessionState = "authenticated"
	// SessionDegraded means the live user fetch keeps failing transiently
	// but the token is intact; a cached snapshot is served if one exists.
	SessionDegraded SessionState = "degraded"
)

// SessionChange is broadcast whenever token presence or session usability
// changes. Active reports whether dependents should treat the session as
// live and keep their data flowing.
type SessionChange struct {
	State  SessionState
	Active bool
}

type SessionStatus struct {
	State      SessionState
	User       *domain.UserSnapshot
	CachedAt   time.Time
	RetryCount int
}

// SessionManager is the single source of truth for "is there a usable
// session, and who is the user". It owns the token and the cached user
// snapshot; everything else receives copies.
type SessionManager struct {
	api   ports.AuthAPI
	store ports.StateStore
	clock ports.Clock
	log   *zap.Logger

	backoff         []time.Duration
	finalRetryDelay time.Duration
	cacheMaxAge     time.Duration
	sleep           func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	state      SessionState
	token      string
	cached     domain.CachedUser
	hasCached  bool
	retryCount int

	subMu   sync.Mutex
	subs    map[int]chan SessionChange
	nextSub int
}

func NewSessionManager(api ports.AuthAPI, store ports.StateStore, clock ports.Clock, log *zap.Logger) *SessionManager {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &SessionManager{
		api:             api,
		store:           store,
		clock:           clock,
		log:             log,
		backoff:         []time.Duration{time.Second, 2 * time.Second},
		finalRetryDelay: 5 * time.Second,
		cacheMaxAge:     domain.UserCacheMaxAge,
		sleep:           sleepContext,
		state:           SessionUnauthenticated,
		subs:            map[int]chan SessionChange{},
	}
}

// Subscribe returns a channel of session changes and a cancel function.
// The channel is buffered; a subscriber that stops draining loses updates
// rather than blocking the manager.
func (m *SessionManager) Subscribe() (<-chan SessionChange, func()) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan SessionChange, 8)
	m.subs[id] = ch

	cancel := func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (m *SessionManager) emit(change SessionChange) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for id, ch := range m.subs {
		select {
		case ch <- change:
		default:
			m.log.Warn("dropping session change for slow subscriber", zap.Int("subscriber", id))
		}
	}
}

// Initialize discovers a stored token and, when present, establishes the
// user. Without a token the session is simply unauthenticated.
func (m *SessionManager) Initialize(ctx context.Context) error {
	token, err := m.store.Get(ctx, StateKeyToken)
	if err != nil {
		if errors.Is(err, domain.ErrStateKeyMissing) {
			m.setState(SessionUnauthenticated)
			return nil
		}
		return fmt.Errorf("read stored token: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.state = SessionAuthenticating
	m.mu.Unlock()

	m.loadCachedUser(ctx)

	return m.establishUser(ctx)
}

// Login authenticates, stores the token, then immediately fetches the user
// so dependents observe a session only once a snapshot is available or
// conclusively unavailable.
func (m *SessionManager) Login(ctx context.Context, creds ports.Credentials) error {
	token, err := m.api.Login(ctx, creds)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	if err := m.store.Put(ctx, StateKeyToken, token); err != nil {
		m.log.Warn("persist token failed, session will not survive restarts", zap.Error(err))
	}

	m.mu.Lock()
	m.token = token
	m.state = SessionAuthenticating
	m.mu.Unlock()

	return m.establishUser(ctx)
}

// Logout clears the token, the cached snapshot and all session-derived
// storage, then signals dependents.
func (m *SessionManager) Logout(ctx context.Context) error {
	err := m.clearSession(ctx)
	m.emit(SessionChange{State: SessionUnauthenticated, Active: false})
	return err
}

// RefreshUser re-fetches the current user on demand. A transient failure
// leaves session validity untouched; a terminal one tears the session down.
func (m *SessionManager) RefreshUser(ctx context.Context) error {
	token := m.Token()
	if token == "" {
		return domain.ErrNoSession
	}

	user, err := m.api.CurrentUser(ctx, token)
	if err != nil {
		if domain.IsTerminal(err) {
			return m.rejectSession(ctx, err)
		}
		m.log.Warn("refresh user failed, keeping session", zap.Error(err))
		return err
	}

	m.adoptUser(ctx, user)
	return nil
}

// UpdateProfile applies a partial profile edit and adopts the returned
// snapshot as the new cache.
func (m *SessionManager) UpdateProfile(ctx context.Context, patch domain.UserPatch) (domain.UserSnapshot, error) {
	token := m.Token()
	if token == "" {
		return domain.UserSnapshot{}, domain.ErrNoSession
	}

	user, err := m.api.UpdateUser(ctx, token, patch)
	if err != nil {
		if domain.IsTerminal(err) {
			return domain.UserSnapshot{}, m.rejectSession(ctx, err)
		}
		return domain.UserSnapshot{}, err
	}

	m.adoptUser(ctx, user)
	return user, nil
}

// CachedUser returns the last known snapshot without a network call, or
// nil when none was ever fetched.
func (m *SessionManager) CachedUser() *domain.UserSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasCached {
		return nil
	}

	user := m.cached.User
	return &user
}

func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *SessionManager) Status() SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := SessionStatus{
		State:      m.state,
		CachedAt:   m.cached.WrittenAt,
		RetryCount: m.retryCount,
	}
	if m.hasCached {
		user := m.cached.User
		status.User = &user
	}

	return status
}

// establishUser runs the user-fetch sequence: bounded retries with
// backoff, then the cache, then one final delayed attempt. Network
// flakiness never signs out a user who holds a token.
func (m *SessionManager) establishUser(ctx context.Context) error {
	token := m.Token()
	var lastErr error

	for attempt := 0; attempt <= len(m.backoff); attempt++ {
		if attempt > 0 {
			m.mu.Lock()
			m.retryCount++
			m.mu.Unlock()
			if err := m.sleep(ctx, m.backoff[attempt-1]); err != nil {
				return err
			}
		}

		user, err := m.api.CurrentUser(ctx, token)
		if err == nil {
			m.adoptUser(ctx, user)
			return nil
		}
		if domain.IsTerminal(err) {
			return m.rejectSession(ctx, err)
		}

		lastErr = err
		m.log.Warn("user fetch failed",
			zap.Int("attempt", attempt+1), zap.Error(err))
	}

	m.mu.Lock()
	fresh := m.hasCached && !m.cached.IsStale(m.clock.Now(), m.cacheMaxAge)
	m.mu.Unlock()

	if fresh {
		m.setState(SessionDegraded)
		m.emit(SessionChange{State: SessionDegraded, Active: true})
		m.log.Info("serving cached user snapshot", zap.Error(lastErr))
		return nil
	}

	// No usable cache: one final delayed attempt before settling.
	if err := m.sleep(ctx, m.finalRetryDelay); err != nil {
		return err
	}

	user, err := m.api.CurrentUser(ctx, token)
	if err == nil {
		m.adoptUser(ctx, user)
		return nil
	}
	if domain.IsTerminal(err) {
		return m.rejectSession(ctx, err)
	}

	m.setState(SessionDegraded)
	m.emit(SessionChange{State: SessionDegraded, Active: true})
	m.log.Warn("user fetch exhausted retries, keeping token", zap.Error(err))
	return nil
}

func (m *SessionManager) adoptUser(ctx context.Context, user domain.UserSnapshot) {
	now := m.clock.Now()

	m.mu.Lock()
	m.cached = domain.CachedUser{User: user, WrittenAt: now}
	m.hasCached = true
	m.retryCount = 0
	m.state = SessionAuthenticated
	m.mu.Unlock()

	m.persistCache(ctx, user, now)
	m.emit(SessionChange{State: SessionAuthenticated, Active: true})
}

// rejectSession handles a terminal authorization failure: all session
// state is cleared, no retry.
func (m *SessionManager) rejectSession(ctx context.Context, cause error) error {
	if err := m.clearSession(ctx); err != nil {
		m.log.Warn("clear session storage", zap.Error(err))
	}
	m.emit(SessionChange{State: SessionUnauthenticated, Active: false})
	return fmt.Errorf("session rejected: %w", cause)
}

func (m *SessionManager) clearSession(ctx context.Context) error {
	var errs []error
	for _, key := range []string{StateKeyToken, StateKeyUserCache, StateKeyUserCacheAt} {
		if err := m.store.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}

	m.mu.Lock()
	m.token = ""
	m.cached = domain.CachedUser{}
	m.hasCached = false
	m.retryCount = 0
	m.state = SessionUnauthenticated
	m.mu.Unlock()

	return errors.Join(errs...)
}

func (m *SessionManager) setState(state SessionState) {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()
}

func (m *SessionManager) loadCachedUser(ctx context.Context) {
	raw, err := m.store.Get(ctx, StateKeyUserCache)
	if err != nil {
		if !errors.Is(err, domain.ErrStateKeyMissing) {
			m.log.Warn("read user cache", zap.Error(err))
		}
		return
	}

	user, err := decodeUserCache(raw)
	if err != nil {
		m.log.Warn("decode user cache", zap.Error(err))
		return
	}

	writtenAt := time.Time{}
	if rawTime, err := m.store.Get(ctx, StateKeyUserCacheAt); err == nil {
		if parsed, err := time.Parse(time.RFC3339, rawTime); err == nil {
			writtenAt = parsed
		}
	}

	m.mu.Lock()
	m.cached = domain.CachedUser{User: user, WrittenAt: writtenAt}
	m.hasCached = true
	m.mu.Unlock()
}

func (m *SessionManager) persistCache(ctx context.Context, user domain.UserSnapshot, now time.Time) {
	encoded, err := encodeUserCache(user)
	if err != nil {
		m.log.Warn("encode user cache", zap.Error(err))
		return
	}

	if err := m.store.Put(ctx, StateKeyUserCache, encoded); err != nil {
		m.log.Warn("persist user cache", zap.Error(err))
		return
	}
	if err := m.store.Put(ctx, StateKeyUserCacheAt, now.Format(time.RFC3339)); err != nil {
		m.log.Warn("persist user cache time", zap.Error(err))
	}
}

type userCachePayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Locale      string `json:"locale"`
	Tier        string `json:"tier"`
}

func encodeUserCache(user domain.UserSnapshot) (string, error) {
	payload, err := json.Marshal(userCachePayload{
		ID:          string(user.ID),
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Locale:      user.Locale,
		Tier:        string(user.Tier),
	})
	if err != nil {
		return "", fmt.Errorf("encode user cache: %w", err)
	}

	return string(payload), nil
}

func decodeUserCache(raw string) (domain.UserSnapshot, error) {
	var payload userCachePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.UserSnapshot{}, fmt.Errorf("decode user cache: %w", err)
	}

	return domain.UserSnapshot{
		ID:          domain.UserID(payload.ID),
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
		Locale:      payload.Locale,
		Tier:        domain.SubscriptionTier(payload.Tier),
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
