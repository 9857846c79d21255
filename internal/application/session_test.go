package application

import (
	"context"
	"testing"
	"time"

	"github.com/avelara/coachctl/internal/adapters/state/memory"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/avelara/coachctl/internal/ports"
	"github.com/avelara/coachctl/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T, api ports.AuthAPI, store ports.StateStore, now time.Time) *SessionManager {
	t.Helper()

	clock := mocks.NewMockClock(t)
	clock.EXPECT().Now().Return(now).Maybe()

	m := NewSessionManager(api, store, clock, nil)
	m.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return m
}

func TestSessionManager_LoginFetchesUserBeforeSignaling(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	user := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com", DisplayName: "Ana", Locale: "es", Tier: domain.TierPlus}

	api := mocks.NewMockAuthAPI(t)
	api.EXPECT().Login(mock.Anything, ports.Credentials{Email: "ana@example.com", Password: "pw"}).Return("tok-123", nil)
	api.EXPECT().CurrentUser(mock.Anything, "tok-123").Return(user, nil)

	store := memory.NewStore()
	m := newTestSessionManager(t, api, store, now)

	changes, cancel := m.Subscribe()
	defer cancel()

	err := m.Login(context.Background(), ports.Credentials{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)

	assert.Equal(t, SessionAuthenticated, m.State())
	require.NotNil(t, m.CachedUser())
	assert.Equal(t, user, *m.CachedUser())

	change := <-changes
	assert.True(t, change.Active)
	assert.Equal(t, SessionAuthenticated, change.State)

	token, err := store.Get(context.Background(), StateKeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	rawCache, err := store.Get(context.Background(), StateKeyUserCache)
	require.NoError(t, err)
	decoded, err := decodeUserCache(rawCache)
	require.NoError(t, err)
	assert.Equal(t, user, decoded)
}

func TestSessionManager_InitializeWithoutToken(t *testing.T) {
	api := mocks.NewMockAuthAPI(t)
	m := newTestSessionManager(t, api, memory.NewStore(), time.Now())

	err := m.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SessionUnauthenticated, m.State())
	assert.Empty(t, m.Token())
}

func TestSessionManager_TransientFailureWithFreshCacheDegrades(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	cachedAt := now.Add(-2 * time.Hour)
	user := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com", Tier: domain.TierFree}

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, StateKeyToken, "tok-123"))
	encoded, err := encodeUserCache(user)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, StateKeyUserCache, encoded))
	require.NoError(t, store.Put(ctx, StateKeyUserCacheAt, cachedAt.Format(time.RFC3339)))

	api := mocks.NewMockAuthAPI(t)
	api.EXPECT().CurrentUser(mock.Anything, "tok-123").
		Return(domain.UserSnapshot{}, domain.Transient(assert.AnError)).Times(3)

	m := newTestSessionManager(t, api, store, now)

	changes, cancel := m.Subscribe()
	defer cancel()

	require.NoError(t, m.Initialize(ctx))

	assert.Equal(t, SessionDegraded, m.State())
	assert.Equal(t, "tok-123", m.Token(), "transient failures must not discard the token")
	require.NotNil(t, m.CachedUser())
	assert.Equal(t, user, *m.CachedUser())

	change := <-changes
	assert.True(t, change.Active, "a fresh cache keeps the session usable")
	assert.Equal(t, SessionDegraded, change.State)

	// The stored token survives.
	token, err := store.Get(ctx, StateKeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestSessionManager_TransientFailureWithoutCacheRetriesOnceMore(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	user := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com"}

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, StateKeyToken, "tok-123"))

	api := mocks.NewMockAuthAPI(t)
	api.EXPECT().CurrentUser(mock.Anything, "tok-123").
		Return(domain.UserSnapshot{}, domain.Transient(assert.AnError)).Times(3)
	api.EXPECT().CurrentUser(mock.Anything, "tok-123").Return(user, nil).Once()

	m := newTestSessionManager(t, api, store, now)

	require.NoError(t, m.Initialize(ctx))
	assert.Equal(t, SessionAuthenticated, m.State())
	require.NotNil(t, m.CachedUser())
	assert.Equal(t, user, *m.CachedUser())
}

func TestSessionManager_TerminalFailureTearsDownSession(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, StateKeyToken, "tok-stale"))

	api := mocks.NewMockAuthAPI(t)
	api.EXPECT().CurrentUser(mock.Anything, "tok-stale").
		Return(domain.UserSnapshot{}, domain.ErrUnauthorized).Once()

	m := newTestSessionManager(t, api, store, now)

	changes, cancel := m.Subscribe()
	defer cancel()

	err := m.Initialize(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, SessionUnauthenticated, m.State())
	assert.Empty(t, m.Token())
	assert.Nil(t, m.CachedUser())

	change := <-changes
	assert.False(t, change.Active)
	assert.Equal(t, SessionUnauthenticated, change.State)

	_, err = store.Get(ctx, StateKeyToken)
	assert.ErrorIs(t, err, domain.ErrStateKeyMissing)
}

func TestSessionManager_LogoutPreservesPreferences(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, StateKeyToken, "tok-123"))
	require.NoError(t, store.Put(ctx, StateKeyLanguage, "fr"))
	require.NoError(t, store.Put(ctx, StateKeyJournal, `{"entries":[],"was_processing":false}`))

	api := mocks.NewMockAuthAPI(t)
	m := newTestSessionManager(t, api, store, time.Now())

	require.NoError(t, m.Logout(ctx))

	_, err := store.Get(ctx, StateKeyToken)
	assert.ErrorIs(t, err, domain.ErrStateKeyMissing)

	lang, err := store.Get(ctx, StateKeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "fr", lang)

	_, err = store.Get(ctx, StateKeyJournal)
	assert.NoError(t, err, "the conversation journal outlives the session")
}

func TestSessionManager_RefreshUserTransientKeepsSession(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	user := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com"}

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, StateKeyToken, "tok-123"))

	api := mocks.NewMockAuthAPI(t)
	api.EXPECT().CurrentUser(mock.Anything, "tok-123").Return(user, nil).Once()
	api.EXPECT().CurrentUser(mock.Anything, "tok-123").
		Return(domain.UserSnapshot{}, domain.Transient(assert.AnError)).Once()

	m := newTestSessionManager(t, api, store, now)
	require.NoError(t, m.Initialize(ctx))
	require.Equal(t, SessionAuthenticated, m.State())

	err := m.RefreshUser(ctx)
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	assert.Equal(t, "tok-123", m.Token())
	require.NotNil(t, m.CachedUser())
	assert.Equal(t, user, *m.CachedUser())
}

func TestSessionManager_UpdateProfileAdoptsSnapshot(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	displayName := "Ana Velara"
	updated := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com", DisplayName: displayName}

	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, StateKeyToken, "tok-123"))

	api := mocks.NewMockAuthAPI(t)
	api.EXPECT().UpdateUser(mock.Anything, "tok-123", domain.UserPatch{DisplayName: &displayName}).
		Return(updated, nil)

	m := newTestSessionManager(t, api, store, now)
	m.mu.Lock()
	m.token = "tok-123"
	m.state = SessionAuthenticated
	m.mu.Unlock()

	got, err := m.UpdateProfile(ctx, domain.UserPatch{DisplayName: &displayName})
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	require.NotNil(t, m.CachedUser())
	assert.Equal(t, displayName, m.CachedUser().DisplayName)
}

func TestSessionManager_RefreshUserWithoutSession(t *testing.T) {
	api := mocks.NewMockAuthAPI(t)
	m := newTestSessionManager(t, api, memory.NewStore(), time.Now())

	err := m.RefreshUser(context.Background())
	assert.ErrorIs(t, err, domain.ErrNoSession)
}
