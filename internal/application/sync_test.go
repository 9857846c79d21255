package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id, description string, amount string) domain.Transaction {
	return domain.Transaction{
		ID:          domain.TransactionID(id),
		Description: description,
		Amount:      decimal.RequireFromString(amount),
	}
}

func newTestSyncManager(fetchTx FetchFunc[domain.Transaction]) *SyncManager {
	return NewSyncManager(SyncConfig{
		FetchTransactions: fetchTx,
		FetchGoals: func(ctx context.Context) ([]domain.Goal, error) {
			return nil, nil
		},
		FetchConnections: func(ctx context.Context) ([]domain.Connection, error) {
			return nil, nil
		},
	})
}

func TestSyncManager_ConcurrentRefreshesCoalesce(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})

	m := newTestSyncManager(func(ctx context.Context) ([]domain.Transaction, error) {
		calls.Add(1)
		<-release
		return []domain.Transaction{tx("t-1", "coffee", "-3.50")}, nil
	})

	const callers = 8
	results := make([][]domain.Transaction, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			items, err := m.RefreshTransactions(context.Background())
			assert.NoError(t, err)
			results[i] = items
		}(i)
	}

	// Give every caller time to reach the in-flight fetch before releasing
	// it, so coalescing is actually exercised.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load(), "concurrent refreshes must share one request")
	for _, items := range results {
		require.Len(t, items, 1)
		assert.Equal(t, domain.TransactionID("t-1"), items[0].ID)
	}
}

func TestSyncManager_RefreshDeduplicatesKeepingFirst(t *testing.T) {
	m := newTestSyncManager(func(ctx context.Context) ([]domain.Transaction, error) {
		return []domain.Transaction{
			tx("t-1", "first", "-1.00"),
			tx("t-2", "other", "-2.00"),
			tx("t-1", "duplicate", "-9.00"),
		}, nil
	})

	items, err := m.RefreshTransactions(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Description)
	assert.Equal(t, domain.TransactionID("t-2"), items[1].ID)
}

func TestSyncManager_OptimisticEditSurvivesUntilConfirmed(t *testing.T) {
	var authoritative []domain.Transaction
	var mu sync.Mutex

	m := newTestSyncManager(func(ctx context.Context) ([]domain.Transaction, error) {
		mu.Lock()
		defer mu.Unlock()
		return authoritative, nil
	})

	ctx := context.Background()

	mu.Lock()
	authoritative = []domain.Transaction{tx("t-1", "rent", "-900.00")}
	mu.Unlock()
	_, err := m.RefreshTransactions(ctx)
	require.NoError(t, err)

	pending := tx("t-local", "groceries", "-42.10")
	m.ApplyTransaction(pending)

	// The server has not confirmed the edit yet: it stays overlaid.
	items, err := m.RefreshTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.TransactionID("t-1"), items[0].ID)
	assert.Equal(t, domain.TransactionID("t-local"), items[1].ID)

	// Confirmation arrives: the authoritative row wins and the pending
	// copy is discarded.
	mu.Lock()
	authoritative = []domain.Transaction{
		tx("t-1", "rent", "-900.00"),
		tx("t-local", "groceries", "-42.10"),
	}
	mu.Unlock()
	items, err = m.RefreshTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	// A later list without the row means it is gone for good.
	mu.Lock()
	authoritative = []domain.Transaction{tx("t-1", "rent", "-900.00")}
	mu.Unlock()
	items, err = m.RefreshTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, domain.TransactionID("t-1"), items[0].ID)
}

func TestSyncManager_ApplyReplacesExistingItem(t *testing.T) {
	m := newTestSyncManager(func(ctx context.Context) ([]domain.Transaction, error) {
		return []domain.Transaction{tx("t-1", "rent", "-900.00")}, nil
	})

	_, err := m.RefreshTransactions(context.Background())
	require.NoError(t, err)

	m.ApplyTransaction(tx("t-1", "rent (corrected)", "-950.00"))

	state := m.TransactionsState()
	require.Len(t, state.Items, 1)
	assert.Equal(t, "rent (corrected)", state.Items[0].Description)
}

func TestSyncManager_FailedRefreshRetainsItems(t *testing.T) {
	var fail atomic.Bool

	m := newTestSyncManager(func(ctx context.Context) ([]domain.Transaction, error) {
		if fail.Load() {
			return nil, domain.Transient(assert.AnError)
		}
		return []domain.Transaction{tx("t-1", "rent", "-900.00")}, nil
	})

	ctx := context.Background()
	_, err := m.RefreshTransactions(ctx)
	require.NoError(t, err)

	fail.Store(true)
	items, err := m.RefreshTransactions(ctx)
	require.Error(t, err)
	require.Len(t, items, 1, "a failed fetch must not wipe displayed data")

	state := m.TransactionsState()
	assert.Error(t, state.Err)
	require.Len(t, state.Items, 1)
	assert.Equal(t, domain.TransactionID("t-1"), state.Items[0].ID)

	// The next success clears the recorded error.
	fail.Store(false)
	_, err = m.RefreshTransactions(ctx)
	require.NoError(t, err)
	assert.NoError(t, m.TransactionsState().Err)
}

func TestSyncManager_PollingStops(t *testing.T) {
	var calls atomic.Int64
	fetched := make(chan struct{}, 16)

	m := NewSyncManager(SyncConfig{
		FetchTransactions: func(ctx context.Context) ([]domain.Transaction, error) {
			calls.Add(1)
			select {
			case fetched <- struct{}{}:
			default:
			}
			return nil, nil
		},
		FetchGoals:          func(ctx context.Context) ([]domain.Goal, error) { return nil, nil },
		FetchConnections:    func(ctx context.Context) ([]domain.Connection, error) { return nil, nil },
		TransactionInterval: 10 * time.Millisecond,
		GoalInterval:        time.Hour,
		ConnectionInterval:  time.Hour,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.StartPolling(ctx)

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("polling never fetched")
	}

	m.StopPolling()
	settled := calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load(), "no fetches after StopPolling returns")
}

func TestSyncManager_RunClearsOnDeactivate(t *testing.T) {
	m := newTestSyncManager(func(ctx context.Context) ([]domain.Transaction, error) {
		return []domain.Transaction{tx("t-1", "rent", "-900.00")}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan SessionChange)
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx, changes)
	}()

	changes <- SessionChange{State: SessionAuthenticated, Active: true}
	require.Eventually(t, func() bool {
		return len(m.TransactionsState().Items) == 1
	}, 2*time.Second, 10*time.Millisecond)

	changes <- SessionChange{State: SessionUnauthenticated, Active: false}
	require.Eventually(t, func() bool {
		return len(m.TransactionsState().Items) == 0
	}, 2*time.Second, 10*time.Millisecond)

	close(changes)
	<-done
}

func TestSyncManager_RefreshWithFollowUp(t *testing.T) {
	var connCalls, goalCalls atomic.Int64

	m := NewSyncManager(SyncConfig{
		FetchTransactions: func(ctx context.Context) ([]domain.Transaction, error) { return nil, nil },
		FetchGoals: func(ctx context.Context) ([]domain.Goal, error) {
			goalCalls.Add(1)
			return nil, nil
		},
		FetchConnections: func(ctx context.Context) ([]domain.Connection, error) {
			connCalls.Add(1)
			return nil, nil
		},
		FollowUpDelay: 10 * time.Millisecond,
	})

	done, err := m.RefreshWithFollowUp(context.Background(), SourceConnections, SourceGoals)
	require.NoError(t, err)
	assert.Equal(t, int64(1), connCalls.Load())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("follow-up never completed")
	}

	assert.Equal(t, int64(2), connCalls.Load(), "immediate source refreshed again after the delay")
	assert.Equal(t, int64(1), goalCalls.Load())
}
