package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/avelara/coachctl/internal/ports"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Source string

const (
	SourceTransactions Source = "transactions"
	SourceGoals        Source = "goals"
	SourceConnections  Source = "connections"
)

const (
	DefaultTransactionInterval = 30 * time.Second
	DefaultConnectionInterval  = 30 * time.Second
	// Goals change less often and are more expensive to recompute
	// server-side, so they poll at half the cadence.
	DefaultGoalInterval = 60 * time.Second
	// DefaultFollowUpDelay gives server-side side effects (goal derivation
	// after a connect) time to land before the second refresh.
	DefaultFollowUpDelay = 5 * time.Second
)

// FetchFunc is one authoritative list fetch for a source.
type FetchFunc[T domain.Keyed] func(ctx context.Context) ([]T, error)

// SourceState is a point-in-time copy of one synced collection.
type SourceState[T domain.Keyed] struct {
	Items         []T
	Loading       bool
	InFlight      bool
	Err           error
	LastFetchedAt time.Time
}

// collection keeps one identity-keyed list near-consistent with the
// backend: single-flight fetches, a monotonic sequence guard against stale
// responses, and optimistic edits reconciled against authoritative lists.
type collection[T domain.Keyed] struct {
	source   Source
	fetch    FetchFunc[T]
	interval time.Duration
	clock    ports.Clock
	log      *zap.Logger

	flight singleflight.Group

	mu            sync.Mutex
	items         []T
	pending       map[string]T
	pendingOrder  []string
	loading       bool
	inFlight      bool
	fetchErr      error
	lastFetchedAt time.Time
	nextSeq       uint64
	appliedSeq    uint64

	pollMu     sync.Mutex
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

func newCollection[T domain.Keyed](source Source, fetch FetchFunc[T], interval time.Duration, clock ports.Clock, log *zap.Logger) *collection[T] {
	return &collection[T]{
		source:   source,
		fetch:    fetch,
		interval: interval,
		clock:    clock,
		log:      log,
		pending:  map[string]T{},
	}
}

// refresh performs an authoritative fetch. Concurrent callers coalesce
// onto one in-flight request and all receive its result. A failed fetch
// records the error and retains the previous items.
func (c *collection[T]) refresh(ctx context.Context) ([]T, error) {
	result, err, _ := c.flight.Do(string(c.source), func() (any, error) {
		c.mu.Lock()
		c.nextSeq++
		seq := c.nextSeq
		c.loading = true
		c.inFlight = true
		c.mu.Unlock()

		list, fetchErr := c.fetch(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.loading = false
		c.inFlight = false

		if fetchErr != nil {
			c.fetchErr = fetchErr
			return c.copyItemsLocked(), fetchErr
		}

		if seq < c.appliedSeq {
			// A newer response was already applied; this one is stale.
			c.log.Debug("discarding stale response", zap.String("source", string(c.source)))
			return c.copyItemsLocked(), nil
		}
		c.appliedSeq = seq

		c.items = c.reconcileLocked(list)
		c.fetchErr = nil
		c.lastFetchedAt = c.clock.Now()

		return c.copyItemsLocked(), nil
	})

	items, _ := result.([]T)
	if err != nil {
		return items, fmt.Errorf("refresh %s: %w", c.source, err)
	}

	return items, nil
}

// reconcileLocked makes the authoritative list the new ground truth:
// duplicates are dropped keeping the first occurrence, confirmed pending
// edits are discarded, unconfirmed ones stay overlaid until the next
// refresh.
func (c *collection[T]) reconcileLocked(authoritative []T) []T {
	seen := make(map[string]struct{}, len(authoritative))
	merged := make([]T, 0, len(authoritative)+len(c.pendingOrder))

	for _, item := range authoritative {
		key := item.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, item)
		delete(c.pending, key)
	}

	order := make([]string, 0, len(c.pendingOrder))
	for _, key := range c.pendingOrder {
		edit, ok := c.pending[key]
		if !ok {
			continue
		}
		order = append(order, key)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, edit)
	}
	c.pendingOrder = order

	return merged
}

func (c *collection[T]) applyOptimistic(record T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := record.Key()
	replaced := false
	for i := range c.items {
		if c.items[i].Key() == key {
			c.items[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		c.items = append(c.items, record)
	}

	if _, ok := c.pending[key]; !ok {
		c.pendingOrder = append(c.pendingOrder, key)
	}
	c.pending[key] = record
}

func (c *collection[T]) startPolling(parent context.Context) {
	c.pollMu.Lock()
	defer c.pollMu.Unlock()

	if c.pollCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	c.pollCancel = cancel
	c.pollDone = done

	go func() {
		defer close(done)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := c.refresh(ctx); err != nil {
					// Polling is not stopped by failures; the next tick
					// proceeds normally.
					c.log.Warn("scheduled refresh failed",
						zap.String("source", string(c.source)), zap.Error(err))
				}
			}
		}
	}()
}

func (c *collection[T]) stopPolling() {
	c.pollMu.Lock()
	cancel := c.pollCancel
	done := c.pollDone
	c.pollCancel = nil
	c.pollDone = nil
	c.pollMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *collection[T]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.pending = map[string]T{}
	c.pendingOrder = nil
	c.loading = false
	c.inFlight = false
	c.fetchErr = nil
	c.lastFetchedAt = time.Time{}
}

func (c *collection[T]) state() SourceState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return SourceState[T]{
		Items:         c.copyItemsLocked(),
		Loading:       c.loading,
		InFlight:      c.inFlight,
		Err:           c.fetchErr,
		LastFetchedAt: c.lastFetchedAt,
	}
}

func (c *collection[T]) copyItemsLocked() []T {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return items
}

// SyncConfig wires the three sources. Zero durations take the defaults.
type SyncConfig struct {
	FetchTransactions FetchFunc[domain.Transaction]
	FetchGoals        FetchFunc[domain.Goal]
	FetchConnections  FetchFunc[domain.Connection]

	TransactionInterval time.Duration
	GoalInterval        time.Duration
	ConnectionInterval  time.Duration
	FollowUpDelay       time.Duration

	Clock  ports.Clock
	Logger *zap.Logger
}

// SyncManager keeps the three data collections near-real-time-consistent
// with the backend, bounded by one polling interval per source.
type SyncManager struct {
	transactions *collection[domain.Transaction]
	goals        *collection[domain.Goal]
	connections  *collection[domain.Connection]

	followUpDelay time.Duration
	log           *zap.Logger

	mu      sync.Mutex
	running bool
}

func NewSyncManager(cfg SyncConfig) *SyncManager {
	clock := cfg.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	txInterval := cfg.TransactionInterval
	if txInterval <= 0 {
		txInterval = DefaultTransactionInterval
	}
	goalInterval := cfg.GoalInterval
	if goalInterval <= 0 {
		goalInterval = DefaultGoalInterval
	}
	connInterval := cfg.ConnectionInterval
	if connInterval <= 0 {
		connInterval = DefaultConnectionInterval
	}
	followUpDelay := cfg.FollowUpDelay
	if followUpDelay <= 0 {
		followUpDelay = DefaultFollowUpDelay
	}

	return &SyncManager{
		transactions:  newCollection(SourceTransactions, cfg.FetchTransactions, txInterval, clock, log),
		goals:         newCollection(SourceGoals, cfg.FetchGoals, goalInterval, clock, log),
		connections:   newCollection(SourceConnections, cfg.FetchConnections, connInterval, clock, log),
		followUpDelay: followUpDelay,
		log:           log,
	}
}

func (m *SyncManager) RefreshTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return m.transactions.refresh(ctx)
}

func (m *SyncManager) RefreshGoals(ctx context.Context) ([]domain.Goal, error) {
	return m.goals.refresh(ctx)
}

func (m *SyncManager) RefreshConnections(ctx context.Context) ([]domain.Connection, error) {
	return m.connections.refresh(ctx)
}

func (m *SyncManager) Refresh(ctx context.Context, source Source) error {
	switch source {
	case SourceTransactions:
		_, err := m.RefreshTransactions(ctx)
		return err
	case SourceGoals:
		_, err := m.RefreshGoals(ctx)
		return err
	case SourceConnections:
		_, err := m.RefreshConnections(ctx)
		return err
	default:
		return fmt.Errorf("unknown source %q", source)
	}
}

// RefreshAll fetches the three sources concurrently. Sources are
// independent; one failing never blocks the others.
func (m *SyncManager) RefreshAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, 3)

	for i, source := range []Source{SourceTransactions, SourceGoals, SourceConnections} {
		wg.Add(1)
		go func(i int, source Source) {
			defer wg.Done()
			errs[i] = m.Refresh(ctx, source)
		}(i, source)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// RefreshWithFollowUp schedules the two refreshes a mutation with
// asynchronous server-side side effects needs: an immediate one for the
// primary effect and a delayed one picking up derived changes. The
// returned channel closes once the follow-up completes.
func (m *SyncManager) RefreshWithFollowUp(ctx context.Context, immediate Source, delayed ...Source) (<-chan struct{}, error) {
	err := m.Refresh(ctx, immediate)

	done := make(chan struct{})
	go func() {
		defer close(done)

		timer := time.NewTimer(m.followUpDelay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		for _, source := range append([]Source{immediate}, delayed...) {
			if err := m.Refresh(ctx, source); err != nil {
				m.log.Warn("follow-up refresh failed",
					zap.String("source", string(source)), zap.Error(err))
			}
		}
	}()

	return done, err
}

func (m *SyncManager) ApplyTransaction(tx domain.Transaction) { m.transactions.applyOptimistic(tx) }

func (m *SyncManager) ApplyGoal(goal domain.Goal) { m.goals.applyOptimistic(goal) }

func (m *SyncManager) ApplyConnection(conn domain.Connection) { m.connections.applyOptimistic(conn) }

func (m *SyncManager) StartPolling(ctx context.Context) {
	m.transactions.startPolling(ctx)
	m.goals.startPolling(ctx)
	m.connections.startPolling(ctx)
}

func (m *SyncManager) StopPolling() {
	m.transactions.stopPolling()
	m.goals.stopPolling()
	m.connections.stopPolling()
}

func (m *SyncManager) StartSourcePolling(ctx context.Context, source Source) error {
	switch source {
	case SourceTransactions:
		m.transactions.startPolling(ctx)
	case SourceGoals:
		m.goals.startPolling(ctx)
	case SourceConnections:
		m.connections.startPolling(ctx)
	default:
		return fmt.Errorf("unknown source %q", source)
	}
	return nil
}

func (m *SyncManager) StopSourcePolling(source Source) error {
	switch source {
	case SourceTransactions:
		m.transactions.stopPolling()
	case SourceGoals:
		m.goals.stopPolling()
	case SourceConnections:
		m.connections.stopPolling()
	default:
		return fmt.Errorf("unknown source %q", source)
	}
	return nil
}

// Run ties the sync lifecycle to the session: an active session starts the
// initial load and the polling loops, a closed one stops them and clears
// the collections. Returns when ctx is cancelled or the channel closes.
func (m *SyncManager) Run(ctx context.Context, changes <-chan SessionChange) {
	defer m.deactivate()

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.Active {
				m.activate(ctx)
			} else {
				m.deactivate()
			}
		}
	}
}

func (m *SyncManager) activate(ctx context.Context) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	if err := m.RefreshAll(ctx); err != nil {
		m.log.Warn("initial load incomplete", zap.Error(err))
	}
	m.StartPolling(ctx)
}

func (m *SyncManager) deactivate() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	m.StopPolling()
	m.transactions.clear()
	m.goals.clear()
	m.connections.clear()
}

func (m *SyncManager) TransactionsState() SourceState[domain.Transaction] {
	return m.transactions.state()
}

func (m *SyncManager) GoalsState() SourceState[domain.Goal] { return m.goals.state() }

func (m *SyncManager) ConnectionsState() SourceState[domain.Connection] {
	return m.connections.state()
}
