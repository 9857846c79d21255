package dashboard

import (
	"fmt"
	"testing"
	"time"

	"github.com/avelara/coachctl/internal/application"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderAuthenticatedDashboard(t *testing.T) {
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	user := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com", DisplayName: "Ana", Tier: domain.TierPlus}

	output, err := Render(application.DashboardSnapshot{
		Session: application.SessionStatus{
			State: application.SessionAuthenticated,
			User:  &user,
		},
		Goals: application.SourceState[domain.Goal]{
			Items: []domain.Goal{
				{
					ID:           "g-1",
					Name:         "Emergency fund",
					TargetAmount: decimal.RequireFromString("1000.00"),
					SavedAmount:  decimal.RequireFromString("250.00"),
					TargetDate:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
				},
			},
			LastFetchedAt: now.Add(-30 * time.Second),
		},
		Connections: application.SourceState[domain.Connection]{
			Items: []domain.Connection{
				{ID: "c-1", Institution: "First National", Status: domain.ConnectionActive, LastSyncedAt: now.Add(-5 * time.Minute)},
			},
			LastFetchedAt: now.Add(-30 * time.Second),
		},
		Transactions: application.SourceState[domain.Transaction]{
			Items: []domain.Transaction{
				{ID: "t-1", Description: "Groceries", Category: "Food", Amount: decimal.RequireFromString("-42.10"), OccurredOn: now.Add(-24 * time.Hour)},
				{ID: "t-2", Description: "Paycheck", Amount: decimal.RequireFromString("2100.00"), OccurredOn: now.Add(-48 * time.Hour)},
			},
			LastFetchedAt: now.Add(-30 * time.Second),
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Ana")
	assert.Contains(t, output, "(Plus)")
	assert.Contains(t, output, "Goals: 1")
	assert.Contains(t, output, "Emergency fund")
	assert.Contains(t, output, "$250.00 / $1000.00 ( 25%)")
	assert.Contains(t, output, "by 31 Dec 2026")
	assert.Contains(t, output, "Linked accounts: 1")
	assert.Contains(t, output, "First National")
	assert.Contains(t, output, "active")
	assert.Contains(t, output, "synced 5m ago")
	assert.Contains(t, output, "Recent transactions: 2")
	assert.Contains(t, output, "Groceries")
	assert.Contains(t, output, "$-42.10")
	assert.Contains(t, output, "$2100.00")
	assert.Contains(t, output, "Food")
	assert.NotContains(t, output, "refresh failed")
}

func TestRenderDegradedSessionShowsOfflineCopy(t *testing.T) {
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	user := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com", DisplayName: "Ana"}

	output, err := Render(application.DashboardSnapshot{
		Session: application.SessionStatus{
			State:    application.SessionDegraded,
			User:     &user,
			CachedAt: now.Add(-3 * time.Hour),
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Ana")
	assert.Contains(t, output, "[offline copy from 3h]")
}

func TestRenderUnauthenticatedDashboard(t *testing.T) {
	output, err := Render(application.DashboardSnapshot{
		Session: application.SessionStatus{State: application.SessionUnauthenticated},
	}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "Not signed in")
	assert.Contains(t, output, "No goals yet.")
	assert.Contains(t, output, "No linked accounts.")
	assert.Contains(t, output, "No transactions.")
}

func TestRenderKeepsStaleDataOnRefreshError(t *testing.T) {
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	user := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com", DisplayName: "Ana"}

	output, err := Render(application.DashboardSnapshot{
		Session: application.SessionStatus{State: application.SessionAuthenticated, User: &user},
		Transactions: application.SourceState[domain.Transaction]{
			Items: []domain.Transaction{
				{ID: "t-1", Description: "Groceries", Amount: decimal.RequireFromString("-42.10")},
			},
			Err:           assert.AnError,
			LastFetchedAt: now.Add(-10 * time.Minute),
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Groceries")
	assert.Contains(t, output, "refresh failed; showing last known data")
	assert.Contains(t, output, "(as of 10m ago)")
}

func TestRenderCapsTransactionList(t *testing.T) {
	now := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	user := domain.UserSnapshot{ID: "u-1", Email: "ana@example.com", DisplayName: "Ana"}

	items := make([]domain.Transaction, 5)
	for i := range items {
		items[i] = domain.Transaction{
			ID:          domain.TransactionID(fmt.Sprintf("t-%d", i)),
			Description: "item",
			Amount:      decimal.New(int64(-i-1), 0),
		}
	}

	output, err := Render(application.DashboardSnapshot{
		Session:      application.SessionStatus{State: application.SessionAuthenticated, User: &user},
		Transactions: application.SourceState[domain.Transaction]{Items: items, LastFetchedAt: now},
	}, RenderOptions{Now: now, MaxTransactions: 3})

	require.NoError(t, err)
	assert.Contains(t, output, "Recent transactions: 5")
	assert.Contains(t, output, "... and 2 more")
}
