package application

import (
	"time"

	"github.com/avelara/coachctl/internal/domain"
)

// DashboardSnapshot bundles everything one render of the dashboard needs.
type DashboardSnapshot struct {
	Session      SessionStatus
	Transactions SourceState[domain.Transaction]
	Goals        SourceState[domain.Goal]
	Connections  SourceState[domain.Connection]
	GeneratedAt  time.Time
}

// BuildDashboard takes a consistent point-in-time copy of the session and
// the three synced collections.
func BuildDashboard(session *SessionManager, sync *SyncManager) DashboardSnapshot {
	return DashboardSnapshot{
		Session:      session.Status(),
		Transactions: sync.TransactionsState(),
		Goals:        sync.GoalsState(),
		Connections:  sync.ConnectionsState(),
		GeneratedAt:  time.Now(),
	}
}
