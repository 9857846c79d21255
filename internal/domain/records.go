package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Keyed is implemented by every synced record type. The key is the stable
// identity the sync layer deduplicates and reconciles on.
type Keyed interface {
	Key() string
}

type TransactionID string

// Transaction is a single ledger movement. Negative amounts are expenses,
// positive amounts are income.
type Transaction struct {
	ID           TransactionID
	ConnectionID ConnectionID
	Description  string
	Category     string
	Amount       decimal.Decimal
	OccurredOn   time.Time
}

func (t Transaction) Key() string { return string(t.ID) }

type GoalID string

type Goal struct {
	ID           GoalID
	Name         string
	TargetAmount decimal.Decimal
	SavedAmount  decimal.Decimal
	TargetDate   time.Time
}

func (g Goal) Key() string { return string(g.ID) }

// Progress returns how much of the target has been saved, in [0, 1].
func (g Goal) Progress() float64 {
	if g.TargetAmount.Sign() <= 0 {
		return 0
	}
	ratio, _ := g.SavedAmount.Div(g.TargetAmount).Float64()
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 1
	}
	return ratio
}

type ConnectionID string

type ConnectionStatus string

const (
	ConnectionActive       ConnectionStatus = "active"
	ConnectionSyncing      ConnectionStatus = "syncing"
	ConnectionError        ConnectionStatus = "error"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// Connection is a linked external account (bank, card, broker).
type Connection struct {
	ID           ConnectionID
	Institution  string
	Status       ConnectionStatus
	LastSyncedAt time.Time
}

func (c Connection) Key() string { return string(c.ID) }
