package api

import (
	"time"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/shopspring/decimal"
)

func userFromPayload(payload userPayload) domain.UserSnapshot {
	return domain.UserSnapshot{
		ID:          domain.UserID(payload.ID),
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
		Locale:      payload.Locale,
		Tier:        domain.SubscriptionTier(payload.Tier),
	}
}

func transactionFromPayload(payload transactionPayload) domain.Transaction {
	return domain.Transaction{
		ID:           domain.TransactionID(payload.ID),
		ConnectionID: domain.ConnectionID(payload.ConnectionID),
		Description:  payload.Description,
		Category:     payload.Category,
		Amount:       parseAmount(payload.Amount),
		OccurredOn:   parseTime(payload.OccurredOn),
	}
}

func connectionFromPayload(payload connectionPayload) domain.Connection {
	return domain.Connection{
		ID:           domain.ConnectionID(payload.ID),
		Institution:  payload.Institution,
		Status:       domain.ConnectionStatus(payload.Status),
		LastSyncedAt: parseTime(payload.LastSyncedAt),
	}
}

func parseAmount(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}

	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}

	return parsed
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
