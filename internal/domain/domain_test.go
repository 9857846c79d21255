package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedUserStaleDetection(t *testing.T) {
	writtenAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := CachedUser{User: UserSnapshot{ID: "u-1"}, WrittenAt: writtenAt}

	assert.False(t, c.IsStale(writtenAt.Add(23*time.Hour), UserCacheMaxAge))
	assert.True(t, c.IsStale(writtenAt.Add(25*time.Hour), UserCacheMaxAge))
}

func TestCachedUserStaleDetectionZeroWrittenAt(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := CachedUser{}

	assert.True(t, c.IsStale(now, UserCacheMaxAge))
}

func TestCachedUserStaleDetectionNonPositiveMaxAge(t *testing.T) {
	writtenAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := CachedUser{WrittenAt: writtenAt}

	assert.False(t, c.IsStale(writtenAt.Add(72*time.Hour), 0))
	assert.False(t, c.IsStale(writtenAt.Add(72*time.Hour), -time.Minute))
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		name string
		goal Goal
		want float64
	}{
		{
			name: "halfway",
			goal: Goal{TargetAmount: decimal.NewFromInt(1000), SavedAmount: decimal.NewFromInt(500)},
			want: 0.5,
		},
		{
			name: "overfunded clamps to one",
			goal: Goal{TargetAmount: decimal.NewFromInt(100), SavedAmount: decimal.NewFromInt(150)},
			want: 1,
		},
		{
			name: "zero target",
			goal: Goal{SavedAmount: decimal.NewFromInt(50)},
			want: 0,
		},
		{
			name: "negative saved clamps to zero",
			goal: Goal{TargetAmount: decimal.NewFromInt(100), SavedAmount: decimal.NewFromInt(-10)},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.goal.Progress(), 1e-9)
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	require.True(t, IsTerminal(ErrUnauthorized))
	require.False(t, IsTransient(ErrUnauthorized))

	wrapped := Transient(assert.AnError)
	require.True(t, IsTransient(wrapped))
	require.False(t, IsTerminal(wrapped))
	require.ErrorIs(t, wrapped, assert.AnError)

	assert.Nil(t, Transient(nil))
}

func TestIsSupportedLocale(t *testing.T) {
	assert.True(t, IsSupportedLocale("en"))
	assert.True(t, IsSupportedLocale(" FR "))
	assert.False(t, IsSupportedLocale("tlh"))
	assert.False(t, IsSupportedLocale(""))
}

func TestSubscriptionTierLabel(t *testing.T) {
	assert.Equal(t, "Premium", TierPremium.Label())
	assert.Equal(t, "Free", TierFree.Label())
	assert.Equal(t, "trial", SubscriptionTier("trial").Label())
}
