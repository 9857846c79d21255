package domain

import "strings"

type UserID string

type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "free"
	TierPlus    SubscriptionTier = "plus"
	TierPremium SubscriptionTier = "premium"
)

func (t SubscriptionTier) Label() string {
	switch t {
	case TierFree:
		return "Free"
	case TierPlus:
		return "Plus"
	case TierPremium:
		return "Premium"
	default:
		return string(t)
	}
}

// UserSnapshot is the profile record returned by the coaching API. The
// session manager owns the canonical copy; everyone else gets a value copy.
type UserSnapshot struct {
	ID          UserID
	Email       string
	DisplayName string
	Locale      string
	Tier        SubscriptionTier
}

// UserPatch carries a partial profile update. Nil fields are left unchanged.
type UserPatch struct {
	DisplayName *string
	Locale      *string
}

// SupportedLocales is the fixed set of locale codes the service ships
// string tables for.
var SupportedLocales = []string{"en", "es", "fr", "de", "pt"}

func IsSupportedLocale(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, locale := range SupportedLocales {
		if code == locale {
			return true
		}
	}
	return false
}
