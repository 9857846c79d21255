package domain

import "time"

// UserCacheMaxAge is the freshness window beyond which a cached profile
// snapshot may not substitute for a live fetch.
const UserCacheMaxAge = 24 * time.Hour

type CachedUser struct {
	User      UserSnapshot
	WrittenAt time.Time
}

func (c CachedUser) IsStale(now time.Time, maxAge time.Duration) bool {
	if c.WrittenAt.IsZero() {
		return true
	}

	if maxAge <= 0 {
		return false
	}

	return now.Sub(c.WrittenAt) > maxAge
}
