package domain

import "time"

// Token is a short-lived bearer credential. Tokens are replaced whole on
// refresh, never edited in place, and never written to storage.
type Token struct {
	Value     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the token is still usable at now, keeping margin of
// headroom so a token does not expire mid-flight of a long request.
func (t Token) Fresh(now time.Time, margin time.Duration) bool {
	return t.Value != "" && now.Before(t.ExpiresAt.Add(-margin))
}
