package auth

import (
	"context"
	"time"
)

// accessRefreshMargin is how long before its expiry a backend access token
// gets replaced.
const accessRefreshMargin = time.Minute

// Session is what a login token resolves to.
type Session struct {
	Token        string `json:"token"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	AccessToken  string `json:"accessToken,omitempty"`
	RefreshToken string `json:"refreshToken,omitempty"`
	// AccessExpiresAt is zero for sessions without backend credentials
	AccessExpiresAt time.Time `json:"accessExpiresAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (s *Session) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.CreatedAt) > ttl
}

// AccessTokenExpiring reports whether the backend access token is about to
// expire and can be refreshed.
func (s *Session) AccessTokenExpiring(now time.Time) bool {
	if s.RefreshToken == "" || s.AccessExpiresAt.IsZero() {
		return false
	}
	return !now.Add(accessRefreshMargin).Before(s.AccessExpiresAt)
}

type sessionCtxKey struct{}

func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, session)
}

func SessionFrom(ctx context.Context) (*Session, bool) {
	session, ok := ctx.Value(sessionCtxKey{}).(*Session)
	return session, ok && session != nil
}

type Event string

const (
	EventSignedIn       Event = "signed_in"
	EventSignedOut      Event = "signed_out"
	EventTokenRefreshed Event = "token_refreshed"
)

// Listener is notified of session changes. Listeners run synchronously on
// the goroutine that changed the session and must not block.
type Listener func(event Event, session Session)
