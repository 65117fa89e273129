package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
)

// syntheticEmailDomain is appended to bare usernames, the auth API only
// knows email identities.
const syntheticEmailDomain = "user.login"

type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Username returns the username given at sign up, or the local part of the email.
func (u *User) Username() string {
	if name, ok := u.UserMetadata["username"].(string); ok && name != "" {
		return name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

func (s *Session) Expiry() time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	return time.Time{}
}

// UsernameToEmail maps a bare username to the synthetic address the auth
// API requires; inputs already containing '@' are used as they are.
// Returns an empty string for blank input.
func UsernameToEmail(username string) string {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return ""
	}
	if strings.Contains(trimmed, "@") {
		return trimmed
	}
	return trimmed + "@" + syntheticEmailDomain
}

var ErrUsernameRequired = errors.New("username is required")

type credentials struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// SignUp registers a user. When the backend auto-confirms accounts a
// session is returned, otherwise only the user is set and the session
// tokens are empty.
func (c *Client) SignUp(ctx context.Context, username, password string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.auth.signup")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	email := UsernameToEmail(username)
	if email == "" {
		return nil, ErrUsernameRequired
	}

	var raw json.RawMessage
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body: credentials{
			Email:    email,
			Password: password,
			Data:     map[string]any{"username": strings.TrimSpace(username)},
		},
	}, &raw); err != nil {
		return nil, err
	}

	session := &Session{}
	if err := json.Unmarshal(raw, session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		// no session, the answer is the bare user
		if err := json.Unmarshal(raw, &session.User); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (c *Client) SignIn(ctx context.Context, username, password string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.auth.signin")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	email := UsernameToEmail(username)
	if email == "" {
		return nil, ErrUsernameRequired
	}

	session := &Session{}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		params: url.Values{"grant_type": {"password"}},
		body: credentials{
			Email:    email,
			Password: password,
		},
	}, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.auth.refresh")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	session := &Session{}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		params: url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	}, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.auth.signout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
	}, nil)
}

func (c *Client) GetUser(ctx context.Context, accessToken string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backend.auth.user")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user := &User{}
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
	}, user); err != nil {
		return nil, err
	}
	return user, nil
}
