package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/backend"
	"github.com/2beens/liftlog/pkg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrWrongCredentials = errors.New("wrong username or password")
	ErrSignUpDisabled   = errors.New("sign up is disabled")
	ErrMissingPassword  = errors.New("password is required")
	ErrNoRefreshToken   = errors.New("session has no refresh token")
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return backend.ErrUsernameRequired
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	return nil
}

// Identity is a successfully authenticated user.
type Identity struct {
	UserID          string
	Username        string
	AccessToken     string
	RefreshToken    string
	AccessExpiresAt time.Time
}

type Authenticator interface {
	SignUp(ctx context.Context, creds Credentials) (*Identity, error)
	SignIn(ctx context.Context, creds Credentials) (*Identity, error)
	SignOut(ctx context.Context, identity Identity) error
	// Refresh exchanges the identity's refresh token for new credentials.
	Refresh(ctx context.Context, identity Identity) (*Identity, error)
}

type backendAuth interface {
	SignUp(ctx context.Context, username, password string) (*backend.Session, error)
	SignIn(ctx context.Context, username, password string) (*backend.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*backend.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	UpsertProfile(ctx context.Context, accessToken string, profile backend.Profile) error
}

var (
	_ Authenticator = (*BackendAuthenticator)(nil)
	_ Authenticator = (*LocalAuthenticator)(nil)
	_ backendAuth   = (*backend.Client)(nil)
)

// BackendAuthenticator delegates identities to the hosted backend.
type BackendAuthenticator struct {
	client backendAuth
}

func NewBackendAuthenticator(client *backend.Client) *BackendAuthenticator {
	return &BackendAuthenticator{
		client: client,
	}
}

func (a *BackendAuthenticator) SignUp(ctx context.Context, creds Credentials) (*Identity, error) {
	session, err := a.client.SignUp(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("backend sign up: %w", err)
	}

	if session.AccessToken == "" {
		// account needs an explicit sign in before a session is issued
		session, err = a.client.SignIn(ctx, creds.Username, creds.Password)
		if err != nil {
			return nil, fmt.Errorf("backend sign in after sign up: %w", err)
		}
	}

	username := strings.TrimSpace(creds.Username)
	if err := a.client.UpsertProfile(ctx, session.AccessToken, backend.Profile{
		ID:       session.User.ID,
		Username: username,
	}); err != nil {
		// the account exists, a missing profile row is not fatal
		log.Errorf("auth: sign up [%s]: %s", username, err)
	}

	return identityFromBackend(session), nil
}

func (a *BackendAuthenticator) SignIn(ctx context.Context, creds Credentials) (*Identity, error) {
	session, err := a.client.SignIn(ctx, creds.Username, creds.Password)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return nil, fmt.Errorf("%w: %s", ErrWrongCredentials, apiErr.Error())
		}
		return nil, fmt.Errorf("backend sign in: %w", err)
	}
	return identityFromBackend(session), nil
}

func (a *BackendAuthenticator) SignOut(ctx context.Context, identity Identity) error {
	if identity.AccessToken == "" {
		return nil
	}
	return a.client.SignOut(ctx, identity.AccessToken)
}

func (a *BackendAuthenticator) Refresh(ctx context.Context, identity Identity) (*Identity, error) {
	if identity.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	session, err := a.client.RefreshSession(ctx, identity.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("backend refresh session: %w", err)
	}

	refreshed := identityFromBackend(session)
	if refreshed.UserID == "" {
		refreshed.UserID = identity.UserID
	}
	if refreshed.Username == "" {
		refreshed.Username = identity.Username
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = identity.RefreshToken
	}
	return refreshed, nil
}

func identityFromBackend(session *backend.Session) *Identity {
	expiresAt := session.Expiry()
	if expiresAt.IsZero() && session.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(session.ExpiresIn) * time.Second)
	}
	return &Identity{
		UserID:          session.User.ID,
		Username:        session.User.Username(),
		AccessToken:     session.AccessToken,
		RefreshToken:    session.RefreshToken,
		AccessExpiresAt: expiresAt,
	}
}

// LocalAuthenticator checks credentials against a fixed set of users with
// bcrypt password hashes. Used when workouts are not stored in the hosted
// backend.
type LocalAuthenticator struct {
	passwordHashes map[string]string
}

func NewLocalAuthenticator(users map[string]string) *LocalAuthenticator {
	passwordHashes := make(map[string]string, len(users))
	for username, hash := range users {
		passwordHashes[strings.ToLower(strings.TrimSpace(username))] = hash
	}
	return &LocalAuthenticator{
		passwordHashes: passwordHashes,
	}
}

func (a *LocalAuthenticator) SignUp(_ context.Context, _ Credentials) (*Identity, error) {
	return nil, ErrSignUpDisabled
}

func (a *LocalAuthenticator) SignIn(_ context.Context, creds Credentials) (*Identity, error) {
	username := strings.ToLower(strings.TrimSpace(creds.Username))
	hash, ok := a.passwordHashes[username]
	if !ok || !pkg.CheckPasswordHash(creds.Password, hash) {
		return nil, ErrWrongCredentials
	}
	return &Identity{
		UserID:   LocalUserID(username),
		Username: username,
	}, nil
}

func (a *LocalAuthenticator) SignOut(_ context.Context, _ Identity) error {
	return nil
}

// Refresh has nothing to renew, local identities carry no backend tokens.
func (a *LocalAuthenticator) Refresh(_ context.Context, identity Identity) (*Identity, error) {
	return &identity, nil
}

// LocalUserID derives a stable user id from a local username.
func LocalUserID(username string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("liftlog:"+strings.ToLower(username))).String()
}
