package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/2beens/liftlog/pkg"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "liftlog-session||"
	// hash of token -> user id, lets expired sessions be reported per user
	tokensKey   = "liftlog-sessions"
	tokenLength = 35
)

type Service struct {
	redisClient   *redis.Client
	authenticator Authenticator
	ttl           time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)

	listenersMutex sync.RWMutex
	listeners      []Listener

	// concurrent requests of one session share a single refresh
	refreshGroup singleflight.Group
}

func NewAuthService(
	authenticator Authenticator,
	ttl time.Duration,
	redisClient *redis.Client,
) *Service {
	return &Service{
		authenticator:  authenticator,
		ttl:            ttl,
		redisClient:    redisClient,
		RandStringFunc: pkg.GenerateRandomString,
	}
}

// OnSessionChange registers a listener for sign in and sign out events.
func (as *Service) OnSessionChange(listener Listener) {
	as.listenersMutex.Lock()
	defer as.listenersMutex.Unlock()
	as.listeners = append(as.listeners, listener)
}

func (as *Service) notify(event Event, session Session) {
	as.listenersMutex.RLock()
	defer as.listenersMutex.RUnlock()
	for _, listener := range as.listeners {
		listener(event, session)
	}
}

func (as *Service) Login(ctx context.Context, creds Credentials, createdAt time.Time) (*Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	identity, err := as.authenticator.SignIn(ctx, creds)
	if err != nil {
		return nil, err
	}
	return as.startSession(ctx, identity, createdAt)
}

func (as *Service) SignUp(ctx context.Context, creds Credentials, createdAt time.Time) (*Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	identity, err := as.authenticator.SignUp(ctx, creds)
	if err != nil {
		return nil, err
	}
	return as.startSession(ctx, identity, createdAt)
}

func (as *Service) startSession(ctx context.Context, identity *Identity, createdAt time.Time) (*Session, error) {
	token, err := as.RandStringFunc(tokenLength)
	if err != nil {
		return nil, err
	}

	session := Session{
		Token:           token,
		UserID:          identity.UserID,
		Username:        identity.Username,
		AccessToken:     identity.AccessToken,
		RefreshToken:    identity.RefreshToken,
		AccessExpiresAt: identity.AccessExpiresAt,
		CreatedAt:       createdAt,
	}
	sessionJson, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	if err := as.redisClient.Set(ctx, sessionKeyPrefix+token, sessionJson, as.ttl).Err(); err != nil {
		return nil, err
	}

	// add token to list of sessions
	if err := as.redisClient.HSet(ctx, tokensKey, token, session.UserID).Err(); err != nil {
		return nil, err
	}

	as.notify(EventSignedIn, session)
	return &session, nil
}

// Refresh renews the backend credentials of a session and stores them under
// the same login token, keeping its remaining TTL.
func (as *Service) Refresh(ctx context.Context, session Session) (*Session, error) {
	refreshed, err, _ := as.refreshGroup.Do(session.Token, func() (any, error) {
		identity, err := as.authenticator.Refresh(ctx, Identity{
			UserID:          session.UserID,
			Username:        session.Username,
			AccessToken:     session.AccessToken,
			RefreshToken:    session.RefreshToken,
			AccessExpiresAt: session.AccessExpiresAt,
		})
		if err != nil {
			return nil, err
		}

		updated := session
		updated.AccessToken = identity.AccessToken
		updated.RefreshToken = identity.RefreshToken
		updated.AccessExpiresAt = identity.AccessExpiresAt

		sessionJson, err := json.Marshal(updated)
		if err != nil {
			return nil, fmt.Errorf("marshal session: %w", err)
		}
		if err := as.redisClient.Set(ctx, sessionKeyPrefix+session.Token, sessionJson, redis.KeepTTL).Err(); err != nil {
			return nil, err
		}

		log.Debugf("auth service: refreshed backend credentials of [%s]", session.Username)
		as.notify(EventTokenRefreshed, updated)
		return &updated, nil
	})
	if err != nil {
		return nil, err
	}
	return refreshed.(*Session), nil
}

// Logout reports false when the token belongs to no live session.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	sessionKey := sessionKeyPrefix + token
	sessionJson, err := as.redisClient.Get(ctx, sessionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	var session Session
	if err := json.Unmarshal(sessionJson, &session); err != nil {
		return false, fmt.Errorf("unmarshal session: %w", err)
	}

	if err := as.removeSession(ctx, token); err != nil {
		return false, err
	}

	if err := as.authenticator.SignOut(ctx, Identity{
		UserID:      session.UserID,
		Username:    session.Username,
		AccessToken: session.AccessToken,
	}); err != nil {
		log.Errorf("auth service, logout [%s]: sign out: %s", session.Username, err)
	}

	as.notify(EventSignedOut, session)
	return true, nil
}

func (as *Service) removeSession(ctx context.Context, token string) error {
	if err := as.redisClient.Del(ctx, sessionKeyPrefix+token).Err(); err != nil {
		return err
	}
	// remove token from the list of sessions
	return as.redisClient.HDel(ctx, tokensKey, token).Err()
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	tokens, err := as.redisClient.HGetAll(ctx, tokensKey).Result()
	if err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	if len(tokens) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	sortedTokens := make([]string, 0, len(tokens))
	for token := range tokens {
		sortedTokens = append(sortedTokens, token)
	}
	slices.Sort(sortedTokens)

	log.Debugf("=> auth service, scan and clean [%d sessions] start ...", len(tokens))
	now := time.Now()
	var toRemove []Session
	for _, token := range sortedTokens {
		sessionJson, err := as.redisClient.Get(ctx, sessionKeyPrefix+token).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// expired by the key ttl
				toRemove = append(toRemove, Session{Token: token, UserID: tokens[token]})
				continue
			}
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}

		var session Session
		if err := json.Unmarshal(sessionJson, &session); err != nil {
			log.Errorf("=> auth service, scan and clean token %s: %s", token, err)
			continue
		}
		if session.Expired(as.ttl, now) {
			toRemove = append(toRemove, session)
		}
	}

	for _, session := range toRemove {
		log.Debugf("=>\twill clean the session of user: %s", session.UserID)
		if err := as.removeSession(ctx, session.Token); err != nil {
			log.Errorf("=> auth service, clean token %s: %s", session.Token, err)
			continue
		}
		as.notify(EventSignedOut, session)
	}
}
