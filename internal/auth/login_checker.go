package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

type sessionRefresher interface {
	Refresh(ctx context.Context, session Session) (*Session, error)
}

var _ sessionRefresher = (*Service)(nil)

type LoginChecker struct {
	ttl         time.Duration
	redisClient *redis.Client
	refresher   sessionRefresher
}

func NewLoginChecker(ttl time.Duration, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		redisClient: redisClient,
	}
}

// WithRefresher makes the checker renew backend credentials that are about
// to expire before handing the session out.
func (lc *LoginChecker) WithRefresher(refresher sessionRefresher) *LoginChecker {
	lc.refresher = refresher
	return lc
}

// Session returns nil (and no error) for unknown or expired tokens.
func (lc *LoginChecker) Session(ctx context.Context, token string) (*Session, error) {
	sessionJson, err := lc.redisClient.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(sessionJson, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	now := time.Now()
	if session.Expired(lc.ttl, now) {
		return nil, nil
	}

	if lc.refresher != nil && session.AccessTokenExpiring(now) {
		refreshed, err := lc.refresher.Refresh(ctx, session)
		if err != nil {
			// the stale credentials make backend calls fail soft until the next login
			log.Errorf("login checker: refresh session of [%s]: %s", session.Username, err)
			return &session, nil
		}
		return refreshed, nil
	}
	return &session, nil
}
