package session

import (
	"context"
	"sync"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/workouts"

	log "github.com/sirupsen/logrus"
)

// RepoFactory returns the workouts repo of a signed in user, or nil when
// no backend is configured.
type RepoFactory func(session *auth.Session) workouts.Repo

// Registry keeps one Store per user.
type Registry struct {
	repoFactory    RepoFactory
	metricsManager *metrics.Manager

	mutex  sync.Mutex
	stores map[string]*registryEntry
}

type registryEntry struct {
	store *Store
	// backend access token the store's repo was built with
	accessToken string
}

func NewRegistry(repoFactory RepoFactory, metricsManager *metrics.Manager) *Registry {
	return &Registry{
		repoFactory:    repoFactory,
		metricsManager: metricsManager,
		stores:         make(map[string]*registryEntry),
	}
}

// Get returns the user's store, creating it and loading the saved
// workouts on first use. A session carrying another backend access token
// than the one the store was built with rebinds the store to it.
func (r *Registry) Get(ctx context.Context, session *auth.Session) *Store {
	r.mutex.Lock()
	entry, ok := r.stores[session.UserID]
	if ok {
		if entry.accessToken != session.AccessToken {
			r.rebindLocked(entry, session)
		}
		r.mutex.Unlock()
		return entry.store
	}

	service := workouts.NewService(r.repoFactory(session), r.metricsManager)
	store := NewStore(service, r.metricsManager)
	r.stores[session.UserID] = &registryEntry{
		store:       store,
		accessToken: session.AccessToken,
	}
	r.updateGaugeLocked()
	r.mutex.Unlock()

	log.Debugf("session registry: new store for user [%s]", session.Username)
	store.Refresh(ctx)
	return store
}

func (r *Registry) Evict(userID string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.stores, userID)
	r.updateGaugeLocked()
}

func (r *Registry) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.stores)
}

// rebindLocked points the store at a repo built from the session's
// credentials. The draft and cached snapshots are kept.
func (r *Registry) rebindLocked(entry *registryEntry, session *auth.Session) {
	log.Debugf("session registry: rebinding store of user [%s] to new backend credentials", session.Username)
	entry.store.useService(workouts.NewService(r.repoFactory(session), r.metricsManager))
	entry.accessToken = session.AccessToken
}

// OnSessionChange is an auth.Listener. A signed out user loses the store, the
// next request builds a new one. New or refreshed backend credentials are
// handed to an existing store.
func (r *Registry) OnSessionChange(event auth.Event, session auth.Session) {
	switch event {
	case auth.EventSignedOut:
		r.Evict(session.UserID)
	case auth.EventSignedIn, auth.EventTokenRefreshed:
		r.mutex.Lock()
		defer r.mutex.Unlock()
		if entry, ok := r.stores[session.UserID]; ok && entry.accessToken != session.AccessToken {
			r.rebindLocked(entry, &session)
		}
	}
}

func (r *Registry) updateGaugeLocked() {
	if r.metricsManager != nil {
		r.metricsManager.GaugeActiveSessions.Set(float64(len(r.stores)))
	}
}
