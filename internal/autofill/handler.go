package autofill

import (
	"context"
	"net/http"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/cache"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"
)

type SuggestResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

type NamesResponse struct {
	Names []string `json:"names"`
}

type Handler struct {
	cache       cache.Cache
	repoFactory func(session *auth.Session) workouts.Repo
}

func NewHandler(c cache.Cache, repoFactory func(session *auth.Session) workouts.Repo) *Handler {
	return &Handler{
		cache:       c,
		repoFactory: repoFactory,
	}
}

func (handler *Handler) suggester(session *auth.Session) *Suggester {
	var lister WorkoutLister
	if repo := handler.repoFactory(session); repo != nil {
		lister = repo
	}
	return NewSuggester(handler.cache, lister, session.UserID)
}

func (handler *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.autofill.suggest")
	defer span.End()

	session, ok := auth.SessionFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query().Get("q")
	suggester := handler.suggester(session)
	suggester.Load(ctx)
	pkg.WriteJSON(w, SuggestResponse{
		Query:       query,
		Suggestions: suggester.Suggestions(query),
	}, http.StatusOK)
}

func (handler *Handler) HandleNames(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.autofill.names")
	defer span.End()

	session, ok := auth.SessionFrom(ctx)
	if !ok {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	pkg.WriteJSON(w, NamesResponse{
		Names: handler.suggester(session).Load(ctx),
	}, http.StatusOK)
}

// ExerciseLogged adds name to the user's list. It matches the exercise
// listener of the draft handlers.
func (handler *Handler) ExerciseLogged(ctx context.Context, session *auth.Session, name string) {
	handler.suggester(session).AddName(ctx, name)
}
