package internal

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/autofill"
	"github.com/2beens/liftlog/internal/cache"
	"github.com/2beens/liftlog/internal/calendar"
	"github.com/2beens/liftlog/internal/config"
	"github.com/2beens/liftlog/internal/misc"
	"github.com/2beens/liftlog/internal/progress"
	"github.com/2beens/liftlog/internal/session"
	"github.com/2beens/liftlog/internal/telemetry/metrics"

	"github.com/go-redis/redismock/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testToken = "server-test-token"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type serverTestSetup struct {
	server    *Server
	router    *mux.Router
	redisMock redismock.ClientMock
	session   auth.Session
}

func newMemoryModeServer(t *testing.T) *serverTestSetup {
	t.Helper()

	rdb, mock := redismock.NewClientMock()
	t.Cleanup(func() {
		_ = rdb.Close()
	})

	cfg := &config.Config{
		Storage:                     config.StorageMemory,
		AutofillCache:               config.CacheMemory,
		LoginRateLimitAllowedPerMin: 15,
	}
	metricsManager := metrics.NewTestManager()
	s := &Server{
		versionInfo:    "test-version",
		config:         cfg,
		location:       time.UTC,
		memoryRepos:    newMemoryRepos(),
		redisClient:    rdb,
		loginChecker:   auth.NewLoginChecker(time.Hour, rdb),
		authService:    auth.NewAuthService(auth.NewLocalAuthenticator(nil), time.Hour, rdb),
		autofillCache:  cache.NewMemCache(1024 * 1024),
		metricsManager: metricsManager,
		otelShutdown:   func() {},
	}
	s.registry = session.NewRegistry(s.workoutsRepo, metricsManager)

	router, err := s.routerSetup()
	require.NoError(t, err)

	return &serverTestSetup{
		server:    s,
		router:    router,
		redisMock: mock,
		session: auth.Session{
			Token:     testToken,
			UserID:    "user-1",
			Username:  "lifter",
			CreatedAt: time.Now(),
		},
	}
}

// do sends the request, with a session token when authorized is set.
func (s *serverTestSetup) do(t *testing.T, method, path, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		sessionJson, err := json.Marshal(s.session)
		require.NoError(t, err)
		s.redisMock.ExpectGet("liftlog-session||" + testToken).SetVal(string(sessionJson))
		req.Header.Set("X-LIFTLOG-TOKEN", testToken)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestServer_PublicRoutes(t *testing.T) {
	setup := newMemoryModeServer(t)

	rr := setup.do(t, "GET", "/status", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var status misc.StatusResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "memory", status.Storage)
	assert.Equal(t, "test-version", status.Version)
	assert.False(t, status.BackendUnavailable)

	rr = setup.do(t, "GET", "/muscles/bench%20press", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var muscles calendar.MusclesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &muscles))
	assert.NotEmpty(t, muscles.Muscles)

	rr = setup.do(t, "GET", "/plans/demo", "", false)
	assert.Equal(t, http.StatusOK, rr.Code)

	for _, path := range []string{"/draft", "/workouts/recent", "/muscles/frequency", "/plans"} {
		rr = setup.do(t, "GET", path, "", false)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestServer_MemoryModeFlow(t *testing.T) {
	setup := newMemoryModeServer(t)

	rr := setup.do(t, "POST", "/draft/start", `{"type":"push"}`, true)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = setup.do(t, "POST", "/draft/exercises", `{"exercise_name":"Bench Press","sets":3,"reps":8,"weight":100}`, true)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = setup.do(t, "PUT", "/draft", `{"date":"2025-01-08"}`, true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = setup.do(t, "POST", "/draft/save", "", true)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var saved session.SaveResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.WorkoutID)

	rr = setup.do(t, "GET", "/workouts/"+saved.WorkoutID, "", true)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = setup.do(t, "GET", "/exercises/suggest?q=ben", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var suggest autofill.SuggestResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &suggest))
	assert.Equal(t, []string{"Bench Press"}, suggest.Suggestions)

	rr = setup.do(t, "GET", "/calendar?view=week&date=2025-01-08", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var view calendar.View
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, 1, view.WorkoutDays)

	rr = setup.do(t, "GET", "/exercises/progress/bench%20press?from=2025-01-01&to=2025-01-31", "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var benchProgress progress.ExerciseProgress
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &benchProgress))
	require.Len(t, benchProgress.Days, 1)
	assert.Equal(t, 2400.0, benchProgress.Days[0].Volume)

	rr = setup.do(t, "GET", "/nope", "", true)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	assert.NoError(t, setup.redisMock.ExpectationsWereMet())
	assert.Equal(t, 1, setup.server.registry.Len())
	assert.Equal(t, float64(1), testutil.ToFloat64(
		setup.server.metricsManager.CounterWorkoutsSaved.WithLabelValues("new", "ok"),
	))
}

func TestServer_MemoryReposPerUser(t *testing.T) {
	repos := newMemoryRepos()
	assert.Same(t, repos.workoutsFor("a"), repos.workoutsFor("a"))
	assert.NotSame(t, repos.workoutsFor("a"), repos.workoutsFor("b"))
	assert.Same(t, repos.plansFor("a"), repos.plansFor("a"))

	s := &Server{}
	assert.Nil(t, s.workoutsRepo(&auth.Session{UserID: "a"}))
	assert.Nil(t, s.plansRepo(&auth.Session{UserID: "a"}))
}
