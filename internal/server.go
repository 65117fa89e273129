package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/autofill"
	"github.com/2beens/liftlog/internal/backend"
	"github.com/2beens/liftlog/internal/cache"
	"github.com/2beens/liftlog/internal/calendar"
	"github.com/2beens/liftlog/internal/config"
	"github.com/2beens/liftlog/internal/db"
	"github.com/2beens/liftlog/internal/middleware"
	"github.com/2beens/liftlog/internal/misc"
	"github.com/2beens/liftlog/internal/muscles"
	"github.com/2beens/liftlog/internal/plans"
	"github.com/2beens/liftlog/internal/progress"
	"github.com/2beens/liftlog/internal/session"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"
)

const (
	sessionsScanInterval = 8 * time.Hour
	// request body bytes drained after a handler, beyond that the body is just closed
	maxRequestDrainBytes = 256 << 10
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config   *config.Config
	location *time.Location

	// exactly one of these backs workouts and plans, depending on the storage mode
	backendClient *backend.Client
	dbPool        *pgxpool.Pool
	memoryRepos   *memoryRepos
	// sticky: the backend storage mode was selected, but not configured
	backendUnavailable bool

	redisClient   *redis.Client
	loginChecker  *auth.LoginChecker
	authService   *auth.Service
	registry      *session.Registry
	autofillCache cache.Cache

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config      *config.Config
	Secrets     *config.Secrets
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	secrets := params.Secrets
	if secrets == nil {
		secrets = &config.Secrets{}
	}

	location, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: secrets.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(secrets.HoneycombEnabled, secrets.OtelServiceName, rdb)
	if err != nil {
		return nil, err
	}

	s := &Server{
		versionInfo:  params.VersionInfo,
		config:       cfg,
		location:     location,
		redisClient:  rdb,
		otelShutdown: otelShutdown,
	}

	var (
		authenticator    auth.Authenticator
		pgxpoolCollector prometheus.Collector
	)
	switch cfg.Storage {
	case config.StorageBackend:
		backendURL := secrets.BackendURL
		if backendURL == "" {
			backendURL = cfg.BackendURL
		}
		s.backendClient, err = backend.New(backend.Config{
			URL:     backendURL,
			AnonKey: secrets.BackendAnonKey,
		})
		switch {
		case errors.Is(err, backend.ErrNotConfigured):
			// every workout call degrades to an empty result, local users can still sign in
			log.Errorf("backend storage selected: %s", err)
			s.backendUnavailable = true
			authenticator = auth.NewLocalAuthenticator(cfg.LocalUsers)
		case err != nil:
			return nil, fmt.Errorf("new backend client: %w", err)
		default:
			authenticator = auth.NewBackendAuthenticator(s.backendClient)
		}
	case config.StoragePostgres:
		s.dbPool, err = db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     secrets.PostgresPassword,
			TracingEnabled: secrets.HoneycombEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := s.dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if err := db.Migrate(ctx, s.dbPool); err != nil {
			return nil, err
		}
		pgxpoolCollector = pgxpoolprometheus.NewCollector(
			s.dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		)
		authenticator = auth.NewLocalAuthenticator(cfg.LocalUsers)
	default:
		s.memoryRepos = newMemoryRepos()
		authenticator = auth.NewLocalAuthenticator(cfg.LocalUsers)
	}

	s.promRegistry = metrics.SetupPrometheus(pgxpoolCollector)
	s.metricsManager = metrics.NewManager("liftlog", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	sessionTTL := cfg.SessionTTL.Duration
	if sessionTTL <= 0 {
		sessionTTL = auth.DefaultTTL
	}
	s.authService = auth.NewAuthService(authenticator, sessionTTL, rdb)
	s.loginChecker = auth.NewLoginChecker(sessionTTL, rdb).WithRefresher(s.authService)

	s.registry = session.NewRegistry(s.workoutsRepo, s.metricsManager)
	s.authService.OnSessionChange(s.registry.OnSessionChange)

	switch cfg.AutofillCache {
	case config.CacheMemory:
		s.autofillCache = cache.NewMemCache(cfg.AutofillCacheSizeMB * 1024 * 1024)
	default:
		s.autofillCache = cache.NewRedisCache(rdb, "liftlog||")
	}

	go func() {
		ticker := time.NewTicker(sessionsScanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.authService.ScanAndClean(ctx)
			}
		}
	}()

	return s, nil
}

func (s *Server) workoutsRepo(userSession *auth.Session) workouts.Repo {
	switch {
	case s.backendClient != nil:
		return workouts.NewRestRepo(s.backendClient.WithAccessToken(userSession.AccessToken))
	case s.dbPool != nil:
		return workouts.NewPsqlRepo(s.dbPool, userSession.UserID)
	case s.memoryRepos != nil:
		return s.memoryRepos.workoutsFor(userSession.UserID)
	default:
		// backend not configured
		return nil
	}
}

func (s *Server) plansRepo(userSession *auth.Session) plans.Repo {
	switch {
	case s.backendClient != nil:
		return plans.NewRestRepo(s.backendClient.WithAccessToken(userSession.AccessToken))
	case s.dbPool != nil:
		return plans.NewPsqlRepo(s.dbPool, userSession.UserID)
	case s.memoryRepos != nil:
		return s.memoryRepos.plansFor(userSession.UserID)
	default:
		return nil
	}
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("liftlog-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	miscHandler := misc.NewHandler(
		s.versionInfo,
		s.config.Storage,
		s.backendUnavailable,
		s.authService,
		s.metricsManager,
	)
	miscHandler.SetupRoutes(r, reqRateLimiter, s.config.LoginRateLimitAllowedPerMin, s.config.AllowedOrigins)

	autofillHandler := autofill.NewHandler(s.autofillCache, s.workoutsRepo)
	r.HandleFunc("/exercises/suggest", autofillHandler.HandleSuggest).Methods("GET", "OPTIONS").Name("suggest-exercises")
	r.HandleFunc("/exercises/names", autofillHandler.HandleNames).Methods("GET", "OPTIONS").Name("exercise-names")

	sessionHandler := session.NewHandler(s.registry)
	sessionHandler.OnExerciseAdded(autofillHandler.ExerciseLogged)
	r.HandleFunc("/workouts/recent", sessionHandler.HandleRecent).Methods("GET", "OPTIONS").Name("recent-workouts")
	r.HandleFunc("/workouts/refresh", sessionHandler.HandleRefresh).Methods("POST", "OPTIONS").Name("refresh-workouts")
	r.HandleFunc("/workouts/date/{date}", sessionHandler.HandleGetByDate).Methods("GET", "OPTIONS").Name("workout-by-date")
	r.HandleFunc("/workouts", sessionHandler.HandleAll).Methods("GET", "OPTIONS").Name("all-workouts")
	r.HandleFunc("/workouts/{id}", sessionHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts/{id}", sessionHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-workout")

	r.HandleFunc("/draft", sessionHandler.HandleDraft).Methods("GET", "OPTIONS").Name("get-draft")
	r.HandleFunc("/draft", sessionHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-draft")
	r.HandleFunc("/draft", sessionHandler.HandleClear).Methods("DELETE", "OPTIONS").Name("clear-draft")
	r.HandleFunc("/draft/start", sessionHandler.HandleStart).Methods("POST", "OPTIONS").Name("start-draft")
	r.HandleFunc("/draft/edit/{id}", sessionHandler.HandleEdit).Methods("POST", "OPTIONS").Name("edit-workout")
	r.HandleFunc("/draft/save", sessionHandler.HandleSave).Methods("POST", "OPTIONS").Name("save-draft")
	r.HandleFunc("/draft/exercises", sessionHandler.HandleAddExercise).Methods("POST", "OPTIONS").Name("add-exercise")
	r.HandleFunc("/draft/exercises/{id}", sessionHandler.HandleEditExercise).Methods("PATCH", "OPTIONS").Name("edit-exercise")
	r.HandleFunc("/draft/exercises/{id}", sessionHandler.HandleRemoveExercise).Methods("DELETE", "OPTIONS").Name("remove-exercise")

	calendarHandler := calendar.NewHandler(s.registry, muscles.Default(), s.location)
	r.HandleFunc("/calendar", calendarHandler.HandleView).Methods("GET", "OPTIONS").Name("calendar")
	r.HandleFunc("/calendar/day/{date}", calendarHandler.HandleDay).Methods("GET", "OPTIONS").Name("calendar-day")
	r.HandleFunc("/muscles/frequency", calendarHandler.HandleMuscleFrequency).Methods("GET", "OPTIONS").Name("muscle-frequency")
	r.HandleFunc("/muscles/{exercise}", calendarHandler.HandleMuscles).Methods("GET", "OPTIONS").Name("exercise-muscles")

	progressHandler := progress.NewHandler(s.registry, s.location)
	r.HandleFunc("/exercises/progress/{exercise}", progressHandler.HandleExerciseProgress).Methods("GET", "OPTIONS").Name("exercise-progress")

	plansHandler := plans.NewHandler(s.plansRepo, s.metricsManager)
	r.HandleFunc("/plans", plansHandler.HandleList).Methods("GET", "OPTIONS").Name("list-plans")
	r.HandleFunc("/plans", plansHandler.HandleCreate).Methods("POST", "OPTIONS").Name("create-plan")
	r.HandleFunc("/plans/demo", plansHandler.HandleDemo).Methods("GET", "OPTIONS").Name("demo-plan")
	r.HandleFunc("/plans/validate", plansHandler.HandleValidate).Methods("POST", "OPTIONS").Name("validate-plan")
	r.HandleFunc("/plans/{id}", plansHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-plan")
	r.HandleFunc("/plans/{id}/day/{day}", plansHandler.HandleDay).Methods("GET", "OPTIONS").Name("plan-day")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest(maxRequestDrainBytes))

	return r, nil
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	if s.config.PrometheusMetricsPort != "" {
		go func() {
			log.Debugf(" > metrics listening on: [%s]", metricsAddr)
			err := s.metricsHttpServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("metrics service, listen and serve: %s", err)
			}
		}()
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}

// memoryRepos keeps one in-memory repo per user, for the whole process lifetime.
type memoryRepos struct {
	mutex        sync.Mutex
	workoutRepos map[string]*workouts.MemoryRepo
	planRepos    map[string]*plans.MemoryRepo
}

func newMemoryRepos() *memoryRepos {
	return &memoryRepos{
		workoutRepos: make(map[string]*workouts.MemoryRepo),
		planRepos:    make(map[string]*plans.MemoryRepo),
	}
}

func (m *memoryRepos) workoutsFor(userID string) *workouts.MemoryRepo {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	repo, ok := m.workoutRepos[userID]
	if !ok {
		repo = workouts.NewMemoryRepo()
		m.workoutRepos[userID] = repo
	}
	return repo
}

func (m *memoryRepos) plansFor(userID string) *plans.MemoryRepo {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	repo, ok := m.planRepos[userID]
	if !ok {
		repo = plans.NewMemoryRepo()
		m.planRepos[userID] = repo
	}
	return repo
}
