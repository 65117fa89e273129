package misc

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/backend"
	"github.com/2beens/liftlog/internal/middleware"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Handler struct {
	versionInfo        string
	storageMode        string
	backendUnavailable bool
	authService        *auth.Service
	metricsManager     *metrics.Manager
	now                func() time.Time
}

type StatusResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	Storage            string `json:"storage"`
	BackendUnavailable bool   `json:"backendUnavailable"`
}

type TokenResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func NewHandler(
	versionInfo string,
	storageMode string,
	backendUnavailable bool,
	authService *auth.Service,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		versionInfo:        versionInfo,
		storageMode:        storageMode,
		backendUnavailable: backendUnavailable,
		authService:        authService,
		metricsManager:     metricsManager,
		now:                time.Now,
	}
}

func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
	allowedOrigins []string,
) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/status", handler.handleStatus).Methods("GET").Name("status")

	loginSubrouter := mainRouter.PathPrefix("/a").Subrouter()
	loginSubrouter.
		HandleFunc("/signup", handler.handleSignUp).
		Methods("POST", "OPTIONS").Name("signup")
	loginSubrouter.
		HandleFunc("/login", handler.handleLogin).
		Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.
		HandleFunc("/logout", handler.handleLogout).
		Methods("GET", "OPTIONS").Name("logout")

	// rate limit the account endpoints to prevent abuse
	if rateLimiter != nil {
		loginSubrouter.Use(middleware.RateLimit(rateLimiter, "login", allowedPerMin, handler.metricsManager))
	}
	loginSubrouter.Use(middleware.Cors(allowedOrigins))
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, StatusResponse{
		Status:             "ok",
		Version:            handler.versionInfo,
		Storage:            handler.storageMode,
		BackendUnavailable: handler.backendUnavailable,
	}, http.StatusOK)
}

func readCredentials(r *http.Request) (auth.Credentials, error) {
	var creds auth.Credentials
	if r.Header.Get("Content-Type") == pkg.ContentType.JSON {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			return creds, err
		}
		return creds, nil
	}

	if err := r.ParseForm(); err != nil {
		return creds, err
	}
	return auth.Credentials{
		Username: r.Form.Get("username"),
		Password: r.Form.Get("password"),
	}, nil
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.login")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	creds, err := readCredentials(r)
	if err != nil {
		log.Errorf("login failed, read credentials: %s", err)
		http.Error(w, "login failed", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("username", creds.Username))

	session, err := handler.authService.Login(ctx, creds, handler.now())
	if err != nil {
		handler.writeAuthError(w, "login", creds.Username, err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	handler.metricsManager.CounterLogins.WithLabelValues("ok").Inc()
	log.Tracef("new login success for [%s]", session.Username)
	pkg.WriteJSON(w, TokenResponse{
		Token:    session.Token,
		UserID:   session.UserID,
		Username: session.Username,
	}, http.StatusOK)
}

func (handler *Handler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.signup")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	creds, err := readCredentials(r)
	if err != nil {
		log.Errorf("sign up failed, read credentials: %s", err)
		http.Error(w, "sign up failed", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("username", creds.Username))

	session, err := handler.authService.SignUp(ctx, creds, handler.now())
	if err != nil {
		handler.writeAuthError(w, "sign up", creds.Username, err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	log.Debugf("new account [%s]", session.Username)
	pkg.WriteJSON(w, TokenResponse{
		Token:    session.Token,
		UserID:   session.UserID,
		Username: session.Username,
	}, http.StatusCreated)
}

func (handler *Handler) writeAuthError(w http.ResponseWriter, action, username string, err error) {
	switch {
	case errors.Is(err, backend.ErrUsernameRequired):
		http.Error(w, "error, username empty", http.StatusBadRequest)
	case errors.Is(err, auth.ErrMissingPassword):
		http.Error(w, "error, password empty", http.StatusBadRequest)
	case errors.Is(err, auth.ErrWrongCredentials):
		log.Tracef("failed %s attempt for user: %s", action, username)
		handler.metricsManager.CounterLogins.WithLabelValues("wrong_credentials").Inc()
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
	case errors.Is(err, auth.ErrSignUpDisabled):
		http.Error(w, "error, sign up is disabled", http.StatusForbidden)
	default:
		log.Errorf("%s failed for [%s]: %s", action, username, err)
		handler.metricsManager.CounterLogins.WithLabelValues("failed").Inc()
		http.Error(w, action+" failed, try again", http.StatusBadGateway)
	}
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.logout")
	defer span.End()

	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	authToken := middleware.RequestToken(r)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.authService.Logout(r.Context(), authToken)
	if err != nil {
		log.Tracef("[failed logout] => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	log.Trace("logout success")
	pkg.WriteTextResponseOK(w, "logged-out")
}
