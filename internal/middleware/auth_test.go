package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLoginChecker := NewMockloginChecker(ctrl)
	authMiddleware := middleware.NewAuthMiddlewareHandler(mockLoginChecker)

	validSession := &auth.Session{Token: "valid-token", UserID: "user-1", Username: "serj"}

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		bearer             string
		expectedStatusCode int
		mockSession        *auth.Session
		mockSessionErr     error
		expectCheck        bool
		expectUserID       string
	}{
		{
			name:               "AllowedPathWithoutToken",
			path:               "/status",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "LoginWithoutToken",
			path:               "/a/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MuscleLookupWithoutToken",
			path:               "/muscles/bench%20press",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MuscleFrequencyNeedsToken",
			path:               "/muscles/frequency",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "OptionsAlwaysOK",
			path:               "/draft",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "NotAllowedPathWithoutToken",
			path:               "/draft",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/workouts/recent",
			method:             "GET",
			token:              "valid-token",
			expectedStatusCode: http.StatusOK,
			mockSession:        validSession,
			expectCheck:        true,
			expectUserID:       "user-1",
		},
		{
			name:               "ValidBearerToken",
			path:               "/workouts/recent",
			method:             "GET",
			bearer:             "valid-token",
			expectedStatusCode: http.StatusOK,
			mockSession:        validSession,
			expectCheck:        true,
			expectUserID:       "user-1",
		},
		{
			name:               "InvalidToken",
			path:               "/workouts/recent",
			method:             "GET",
			token:              "invalid-token",
			expectedStatusCode: http.StatusUnauthorized,
			expectCheck:        true,
		},
		{
			name:               "LoginCheckError",
			path:               "/draft/save",
			method:             "POST",
			token:              "valid-token",
			expectedStatusCode: http.StatusUnauthorized,
			mockSessionErr:     errors.New("redis down"),
			expectCheck:        true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			require.NoError(t, err)
			if tc.token != "" {
				req.Header.Add(middleware.TokenHeader, tc.token)
			}
			if tc.bearer != "" {
				req.Header.Add("Authorization", "Bearer "+tc.bearer)
			}

			if tc.expectCheck {
				token := tc.token
				if token == "" {
					token = tc.bearer
				}
				mockLoginChecker.EXPECT().
					Session(gomock.Any(), token).
					Return(tc.mockSession, tc.mockSessionErr).Times(1)
			}

			var gotUserID string
			rr := httptest.NewRecorder()
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if session, ok := auth.SessionFrom(r.Context()); ok {
					gotUserID = session.UserID
				}
			})
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.Equal(t, tc.expectUserID, gotUserID)
		})
	}
}

func TestRequestToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/draft", nil)
	assert.Empty(t, middleware.RequestToken(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, middleware.RequestToken(req))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", middleware.RequestToken(req))

	req.Header.Set(middleware.TokenHeader, "xyz")
	assert.Equal(t, "xyz", middleware.RequestToken(req))
}
