package test

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/misc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestLogin() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cases := map[string]struct {
		loginReq           auth.Credentials
		expectedStatusCode int
		expectedBody       string
	}{
		"good creds": {
			loginReq:           auth.Credentials{Username: testUsername, Password: testPassword},
			expectedStatusCode: http.StatusOK,
		},
		"bad password": {
			loginReq:           auth.Credentials{Username: testUsername, Password: "bad-password"},
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       "error, wrong credentials",
		},
		"unknown user": {
			loginReq:           auth.Credentials{Username: "nobody", Password: testPassword},
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       "error, wrong credentials",
		},
		"empty username": {
			loginReq:           auth.Credentials{Password: testPassword},
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       "error, username empty",
		},
	}

	for name, tc := range cases {
		s.Run(name, func() {
			req := newRequest(ctx, t, "POST", "/a/login", tc.loginReq, "")
			resp, err := s.httpClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectedStatusCode, resp.StatusCode)
			respBytes, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			if tc.expectedBody != "" {
				assert.Equal(t, tc.expectedBody, strings.TrimSpace(string(respBytes)))
			}
		})
	}
}

func (s *IntegrationTestSuite) TestLoginThenLogout() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loginResp := doLogin(ctx, t, s.httpClient)
	assert.Equal(t, testUsername, loginResp.Username)
	assert.Equal(t, auth.LocalUserID(testUsername), loginResp.UserID)

	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/draft", nil, loginResp.Token), http.StatusOK, nil)
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/a/logout", nil, loginResp.Token), http.StatusOK, nil)

	// the token is gone now
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/draft", nil, loginResp.Token), http.StatusUnauthorized, nil)
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/a/logout", nil, loginResp.Token), http.StatusUnauthorized, nil)
}

func (s *IntegrationTestSuite) TestSignUpDisabled() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := newRequest(ctx, t, "POST", "/a/signup", auth.Credentials{
		Username: "newcomer",
		Password: "whatever",
	}, "")
	doJSON(t, s.httpClient, req, http.StatusForbidden, nil)
}

func (s *IntegrationTestSuite) TestStatus() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var status misc.StatusResponse
	doJSON(t, s.httpClient, newRequest(ctx, t, "GET", "/status", nil, ""), http.StatusOK, &status)
	assert.Equal(t, "postgres", status.Storage)
	assert.Equal(t, "test-version-info", status.Version)
	assert.False(t, status.BackendUnavailable)
}
