package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/middleware"
	"github.com/2beens/liftlog/internal/misc"

	"github.com/stretchr/testify/require"
)

func newRequest(ctx context.Context, t *testing.T, method, path string, body any, token string) *http.Request {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, fmt.Sprintf("%s%s", serverEndpoint, path), reader)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	return req
}

// doJSON runs the request, checks the status code and decodes the body into out, if given.
func doJSON(t *testing.T, client *http.Client, req *http.Request, expectedStatus int, out any) {
	t.Helper()

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, expectedStatus, resp.StatusCode, string(respBytes))

	if out != nil {
		require.NoError(t, json.Unmarshal(respBytes, out))
	}
}

func doLogin(ctx context.Context, t *testing.T, client *http.Client) misc.TokenResponse {
	t.Helper()

	req := newRequest(ctx, t, "POST", "/a/login", auth.Credentials{
		Username: testUsername,
		Password: testPassword,
	}, "")

	var loginResp misc.TokenResponse
	doJSON(t, client, req, http.StatusOK, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	return loginResp
}
