package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appauth "github.com/Mufassa12/contrivance/internal/application/auth"
	"github.com/Mufassa12/contrivance/internal/domain/auth"
)

func (e *testEnv) post(t *testing.T, path, token string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.server.URL+path, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) get(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, e.server.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/v1/auth/register", "", auth.RegisterRequest{
		Email:    "carol@example.com",
		Name:     "Carol",
		Password: "Str0ng-password",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[appauth.LoginResponse](t, resp)
	assert.NotEmpty(t, created.AccessToken)
	assert.NotEmpty(t, created.RefreshToken)

	// Duplicate email conflicts.
	resp = env.post(t, "/api/v1/auth/register", "", auth.RegisterRequest{
		Email:    "carol@example.com",
		Name:     "Carol Again",
		Password: "Str0ng-password",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Weak password is a client error.
	resp = env.post(t, "/api/v1/auth/register", "", auth.RegisterRequest{
		Email:    "dave@example.com",
		Name:     "Dave",
		Password: "weakpass",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Login with the right and wrong password.
	resp = env.post(t, "/api/v1/auth/login", "", auth.LoginRequest{
		Email:    "carol@example.com",
		Password: "Str0ng-password",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.post(t, "/api/v1/auth/login", "", auth.LoginRequest{
		Email:    "carol@example.com",
		Password: "wrong-Passw0rd",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "erin@example.com")

	resp := env.get(t, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.get(t, "/api/v1/auth/me", "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.get(t, "/api/v1/auth/me", user.AccessToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody[auth.UserResponse](t, resp)
	assert.Equal(t, "erin@example.com", me.Email)
}

func TestRefreshEndpointRotates(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "frank@example.com")

	resp := env.post(t, "/api/v1/auth/refresh", "", RefreshRequest{RefreshToken: user.RefreshToken})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rotated := decodeBody[appauth.LoginResponse](t, resp)
	assert.NotEqual(t, user.RefreshToken, rotated.RefreshToken)

	// Replaying the consumed token fails with a generic 401.
	resp = env.post(t, "/api/v1/auth/refresh", "", RefreshRequest{RefreshToken: user.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid refresh token", body["error"])
}

func TestLogoutRevokesSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.registerUser(t, "grace@example.com")

	resp := env.post(t, "/api/v1/auth/logout", user.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The refresh token of the revoked session is dead.
	resp = env.post(t, "/api/v1/auth/refresh", "", RefreshRequest{RefreshToken: user.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The access token remains valid until expiry; /me still works.
	resp = env.get(t, "/api/v1/auth/me", user.AccessToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	env := newTestEnv(t)
	first := env.registerUser(t, "heidi@example.com")

	resp := env.post(t, "/api/v1/auth/login", "", auth.LoginRequest{
		Email:    "heidi@example.com",
		Password: "Str0ng-password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeBody[appauth.LoginResponse](t, resp)

	resp = env.post(t, "/api/v1/auth/logout-all", first.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		resp = env.post(t, "/api/v1/auth/refresh", "", RefreshRequest{RefreshToken: token})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}
