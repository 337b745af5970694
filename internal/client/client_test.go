package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/clouddwh/architect/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestLoginSendsCredentials(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, "de-DE", r.Header.Get("Accept-Language"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "secret", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-1","account":{"id":"a1","type":"account","data":{"profile":{"email":"ada@example.com"}}},"projects":[{"id":"p1","type":"project","data":{"common":{"name":"Lake"}}}]}`))
	})

	res, err := New(url, WithLanguage("de-DE")).Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", res.Token)
	assert.Equal(t, "a1", res.Account.ID)
	assert.Equal(t, "ada@example.com", res.Account.Data.Profile.Email)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, "Lake", res.Projects[0].Data.Common.Name)
}

func TestBearerToken(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, New(url, WithToken("tok-1")).Logout(context.Background()))
}

func TestAPIErrorDecodesEnvelope(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"code":"validation_error","message":"Invalid input","fields":{"name":"Required","owner":"Required"}}}`))
	})

	_, err := New(url).CreateProject(context.Background(), project.Definition{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Equal(t, "Invalid input (name: Required; owner: Required)", apiErr.Error())
	assert.False(t, IsUnauthorized(err))
}

func TestAPIErrorWithoutEnvelope(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := New(url).Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Unauthorized", err.Error())
}

func TestSetLockedPath(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/admin/accounts/a1/lock", r.URL.Path)
		var body map[string]bool
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.False(t, body["locked"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"a1","type":"account","data":{"state":{"locked":false}}}`))
	})

	acc, err := New(url, WithToken("admin")).SetLocked(context.Background(), "a1", false)
	require.NoError(t, err)
	assert.Equal(t, "a1", acc.ID)
	assert.False(t, acc.Data.State.Locked)
}

func TestHealthDegraded(t *testing.T) {
	url := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","database":"unreachable"}`))
	})

	status, err := New(url).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "degraded", status)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, WithTimeout(time.Second)).Projects(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.NotErrorAs(t, err, &apiErr)
}

func TestSessionFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	_, err := LoadSession(path)
	require.ErrorIs(t, err, ErrNoSession)

	in := &Session{Server: "http://localhost:8080", Token: "tok", AccountID: "a1", Email: "ada@example.com", SignedIn: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	require.NoError(t, SaveSession(path, in))

	out, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, RemoveSession(path))
	require.NoError(t, RemoveSession(path))
	_, err = LoadSession(path)
	require.ErrorIs(t, err, ErrNoSession)
}
