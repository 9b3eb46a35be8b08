package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessions-admin/internal/devserver"
	"sessions-admin/internal/types"
	"sessions-admin/internal/utils"
)

func newTestClient(t *testing.T, baseURL string, tokens *TokenHolder) *Client {
	t.Helper()
	client, err := NewClient(Options{BaseURL: baseURL}, tokens)
	require.NoError(t, err)
	return client
}

func TestProtectedCallsCarryBearerToken(t *testing.T) {
	var gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"_id":"a","sessionName":"Keynote A"}]`))
	}))
	defer srv.Close()

	tokens := NewTokenHolder()
	tokens.Set("tok-123")
	client := newTestClient(t, srv.URL+"/", tokens)

	sessions, err := client.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestProtectedCallWithoutTokenFailsBeforeIO(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, NewTokenHolder())
	err := client.DeleteSession(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoToken))
	assert.Zero(t, hits)
}

func TestLoginSendsNoBearer(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"accessToken":"t","user":{"id":"u1","name":"Ada","email":"ada@example.com"}}`))
	}))
	defer srv.Close()

	tokens := NewTokenHolder()
	tokens.Set("stale")
	client := newTestClient(t, srv.URL, tokens)
	out, err := client.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
	assert.Equal(t, "/users/login", gotPath)
	assert.Equal(t, "t", out.AccessToken)
	require.NotNil(t, out.User)
	assert.Equal(t, "Ada", out.User.Name)
}

func TestErrorMessages(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"backend message", http.StatusBadRequest, `{"message":"Session not found"}`, "Session not found"},
		{"json without message", http.StatusInternalServerError, `{"error":true}`, "Something went wrong"},
		{"not json", http.StatusBadGateway, `<html>bad gateway</html>`, "Request failed"},
		{"empty body", http.StatusNotFound, ``, "Request failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			tokens := NewTokenHolder()
			tokens.Set("tok")
			err := newTestClient(t, srv.URL, tokens).SendAllEmails(context.Background())
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.want, apiErr.Error())
		})
	}
}

func TestErrorBodyLoggedAtDebugOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>upstream down</html>`))
	}))
	defer srv.Close()

	for level, logged := range map[string]bool{"debug": true, "info": false} {
		var buf bytes.Buffer
		tokens := NewTokenHolder()
		tokens.Set("tok")
		client, err := NewClient(Options{BaseURL: srv.URL, Logger: utils.NewWriterLogger(level, &buf)}, tokens)
		require.NoError(t, err)

		require.Error(t, client.SendAllEmails(context.Background()))
		assert.Equal(t, logged, strings.Contains(buf.String(), "upstream down"), "level %s", level)
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(t, url, NewTokenHolder()).Login(context.Background(), "a@b.com", "pw")
	require.Error(t, err)
	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "api: POST /users/login")
}

func TestAgainstDevServer(t *testing.T) {
	backend := devserver.New(devserver.Options{})
	_, err := backend.AddUser("Admin", "admin@example.com", "secret")
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	ctx := context.Background()
	tokens := NewTokenHolder()
	client := newTestClient(t, srv.URL+"/api", tokens)

	_, err = client.Login(ctx, "admin@example.com", "nope")
	assert.True(t, IsUnauthorized(err))

	out, err := client.Login(ctx, "admin@example.com", "secret")
	require.NoError(t, err)
	tokens.Set(out.AccessToken)

	created, err := client.CreateSession(ctx, types.SessionPayload{
		SessionName: "Keynote A", TopicName: "Cardiology", Date: "2025-03-14T00:00:00Z",
		HallName: "Hall 1", FacultyName: "Dr. Rao", FacultyType: "Keynote",
		Email: "rao@example.com", Mobile: "9876543210", StartTime: "9:00 AM", EndTime: "10:00 AM",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Keynote A", created.SessionName)

	updated, err := client.UpdateSession(ctx, created.ID, types.SessionPayload{HallName: "Hall 9"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Hall 9", updated.HallName)

	list, err := client.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, client.SendEmail(ctx, created.ID))
	require.NoError(t, client.SendAllEmails(ctx))
	assert.Len(t, backend.SentEmails(), 2)

	refreshed, err := client.Refresh(ctx)
	require.NoError(t, err, "refresh cookie from login must be replayed")
	assert.NotEmpty(t, refreshed)

	require.NoError(t, client.DeleteSession(ctx, created.ID))
	err = client.DeleteSession(ctx, created.ID)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Session not found", apiErr.Message)

	require.NoError(t, client.Logout(ctx))
	_, err = client.ListSessions(ctx)
	assert.True(t, IsUnauthorized(err))
}

func TestCookiesCarryOverToNewClient(t *testing.T) {
	backend := devserver.New(devserver.Options{})
	_, err := backend.AddUser("Admin", "admin@example.com", "secret")
	require.NoError(t, err)
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	ctx := context.Background()
	first := newTestClient(t, srv.URL+"/api", NewTokenHolder())
	_, err = first.Login(ctx, "admin@example.com", "secret")
	require.NoError(t, err)
	saved := first.Cookies()
	require.Len(t, saved, 1)
	assert.Equal(t, "refreshToken", saved[0].Name)

	second := newTestClient(t, srv.URL+"/api", NewTokenHolder())
	_, err = second.Refresh(ctx)
	assert.True(t, IsUnauthorized(err))

	second.SetCookies(saved)
	token, err := second.Refresh(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
