package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessions-admin/internal/types"
)

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server) string {
	t.Helper()
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "admin@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var out types.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.AccessToken)
	return out.AccessToken
}

func TestLoginAndProtectedRoutes(t *testing.T) {
	srv := New(Options{})
	_, err := srv.AddUser("Admin", "admin@example.com", "secret")
	require.NoError(t, err)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/users/login", "", map[string]string{
		"email": "admin@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password")

	token := login(t, srv)
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/sessions", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/users/logout", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/sessions", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	srv := New(Options{})
	_, err := srv.AddUser("Admin", "admin@example.com", "secret")
	require.NoError(t, err)
	token := login(t, srv)

	payload := types.SessionPayload{
		SessionName: "Keynote A", TopicName: "Cardiology", Date: "2025-03-14T00:00:00Z",
		HallName: "Hall 1", FacultyName: "Dr. Rao", FacultyType: "Keynote",
		Email: "rao@example.com", Mobile: "9876543210", StartTime: "9:00 AM", EndTime: "10:00 AM",
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/users/sessions", token, payload)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := srv.Sessions()
	require.Len(t, created, 1)
	id := created[0].ID

	rec = doJSON(t, srv.Handler(), http.MethodPut, "/api/sessions/"+id, token, map[string]string{"hallName": "Hall 2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hall 2", srv.Sessions()[0].HallName)
	assert.Equal(t, "Keynote A", srv.Sessions()[0].SessionName)

	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/sessions/"+id+"/send-email", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(t, srv.Handler(), http.MethodPost, "/api/sessions/send-all-emails", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"rao@example.com", "rao@example.com"}, srv.SentEmails())

	rec = doJSON(t, srv.Handler(), http.MethodDelete, "/api/sessions/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, srv.Sessions())

	rec = doJSON(t, srv.Handler(), http.MethodDelete, "/api/sessions/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateValidationAndInjectedFailure(t *testing.T) {
	srv := New(Options{})
	_, err := srv.AddUser("Admin", "admin@example.com", "secret")
	require.NoError(t, err)
	token := login(t, srv)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/users/sessions", token, types.SessionPayload{SessionName: "x", Mobile: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid fields")

	srv.FailNext("GET /sessions", http.StatusInternalServerError, "boom")
	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/sessions", token, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"boom"}`, rec.Body.String())

	rec = doJSON(t, srv.Handler(), http.MethodGet, "/api/sessions", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
