package cli

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessions-admin/internal/devserver"
	"sessions-admin/internal/types"
)

type cliHarness struct {
	t       *testing.T
	backend *devserver.Server
	common  []string
}

func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()
	backend := devserver.New(devserver.Options{})
	_, err := backend.AddUser("Admin", "admin@example.com", "secret")
	require.NoError(t, err)
	backend.Seed(
		types.Session{SessionName: "Keynote A", TopicName: "Cardiology", HallName: "Hall 1", FacultyName: "Dr. Rao", FacultyType: "Keynote",
			Email: "rao@example.com", Mobile: "9876543210", Date: "2025-03-14T00:00:00.000Z", StartTime: "9:00 AM", EndTime: "10:00 AM"},
		types.Session{SessionName: "Panel B", TopicName: "Neurology", HallName: "Hall 2", FacultyName: "Dr. Iyer", FacultyType: "Panelist",
			Email: "iyer@example.com", Mobile: "1112223334", Date: "2025-03-15T00:00:00.000Z", StartTime: "11:00 AM", EndTime: "12:00 PM"},
	)
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return &cliHarness{
		t:       t,
		backend: backend,
		common:  []string{"--api", srv.URL + "/api", "--data-dir", t.TempDir()},
	}
}

// run executes one subcommand with the harness flags appended after it.
func (h *cliHarness) run(stdin string, cmd string, args ...string) (int, string, string) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{cmd}, h.common...)
	full = append(full, args...)
	code := Main(full, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (h *cliHarness) login() {
	h.t.Helper()
	code, out, errOut := h.run("", "login", "--email", "admin@example.com", "--password", "secret")
	require.Equal(h.t, 0, code, errOut)
	require.Contains(h.t, out, "Logged in as Admin <admin@example.com>")
}

func TestCommandsNeedLogin(t *testing.T) {
	h := newCLIHarness(t)
	code, _, errOut := h.run("", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "not logged in")

	code, out, _ := h.run("", "status")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "not logged in")
}

func TestLoginListLogout(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	code, out, errOut := h.run("", "list")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Keynote A")
	assert.Contains(t, out, "Mar 14, 2025")
	assert.Contains(t, out, "Keynote Speaker")
	assert.Contains(t, out, "2 of 2 sessions")

	code, out, _ = h.run("", "list", "--search", "IYER", "--format", "json")
	require.Equal(t, 0, code)
	var listed []types.Session
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Panel B", listed[0].SessionName)

	code, out, _ = h.run("", "list", "--search", "nobody")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No matching sessions found")

	code, out, _ = h.run("", "logout")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Logged out")

	code, _, _ = h.run("", "list")
	assert.Equal(t, 1, code)
}

func TestLoginReadsPasswordFromStdin(t *testing.T) {
	h := newCLIHarness(t)
	code, _, errOut := h.run("wrong\n", "login", "--email", "admin@example.com")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Invalid email or password")

	h.login()
	h.run("", "logout")

	// The last successful address is reused when --email is omitted.
	code, out, errOut := h.run("secret\n", "login")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Logged in as Admin")
}

func TestStatusReportsIdentityAndRefreshes(t *testing.T) {
	h := newCLIHarness(t)
	h.login()

	code, out, errOut := h.run("", "status", "--refresh", "--format", "json")
	require.Equal(t, 0, code, errOut)
	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Authenticated)
	require.NotNil(t, report.User)
	assert.Equal(t, "admin@example.com", report.User.Email)
	assert.NotEmpty(t, report.TokenExpires)
	assert.Equal(t, "file", report.Storage)
}

func TestDeleteNeedsYes(t *testing.T) {
	h := newCLIHarness(t)
	h.login()
	id := h.backend.Sessions()[0].ID

	code, _, errOut := h.run("", "delete", id)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `refusing to delete "Keynote A" without --yes`)
	assert.Len(t, h.backend.Sessions(), 2)

	code, _, errOut = h.run("", "delete", "--yes", id)
	require.Equal(t, 0, code, errOut)
	assert.Len(t, h.backend.Sessions(), 1)

	code, _, errOut = h.run("", "delete", "--yes", id)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "session not found")
}

func TestDeleteFailureRaisesNotice(t *testing.T) {
	h := newCLIHarness(t)
	h.login()
	h.backend.FailNext("DELETE /sessions/:id", 500, "boom")

	code, _, errOut := h.run("", "delete", "--yes", h.backend.Sessions()[0].ID)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Failed to delete session. Please try again.")
	assert.Len(t, h.backend.Sessions(), 2)
}

func TestSendAndSendAll(t *testing.T) {
	h := newCLIHarness(t)
	h.login()
	sessions := h.backend.Sessions()

	code, out, errOut := h.run("", "send", sessions[0].ID, sessions[1].ID)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Email sent successfully to Dr. Rao")
	assert.Contains(t, out, "Email sent successfully to Dr. Iyer")
	assert.ElementsMatch(t, []string{"rao@example.com", "iyer@example.com"}, h.backend.SentEmails())

	code, _, errOut = h.run("", "send", "missing")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "missing: session not found")

	code, out, _ = h.run("", "send-all")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Emails sent successfully to all 2 faculties")

	code, out, _ = h.run("", "send-all", "--search", "rao")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Emails sent successfully to all 1 faculties")

	h.backend.FailNext("POST /sessions/send-all-emails", 500, "smtp down")
	code, _, errOut = h.run("", "send-all")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Failed to send emails. Please try again.")
}

func TestUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, Main([]string{"bogus"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Commands:")
	assert.Equal(t, 0, Main([]string{"help"}, strings.NewReader(""), &stdout, &stderr))
}

func TestSampleSessionsAreValid(t *testing.T) {
	for _, s := range sampleSessions() {
		assert.NotEmpty(t, s.SessionName)
		assert.Len(t, s.Mobile, 10)
	}
}

func TestExpiredSessionHint(t *testing.T) {
	h := newCLIHarness(t)
	h.login()
	h.backend.FailNext("GET /sessions", 401, "Invalid or expired token")

	code, _, errOut := h.run("", "list")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "session expired; run `sessions-admin login` again")
	assert.Contains(t, errOut, "Invalid or expired token")
}
