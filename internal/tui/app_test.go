package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessions-admin/internal/app"
	"sessions-admin/internal/devserver"
	"sessions-admin/internal/types"
)

type harness struct {
	t       *testing.T
	ctx     context.Context
	app     *app.App
	backend *devserver.Server
	m       model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

// newHarnessWith lets a test wrap the backend handler, for example to hold a
// request open.
func newHarnessWith(t *testing.T, wrap func(http.Handler) http.Handler) *harness {
	t.Helper()
	backend := devserver.New(devserver.Options{})
	_, err := backend.AddUser("Admin", "admin@example.com", "secret")
	require.NoError(t, err)
	backend.Seed(
		types.Session{SessionName: "Keynote A", TopicName: "Cardiology", HallName: "Hall 1", FacultyName: "Dr. Rao", FacultyType: "Keynote", Mobile: "9876543210",
			Email: "rao@example.com", Date: "2025-03-14T00:00:00.000Z", StartTime: "9:00 AM", EndTime: "10:00 AM"},
		types.Session{SessionName: "Panel B", TopicName: "Neurology", HallName: "Hall 2", FacultyName: "Dr. Iyer", FacultyType: "Panelist", Mobile: "1112223334",
			Email: "iyer@example.com", Date: "2025-03-15T00:00:00.000Z", StartTime: "11:00 AM", EndTime: "12:00 PM"},
	)
	handler := backend.Handler()
	if wrap != nil {
		handler = wrap(handler)
	}
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := app.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.API.BaseURL = srv.URL + "/api"
	a, err := app.New(cfg, nil, app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	h := &harness{t: t, ctx: ctx, app: a, backend: backend, m: newModel(ctx, a)}
	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	h.t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(model)
	return cmd
}

func (h *harness) key(s string) tea.Cmd {
	h.t.Helper()
	switch s {
	case "enter":
		return h.send(tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return h.send(tea.KeyMsg{Type: tea.KeyEsc})
	case "ctrl+s":
		return h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	case "tab":
		return h.send(tea.KeyMsg{Type: tea.KeyTab})
	case "right":
		return h.send(tea.KeyMsg{Type: tea.KeyRight})
	}
	return h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) view() string {
	return stripANSI(h.m.View())
}

func (h *harness) signIn() {
	h.t.Helper()
	h.send(bootstrapCmd(h.ctx, h.app)())
	h.key("admin@example.com")
	h.key("enter")
	h.key("secret")
	require.NotNil(h.t, h.key("enter"))
	require.True(h.t, h.m.login.busy)
	h.send(loginCmd(h.ctx, h.app, "admin@example.com", "secret")())
	h.send(refreshCmd(h.ctx, h.app)())
}

func TestViewGuard(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.view(), "Loading...")

	h.send(bootstrapCmd(h.ctx, h.app)())
	assert.Contains(t, h.view(), "Sign in to manage sessions")

	h.key("admin@example.com")
	h.key("enter")
	h.key("wrong")
	h.key("enter")
	h.send(loginCmd(h.ctx, h.app, "admin@example.com", "wrong")())
	assert.Contains(t, h.view(), "Invalid email or password")
	assert.False(t, h.app.Auth.Authenticated())

	h.m.login.reset("admin@example.com")
	h.key("secret")
	h.key("enter")
	h.send(loginCmd(h.ctx, h.app, "admin@example.com", "secret")())
	h.send(refreshCmd(h.ctx, h.app)())

	view := h.view()
	assert.Contains(t, view, "signed in as Admin")
	assert.Contains(t, view, "2 of 2 sessions")
	assert.Contains(t, view, "Keynote A")
	assert.Contains(t, view, "Panel B")

	h.key("L")
	h.send(logoutCmd(h.ctx, h.app)())
	assert.Contains(t, h.view(), "Sign in to manage sessions")
	assert.Equal(t, "admin@example.com", h.m.login.email.Value())
}

func TestLoginRequiresBothFields(t *testing.T) {
	h := newHarness(t)
	h.send(bootstrapCmd(h.ctx, h.app)())

	assert.Nil(t, h.key("enter"))
	assert.Contains(t, h.view(), "Email is required")
	assert.False(t, h.m.login.busy)
}

func TestSearchFiltersRows(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	h.key("/")
	require.True(t, h.m.searching)
	h.key("222")
	view := h.view()
	assert.Contains(t, view, `1 of 2 sessions matching "222"`)
	assert.Contains(t, view, "Panel B")
	assert.NotContains(t, view, "Keynote A")

	h.key("enter")
	assert.False(t, h.m.searching)
	h.key("esc")
	assert.Contains(t, h.view(), "2 of 2 sessions")
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	h.key("d")
	assert.Contains(t, h.view(), `Delete "Keynote A"?`)
	h.key("n")
	assert.NotContains(t, h.view(), "Delete Session")
	assert.Len(t, h.backend.Sessions(), 2)

	h.key("d")
	require.NotNil(t, h.key("y"))
	h.send(deleteCmd(h.ctx, h.app)())
	assert.Len(t, h.backend.Sessions(), 1)
	view := h.view()
	assert.Contains(t, view, "1 of 1 sessions")
	assert.NotContains(t, view, "Keynote A")
}

func TestFormBlocksInvalidSubmit(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	h.key("a")
	require.NotNil(t, h.m.form)
	assert.Contains(t, h.view(), "Add New Session")

	assert.Nil(t, h.key("ctrl+s"))
	assert.Contains(t, h.view(), "Session Name is required")
	assert.False(t, h.m.form.busy)
	assert.Len(t, h.backend.Sessions(), 2)

	h.key("esc")
	assert.Nil(t, h.m.form)
	assert.False(t, h.app.Dashboard.Form().IsOpen())
}

func TestFormOptionFieldsCycle(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	h.key("e")
	require.NotNil(t, h.m.form)
	assert.Contains(t, h.view(), "Edit Session")
	for h.m.form.fields[h.m.form.focus] != "facultyType" {
		h.key("tab")
	}
	h.key("right")
	assert.Equal(t, "Panelist", h.app.Dashboard.Form().Draft().FacultyType)
	h.key("x")
	assert.Equal(t, "Panelist", h.app.Dashboard.Form().Draft().FacultyType)

	require.NotNil(t, h.key("ctrl+s"))
	h.send(saveCmd(h.ctx, h.app)())
	assert.Nil(t, h.m.form)
	assert.Contains(t, h.view(), "Session saved")
	assert.Equal(t, "Panelist", h.backend.Sessions()[0].FacultyType)

	h.key("z")
	assert.NotContains(t, h.view(), "Session saved")
}

func TestSendEmailNotice(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	require.NotNil(t, h.key("m"))
	h.send(sendEmailCmd(h.ctx, h.app, h.backend.Sessions()[0].ID)())
	assert.Contains(t, h.view(), "Email sent successfully to Dr. Rao")
	assert.Equal(t, []string{"rao@example.com"}, h.backend.SentEmails())

	h.key("q")
	assert.NotContains(t, h.view(), "Email sent successfully")
}

func TestFormatMobile(t *testing.T) {
	assert.Equal(t, "987-654-3210", formatMobile("9876543210"))
	assert.Equal(t, "N/A", formatMobile(""))
	assert.Equal(t, "12345", formatMobile("12345"))
	assert.Equal(t, "98765abcde", formatMobile("98765abcde"))
}

func TestSelectedSessionDetail(t *testing.T) {
	h := newHarness(t)
	h.signIn()

	view := h.view()
	assert.Contains(t, view, "Topic: Cardiology")
	assert.Contains(t, view, "Mobile: 987-654-3210")

	h.send(tea.WindowSizeMsg{Width: 80, Height: 40})
	assert.NotContains(t, h.view(), "Topic: Cardiology")
}

func TestRowShowsSendingWhileEmailInFlight(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	h := newHarnessWith(t, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/send-email") {
				entered <- struct{}{}
				<-gate
			}
			next.ServeHTTP(w, r)
		})
	})
	var release sync.Once
	t.Cleanup(func() { release.Do(func() { close(gate) }) })
	h.signIn()
	id := h.backend.Sessions()[0].ID

	require.NotNil(t, h.key("m"))
	assert.Contains(t, h.view(), "Keynote A  (sending email...)")
	assert.Nil(t, h.key("m"), "a second send for the same row is ignored")

	done := make(chan tea.Msg, 1)
	go func() { done <- sendEmailCmd(h.ctx, h.app, id)() }()
	<-entered
	require.True(t, h.app.Dashboard.EmailInFlight(id))

	h.send(spinner.TickMsg{})
	view := h.view()
	assert.Equal(t, 1, strings.Count(view, "(sending email...)"), "only the busy row is marked")
	assert.Contains(t, view, "Keynote A  (sending email...)")

	release.Do(func() { close(gate) })
	h.send(<-done)
	assert.Contains(t, h.view(), "Email sent successfully to Dr. Rao")
	h.key("x")
	assert.NotContains(t, h.view(), "(sending email...)")
}

func TestRefreshUnauthorizedShowsExpiredHint(t *testing.T) {
	h := newHarness(t)
	h.signIn()
	h.backend.FailNext("GET /sessions", 401, "Invalid or expired token")

	require.NotNil(t, h.key("r"))
	h.send(refreshCmd(h.ctx, h.app)())
	view := h.view()
	assert.Contains(t, view, "Session expired. Press L to sign in again.")
	assert.Contains(t, view, "No sessions yet")
}
