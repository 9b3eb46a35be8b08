// Package tui is the terminal front end. The root model is the view guard:
// it shows a spinner until the stored session has been checked, the login
// view while signed out and the session dashboard otherwise.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sessions-admin/internal/api"
	"sessions-admin/internal/app"
	"sessions-admin/internal/dashboard"
)

type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenDashboard
)

type model struct {
	app    *app.App
	ctx    context.Context
	width  int
	height int

	keys     keyMap
	help     help.Model
	showHelp bool
	spinner  spinner.Model
	inFlight int

	login loginView

	sessions    list.Model
	searchInput textinput.Model
	searching   bool
	form        *formView
	errMsg      string

	// sending holds ids whose send-email command has been issued but whose
	// result has not arrived yet.
	sending map[string]bool
}

// Run starts the program and blocks until the user quits.
func Run(a *app.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := tea.NewProgram(newModel(ctx, a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func newModel(ctx context.Context, a *app.App) model {
	spin := spinner.New()
	spin.Spinner = spinner.Line
	spin.Style = dimStyle

	search := textinput.New()
	search.Placeholder = "Search by session, topic, faculty, email or mobile"
	search.Prompt = "/ "

	return model{
		app:         a,
		ctx:         ctx,
		keys:        defaultKeyMap,
		help:        help.New(),
		spinner:     spin,
		login:       newLoginView(a.LastEmail()),
		sessions:    newListModel(),
		searchInput: search,
		sending:     make(map[string]bool),
	}
}

func newListModel() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowFilter(false)
	l.SetShowHelp(false)
	return l
}

func (m model) Init() tea.Cmd {
	return tea.Batch(bootstrapCmd(m.ctx, m.app), m.spinner.Tick)
}

// screen decides what to render from the auth store alone.
func (m model) screen() screen {
	switch {
	case !m.app.Auth.Ready():
		return screenLoading
	case !m.app.Auth.Authenticated():
		return screenLogin
	default:
		return screenDashboard
	}
}

func (m model) busy() bool {
	return m.inFlight > 0 || m.screen() == screenLoading || m.login.busy
}

// start counts an operation in flight and keeps the spinner turning.
func (m *model) start(cmd tea.Cmd) tea.Cmd {
	m.inFlight++
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m *model) finish() {
	if m.inFlight > 0 {
		m.inFlight--
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeList()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if len(m.sending) > 0 {
			m.syncList()
		}
		if m.busy() {
			return m, cmd
		}
		return m, nil
	case bootstrapMsg:
		if msg.err != nil {
			m.app.Logger.Errorf("bootstrap: %v", msg.err)
		}
		if m.app.Auth.Authenticated() {
			return m, m.start(refreshCmd(m.ctx, m.app))
		}
		return m, nil
	case loginMsg:
		m.login.busy = false
		if msg.err != nil {
			m.login.err = loginError(msg.err)
			m.login.password.SetValue("")
			return m, nil
		}
		m.login.reset(m.app.LastEmail())
		return m, m.start(refreshCmd(m.ctx, m.app))
	case logoutMsg:
		m.finish()
		m.form = nil
		m.searching = false
		m.searchInput.SetValue("")
		m.app.Dashboard.SetSearch("")
		m.app.Dashboard.Form().Close()
		m.app.Dashboard.CancelDelete()
		m.app.Dashboard.DismissNotice()
		m.login.reset(m.app.LastEmail())
		return m, nil
	case refreshedMsg:
		m.finish()
		m.errMsg = ""
		switch {
		case api.IsUnauthorized(msg.err):
			m.errMsg = "Session expired. Press L to sign in again."
		case msg.err != nil:
			m.errMsg = "Could not load sessions: " + msg.err.Error()
		}
		m.syncList()
		return m, nil
	case savedMsg:
		m.finish()
		if m.form != nil {
			m.form.busy = false
			m.form.setErrors(msg.err)
		}
		if !m.app.Dashboard.Form().IsOpen() {
			m.form = nil
		}
		m.syncList()
		return m, nil
	case deletedMsg:
		m.finish()
		m.syncList()
		return m, nil
	case emailSentMsg:
		m.finish()
		delete(m.sending, msg.id)
		m.syncList()
		return m, nil
	case allEmailsSentMsg:
		m.finish()
		m.syncList()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// loginError is what the login view shows for a failed attempt.
func loginError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Login timed out"
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return "Could not reach the server"
	}
	return "Login failed"
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.screen() {
	case screenLoading:
		return m, nil
	case screenLogin:
		return m.handleLoginKey(msg)
	}

	if _, ok := m.app.Dashboard.LastNotice(); ok {
		m.app.Dashboard.DismissNotice()
		return m, nil
	}
	if _, ok := m.app.Dashboard.PendingDelete(); ok {
		return m.handleConfirmKey(msg)
	}
	if m.form != nil {
		return m.handleFormKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}
	return m.handleDashboardKey(msg)
}

func (m model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}
	if msg.String() == "enter" {
		email, password, ok := m.login.credentials()
		switch {
		case ok:
			m.login.busy = true
			m.login.err = ""
			return m, tea.Batch(loginCmd(m.ctx, m.app, email, password), m.spinner.Tick)
		case email == "":
			m.login.focus = 0
			m.login.err = "Email is required"
		case m.login.focus == 0:
			m.login.focus = 1
		default:
			m.login.err = "Password is required"
		}
		m.login.applyFocus()
		return m, nil
	}
	var cmd tea.Cmd
	m.login, cmd = m.login.update(msg)
	return m, cmd
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		return m, m.start(deleteCmd(m.ctx, m.app))
	case key.Matches(msg, m.keys.Deny):
		m.app.Dashboard.CancelDelete()
	}
	return m, nil
}

func (m model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.busy {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.app.Dashboard.Form().Close()
		m.form = nil
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		ctrl := m.app.Dashboard.Form()
		if err := ctrl.Validate(); err != nil {
			m.form.setErrors(err)
			return m, nil
		}
		m.form.errors = nil
		m.form.busy = true
		return m, m.start(saveCmd(m.ctx, m.app))
	}
	var cmd tea.Cmd
	*m.form, cmd = m.form.update(msg, m.keys, m.app.Dashboard.Form())
	return m, cmd
}

func (m model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.app.Dashboard.SetSearch(m.searchInput.Value())
	m.syncList()
	return m, cmd
}

func (m model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	dash := m.app.Dashboard
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case msg.String() == "esc" && dash.Search() != "":
		m.searchInput.SetValue("")
		dash.SetSearch("")
		m.syncList()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.start(refreshCmd(m.ctx, m.app))
	case key.Matches(msg, m.keys.Logout):
		return m, m.start(logoutCmd(m.ctx, m.app))
	case key.Matches(msg, m.keys.Add):
		dash.Add()
		fv := newFormView(dash.Form())
		m.form = &fv
		return m, textinput.Blink
	case key.Matches(msg, m.keys.SendAll):
		return m, m.start(sendAllEmailsCmd(m.ctx, m.app))
	}

	id, selected := m.selectedID()
	switch {
	case key.Matches(msg, m.keys.Edit) && selected:
		if err := dash.Edit(id); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		fv := newFormView(dash.Form())
		m.form = &fv
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Delete) && selected:
		if err := dash.RequestDelete(id); err != nil {
			m.errMsg = err.Error()
		}
		return m, nil
	case key.Matches(msg, m.keys.SendOne) && selected:
		if m.emailInFlight(id) {
			return m, nil
		}
		m.sending[id] = true
		m.syncList()
		return m, m.start(sendEmailCmd(m.ctx, m.app, id))
	}

	var cmd tea.Cmd
	m.sessions, cmd = m.sessions.Update(msg)
	return m, cmd
}

func (m model) selectedID() (string, bool) {
	item, ok := m.sessions.SelectedItem().(sessionItem)
	if !ok {
		return "", false
	}
	return item.data.ID, true
}

func (m model) emailInFlight(id string) bool {
	return m.sending[id] || m.app.Dashboard.EmailInFlight(id)
}

func (m *model) syncList() {
	m.sessions.SetItems(buildSessionItems(m.app.Dashboard.Visible(), m.emailInFlight))
}

// detailMinWidth is the content width from which the selected session is
// shown next to the list.
const detailMinWidth = 100

func (m *model) resizeList() {
	width, height := contentSize(m.width, m.height)
	listHeight := height - 8
	if listHeight < 4 {
		listHeight = 4
	}
	listWidth := width
	if width >= detailMinWidth {
		listWidth = width * 3 / 5
	}
	m.sessions.SetSize(listWidth, listHeight)
	m.searchInput.Width = max(width-4, 10)
}

func (m model) viewList() string {
	width, _ := contentSize(m.width, m.height)
	item, ok := m.sessions.SelectedItem().(sessionItem)
	if width < detailMinWidth || !ok {
		return m.sessions.View()
	}
	detail := detailStyle.Width(width - m.sessions.Width() - 4).Render(renderSessionDetail(item.data))
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sessions.View(), "  ", detail)
}

func (m model) View() string {
	var content string
	switch m.screen() {
	case screenLoading:
		content = m.spinner.View() + " Loading..."
	case screenLogin:
		content = m.login.view(m.spinner.View())
	default:
		content = m.viewDashboard()
	}
	base := renderCentered(content, m.width, m.height)
	if m.screen() != screenDashboard {
		return base
	}

	if notice, ok := m.app.Dashboard.LastNotice(); ok {
		return overlayModal(dimStyle.Render(base), m.renderNotice(notice), m.width, m.height)
	}
	if pending, ok := m.app.Dashboard.PendingDelete(); ok {
		return overlayModal(dimStyle.Render(base), m.renderConfirm(pending.SessionName), m.width, m.height)
	}
	if m.form != nil {
		helpLine := m.help.ShortHelpView(formKeys(m.keys).ShortHelp())
		modal := m.form.view(m.app.Dashboard.Form().Editing(), m.width, m.spinner.View(), helpLine)
		return overlayModal(dimStyle.Render(base), modal, m.width, m.height)
	}
	return base
}

func (m model) viewDashboard() string {
	dash := m.app.Dashboard
	user, _ := m.app.Auth.User()

	status := []string{}
	if m.busy() || dash.AllEmailsInFlight() {
		status = append(status, m.spinner.View())
	}
	status = append(status, dash.Summary())
	if dash.AllEmailsInFlight() {
		status = append(status, "sending emails to all faculties...")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		headerStyle.Render("Scientific Sessions"),
		dimStyle.Render(fmt.Sprintf("  signed in as %s", displayOr(user.Name, user.Email))),
	)
	search := dimStyle.Render("/ search")
	if m.searching || dash.Search() != "" {
		search = m.searchInput.View()
	}

	var body string
	switch {
	case dash.Loading() && len(dash.Sessions()) == 0:
		body = m.spinner.View() + " Loading sessions..."
	case len(dash.Visible()) == 0:
		body = dimStyle.Render(dash.EmptyText())
	default:
		body = m.viewList()
	}

	lines := []string{header, dimStyle.Render(strings.Join(status, "  ")), search}
	if m.errMsg != "" {
		lines = append(lines, errStyle.Render(m.errMsg))
	}
	lines = append(lines, "", body, "")
	if m.showHelp {
		lines = append(lines, m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		lines = append(lines, footerStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderConfirm(name string) string {
	body := strings.Join([]string{
		confirmStyle.Render(fmt.Sprintf("Delete %q?", previewText(displayOr(name, "Untitled Session"), 60))),
		"This cannot be undone.",
		"",
		footerStyle.Render(m.help.ShortHelpView([]key.Binding{m.keys.Confirm, m.keys.Deny})),
	}, "\n")
	return renderModal("Delete Session", body, m.width, lipgloss.Color("214"))
}

func (m model) renderNotice(n dashboard.Notice) string {
	style, title, border := okStyle, "Done", lipgloss.Color("35")
	if n.Level == dashboard.LevelError {
		style, title, border = errStyle, "Error", lipgloss.Color("160")
	}
	body := strings.Join([]string{style.Render(n.Text), "", footerStyle.Render("press any key")}, "\n")
	return renderModal(title, body, m.width, border)
}
