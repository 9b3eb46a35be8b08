package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginView struct {
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	err      string
}

func newLoginView(lastEmail string) loginView {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = ""
	email.CharLimit = 254
	email.Width = 40
	email.SetValue(lastEmail)

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.Width = 40

	v := loginView{email: email, password: password}
	if lastEmail != "" {
		v.focus = 1
	}
	v.applyFocus()
	return v
}

func (v *loginView) applyFocus() {
	if v.focus == 0 {
		v.email.Focus()
		v.password.Blur()
		return
	}
	v.email.Blur()
	v.password.Focus()
}

func (v *loginView) reset(lastEmail string) {
	*v = newLoginView(lastEmail)
}

// credentials returns the trimmed email and password when both are filled.
func (v loginView) credentials() (string, string, bool) {
	email := strings.TrimSpace(v.email.Value())
	password := v.password.Value()
	return email, password, email != "" && password != ""
}

func (v loginView) update(msg tea.KeyMsg) (loginView, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		v.focus = 1 - v.focus
		v.applyFocus()
		return v, nil
	}
	var cmd tea.Cmd
	if v.focus == 0 {
		v.email, cmd = v.email.Update(msg)
	} else {
		v.password, cmd = v.password.Update(msg)
	}
	return v, cmd
}

func (v loginView) view(spin string) string {
	lines := []string{
		headerStyle.Render("Scientific Sessions Admin"),
		dimStyle.Render("Sign in to manage sessions"),
		"",
		labelStyle.Render("Email") + v.email.View(),
		labelStyle.Render("Password") + v.password.View(),
		"",
	}
	switch {
	case v.busy:
		lines = append(lines, spin+" Signing in...")
	case v.err != "":
		lines = append(lines, errStyle.Render(v.err))
	default:
		lines = append(lines, "")
	}
	lines = append(lines, "", footerStyle.Render("enter sign in · tab switch field · ctrl+c quit"))
	return strings.Join(lines, "\n")
}
