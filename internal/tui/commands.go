package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"sessions-admin/internal/app"
	"sessions-admin/internal/types"
)

type bootstrapMsg struct{ err error }

type loginMsg struct {
	user types.User
	err  error
}

type logoutMsg struct{}

type refreshedMsg struct{ err error }

type savedMsg struct{ err error }

type deletedMsg struct{ err error }

type emailSentMsg struct {
	id  string
	err error
}

type allEmailsSentMsg struct{ err error }

// Every command below runs on the program context, so leaving a view or
// closing a modal does not cancel a request already in flight.

func bootstrapCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return bootstrapMsg{err: a.Auth.Bootstrap(ctx)}
	}
}

func loginCmd(ctx context.Context, a *app.App, email, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := a.Login(ctx, email, password)
		return loginMsg{user: user, err: err}
	}
}

func logoutCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		a.Logout(ctx)
		return logoutMsg{}
	}
}

func refreshCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: a.Dashboard.Refresh(ctx)}
	}
}

func saveCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{err: a.Dashboard.Save(ctx)}
	}
}

func deleteCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return deletedMsg{err: a.Dashboard.ConfirmDelete(ctx)}
	}
}

func sendEmailCmd(ctx context.Context, a *app.App, id string) tea.Cmd {
	return func() tea.Msg {
		return emailSentMsg{id: id, err: a.Dashboard.SendEmail(ctx, id)}
	}
}

func sendAllEmailsCmd(ctx context.Context, a *app.App) tea.Cmd {
	return func() tea.Msg {
		return allEmailsSentMsg{err: a.Dashboard.SendAllEmails(ctx)}
	}
}
