package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"sessions-admin/internal/timefmt"
	"sessions-admin/internal/types"
)

type sessionItem struct {
	data    types.Session
	sending bool
}

func (i sessionItem) Title() string {
	title := displayOr(i.data.SessionName, "Untitled Session")
	if i.sending {
		title += "  (sending email...)"
	}
	return title
}

func (i sessionItem) Description() string {
	return fmt.Sprintf("%s · %s · %s · %s %s-%s",
		displayOr(i.data.FacultyName, "N/A"),
		facultyLabel(i.data.FacultyType),
		displayOr(i.data.HallName, "N/A"),
		timefmt.FormatDate(i.data.Date),
		displayOr(timefmt.To12Hour(i.data.StartTime), "N/A"),
		displayOr(timefmt.To12Hour(i.data.EndTime), "N/A"),
	)
}

func (i sessionItem) FilterValue() string { return i.data.SessionName }

func buildSessionItems(in []types.Session, sending func(id string) bool) []list.Item {
	items := make([]list.Item, 0, len(in))
	for _, session := range in {
		items = append(items, sessionItem{data: session, sending: sending(session.ID)})
	}
	return items
}

func renderSessionDetail(s types.Session) string {
	lines := []string{
		headerStyle.Render(displayOr(s.SessionName, "Untitled Session")),
		fmt.Sprintf("Topic: %s", displayOr(s.TopicName, "N/A")),
		fmt.Sprintf("Date: %s", timefmt.FormatDate(s.Date)),
		fmt.Sprintf("Time: %s - %s", displayOr(timefmt.To12Hour(s.StartTime), "N/A"), displayOr(timefmt.To12Hour(s.EndTime), "N/A")),
		fmt.Sprintf("Hall: %s", displayOr(s.HallName, "N/A")),
		"",
		fmt.Sprintf("Faculty: %s (%s)", displayOr(s.FacultyName, "N/A"), facultyLabel(s.FacultyType)),
		fmt.Sprintf("Email: %s", displayOr(s.Email, "N/A")),
		fmt.Sprintf("Mobile: %s", formatMobile(s.Mobile)),
	}
	return strings.Join(lines, "\n")
}

// formatMobile groups a 10 digit number as 987-654-3210.
func formatMobile(mobile string) string {
	if mobile == "" {
		return "N/A"
	}
	if len(mobile) != 10 || strings.Trim(mobile, "0123456789") != "" {
		return mobile
	}
	return mobile[:3] + "-" + mobile[3:6] + "-" + mobile[6:]
}

func facultyLabel(kind string) string {
	if kind == "" {
		return "N/A"
	}
	return types.FacultyType(kind).Label()
}

func displayOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func previewText(text string, limit int) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "\n", " ")
	if limit <= 0 || len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
