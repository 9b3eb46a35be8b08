package dashboard

import (
	"fmt"
	"strings"

	"sessions-admin/internal/types"
)

// filterSessions keeps sessions whose name, topic, email or faculty contain
// term ignoring case, or whose mobile contains term exactly. A blank term
// keeps everything.
func filterSessions(sessions []types.Session, term string) []types.Session {
	if strings.TrimSpace(term) == "" {
		return cloneSessions(sessions)
	}
	lowered := strings.ToLower(term)
	out := make([]types.Session, 0, len(sessions))
	for _, s := range sessions {
		if strings.Contains(strings.ToLower(s.SessionName), lowered) ||
			strings.Contains(strings.ToLower(s.TopicName), lowered) ||
			strings.Contains(strings.ToLower(s.Email), lowered) ||
			strings.Contains(s.Mobile, term) ||
			strings.Contains(strings.ToLower(s.FacultyName), lowered) {
			out = append(out, s)
		}
	}
	return out
}

// Summary reads like "3 of 10 sessions", with the search term appended
// when one is active.
func (c *Controller) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	summary := fmt.Sprintf("%d of %d sessions", len(c.visible), len(c.sessions))
	if strings.TrimSpace(c.search) != "" {
		summary += fmt.Sprintf(" matching %q", c.search)
	}
	return summary
}

// EmptyText is shown in place of the list when nothing is visible.
func (c *Controller) EmptyText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sessions) == 0 {
		return "No sessions yet"
	}
	return "No matching sessions found"
}
