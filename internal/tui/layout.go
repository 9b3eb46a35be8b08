package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("35"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Width(14)
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
)

func panelSize(width, height int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}
	return width - 2, height - 2
}

func contentSize(width, height int) (int, int) {
	panelWidth, panelHeight := panelSize(width, height)
	contentWidth := panelWidth - 6
	contentHeight := panelHeight - 4
	if contentWidth < 1 {
		contentWidth = 1
	}
	if contentHeight < 1 {
		contentHeight = 1
	}
	return contentWidth, contentHeight
}

func modalWidth(width int) int {
	if width <= 0 {
		return 72
	}
	w := width * 2 / 3
	if w < 50 {
		w = min(width-2, 50)
	}
	if w > 90 {
		w = 90
	}
	return w
}

func renderCentered(content string, width, height int) string {
	if width <= 0 || height <= 0 {
		return content
	}
	panelWidth, panelHeight := panelSize(width, height)
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2).
		Width(panelWidth).
		Height(panelHeight).
		Render(content)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, panel)
}

func renderModal(title, body string, width int, border lipgloss.TerminalColor) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2).
		Width(modalWidth(width)).
		Render(strings.Join([]string{headerStyle.Render(title), "", body}, "\n"))
}

func overlayModal(base, modal string, width, height int) string {
	if width <= 0 || height <= 0 {
		return base + "\n\n" + modal
	}
	baseLines := normalizeLines(base, width, height)
	modalCanvas := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
	modalLines := normalizeLines(modalCanvas, width, height)
	for i := 0; i < height; i++ {
		if strings.TrimSpace(stripANSI(modalLines[i])) != "" {
			baseLines[i] = modalLines[i]
		}
	}
	return strings.Join(baseLines, "\n")
}

func normalizeLines(input string, width, height int) []string {
	lines := strings.Split(input, "\n")
	out := make([]string, height)
	pad := lipgloss.NewStyle().Width(width)
	for i := 0; i < height; i++ {
		if i < len(lines) {
			out[i] = pad.Render(lines[i])
		} else {
			out[i] = pad.Render("")
		}
	}
	return out
}

func stripANSI(input string) string {
	return ansi.Strip(input)
}
