package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type confirmFocus int

const (
	confirmFocusCancel confirmFocus = iota
	confirmFocusConfirm
)

func modalBodyWidth(width int) int {
	w := width - 10
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderModalBox(width int, title, content string) string {
	bodyW := modalBodyWidth(width)
	head := styleHeader().Render(title)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Width(bodyW + 2)
	return box.Render(head + "\n\n" + content)
}

func renderConfirmModal(width int, title, body, confirmLabel, cancelLabel string, focus confirmFocus) string {
	btn := lipgloss.NewStyle().Padding(0, 1).Foreground(colorSurfaceFg).Background(colorControlBg)
	active := btn.Foreground(colorSelectedFg).Background(colorSelectedBg).Bold(true)

	confirm := btn.Render(confirmLabel)
	cancel := btn.Render(cancelLabel)
	if focus == confirmFocusConfirm {
		confirm = active.Render(confirmLabel)
	} else {
		cancel = active.Render(cancelLabel)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top, confirm, " ", cancel)

	bodyW := modalBodyWidth(width)
	help := styleMuted().Width(bodyW).Render("tab: focus   enter: select   esc/ctrl+g: cancel")
	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(body),
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, title, content)
}
