package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// truncate cuts s (ANSI-aware) to width columns.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= width {
		return s
	}
	tail := glyphEllipsis()
	if xansi.StringWidth(tail) >= width {
		tail = ""
	}
	return xansi.Truncate(s, width, tail)
}

// normalizePane forces s to exactly height lines, each at most width columns.
func normalizePane(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if height >= 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i := range lines {
		lines[i] = truncate(lines[i], width)
	}
	return strings.Join(lines, "\n")
}

// scrollWindow returns the first visible row so that cursor stays inside a window of height rows.
func scrollWindow(top, cursor, height, total int) int {
	if height <= 0 {
		return 0
	}
	if cursor < top {
		top = cursor
	}
	if cursor >= top+height {
		top = cursor - height + 1
	}
	if last := total - height; top > last {
		top = last
	}
	if top < 0 {
		top = 0
	}
	return top
}
