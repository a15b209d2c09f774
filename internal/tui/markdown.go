package tui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// previewKey identifies a glamour renderer; one is built per style and wrap width.
type previewKey struct {
	style string
	width int
}

type previewCache struct {
	mu        sync.Mutex
	renderers map[previewKey]*glamour.TermRenderer
}

var descriptionPreview = &previewCache{renderers: map[previewKey]*glamour.TermRenderer{}}

func previewStyle() string {
	switch {
	case asciiMode():
		return "ascii"
	case lipgloss.HasDarkBackground():
		return "dark"
	default:
		return "light"
	}
}

func (c *previewCache) renderer(k previewKey) (*glamour.TermRenderer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.renderers[k]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(k.style),
		glamour.WithWordWrap(k.width),
	)
	if err != nil {
		return nil, fmt.Errorf("markdown renderer: %w", err)
	}
	c.renderers[k] = r
	return r, nil
}

// renderMarkdown renders a section or chapter description for the preview pane.
// On any rendering error the raw markdown is shown.
func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	r, err := descriptionPreview.renderer(previewKey{style: previewStyle(), width: max(width, 10)})
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.Trim(out, "\n")
}
