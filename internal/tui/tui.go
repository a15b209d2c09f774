package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen structure editor and blocks until the user quits or ctx ends.
func Run(ctx context.Context, opts Options, glyphPref string) error {
	applyColorProfilePreference()
	applyGlyphPreference(glyphPref)

	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	if fm, ok := final.(appModel); ok {
		fm.ed.Close()
	} else {
		m.ed.Close()
	}
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
