package tui

import "lawcode-cli/internal/editor"

type mode int

const (
	modeBrowse mode = iota
	modeDrag
	modeForm
	modeConfirm
	modeHelp
)

// headerLines is the number of terminal rows above the tree.
const headerLines = 1

// Messages carry the editor they were produced for; results addressed to an editor that was
// replaced by a locale switch are dropped.

type loadedMsg struct {
	ed        *editor.Editor
	locale    string
	switching bool
	err       error
}

type expandedMsg struct {
	ed        *editor.Editor
	chapterID string
	err       error
}

type savedMsg struct {
	ed        *editor.Editor
	op        string
	selectKey string
	noop      bool
	err       error
}

type exportedMsg struct {
	path string
	err  error
}
