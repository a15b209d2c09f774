package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"lawcode-cli/internal/editor"
	"lawcode-cli/internal/model"

	"github.com/spf13/cobra"
)

// runDelete arms the delete, asks on stdin unless yes is set, then confirms it.
func runDelete(cmd *cobra.Command, app *App, kind model.Kind, id string, yes bool) error {
	ed, err := app.openEditor(cmd.Context(), false)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer ed.Close()

	id = strings.TrimSpace(id)
	req, err := ed.RequestDelete(kind, id)
	if err != nil {
		if errors.Is(err, editor.ErrNotFound) {
			return writeErr(cmd, errNotFound(kind, id))
		}
		return writeErr(cmd, err)
	}
	if !yes {
		if !promptYesNo(cmd, deletePrompt(req)) {
			ed.CancelDelete(req.Token)
			return writeErr(cmd, editor.ErrNotConfirmed)
		}
	}
	if err := ed.ConfirmDelete(cmd.Context(), req.Token); err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, map[string]any{"data": map[string]any{
		"deleted": req.ID,
		"kind":    string(req.Kind),
	}})
}

func deletePrompt(req editor.DeleteRequest) string {
	if req.Kind == model.KindSection && req.Chapters > 0 {
		return fmt.Sprintf("Delete section %q and its %d chapter(s)?", req.Title, req.Chapters)
	}
	return fmt.Sprintf("Delete %s %q?", req.Kind, req.Title)
}

// promptYesNo reads one line from stdin; anything but y/yes (including EOF) is a no.
func promptYesNo(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
