package cli

import (
	"errors"
	"strings"

	"lawcode-cli/internal/dnd"
	"lawcode-cli/internal/model"

	"github.com/spf13/cobra"
)

func newChaptersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "chapters",
		Aliases: []string{"chapter"},
		Short:   "Chapter commands (ordered children of a section)",
	}
	cmd.AddCommand(newChaptersCreateCmd(app))
	cmd.AddCommand(newChaptersUpdateCmd(app))
	cmd.AddCommand(newChaptersDeleteCmd(app))
	cmd.AddCommand(newChaptersMoveCmd(app))
	return cmd
}

func newChaptersCreateCmd(app *App) *cobra.Command {
	var sectionID, title, description string
	var order int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a chapter in a section",
		RunE: func(cmd *cobra.Command, args []string) error {
			sid := strings.TrimSpace(sectionID)
			if sid == "" {
				return writeErr(cmd, errors.New("missing --section"))
			}
			ed, err := app.openEditor(cmd.Context(), false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ed.Close()
			if !cmd.Flags().Changed("order") {
				order = ed.NextChapterOrder(sid)
			}
			ch, err := ed.CreateChapter(cmd.Context(), model.ChapterInput{
				SectionID:   sid,
				Order:       order,
				Title:       title,
				Description: description,
			})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ch})
		},
	}
	cmd.Flags().StringVar(&sectionID, "section", "", "Section id (required)")
	cmd.Flags().StringVar(&title, "title", "", "Chapter title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Markdown description")
	cmd.Flags().IntVar(&order, "order", 0, "Order number (default: last + 1 in the section)")
	return cmd
}

func newChaptersUpdateCmd(app *App) *cobra.Command {
	var sectionID, title, description string
	var order int
	cmd := &cobra.Command{
		Use:   "update <chapter-id>",
		Short: "Partially update a chapter; only the flags given are sent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.ChapterPatch
			if cmd.Flags().Changed("section") {
				sid := strings.TrimSpace(sectionID)
				patch.SectionID = &sid
			}
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if cmd.Flags().Changed("order") {
				patch.Order = &order
			}
			if patch.Empty() {
				return writeErr(cmd, errors.New("nothing to update: pass --title, --description, --order or --section"))
			}

			ed, err := app.openEditor(cmd.Context(), false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ed.Close()
			id := strings.TrimSpace(args[0])
			if _, _, ok := ed.Store().Chapter(id); !ok {
				return writeErr(cmd, errNotFound(model.KindChapter, id))
			}
			ch, err := ed.UpdateChapter(cmd.Context(), id, patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": ch})
		},
	}
	cmd.Flags().StringVar(&sectionID, "section", "", "Move to section id (raw update; prefer `chapters move`)")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New markdown description")
	cmd.Flags().IntVar(&order, "order", 0, "New order number")
	return cmd
}

func newChaptersDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <chapter-id>",
		Short: "Delete a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, app, model.KindChapter, args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

type moveResult struct {
	ChapterID     string `json:"chapter_id"`
	Kind          string `json:"kind"`
	FromSectionID string `json:"from_section_id"`
	SectionID     string `json:"section_id"`
	Order         int    `json:"order_number"`
	Writes        int    `json:"writes"`
}

func newChaptersMoveCmd(app *App) *cobra.Command {
	var before, sectionID string
	cmd := &cobra.Command{
		Use:   "move <chapter-id>",
		Short: "Move a chapter the way a drag and drop would",
		Long: strings.TrimSpace(`
--before <chapter-id> drops onto that chapter: within the same section the moved chapter takes
its position and the section is renumbered 1..N; across sections only the moved chapter is
written (order = position + 1).
--section <section-id> appends to the end of that section.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, sectionID = strings.TrimSpace(before), strings.TrimSpace(sectionID)
			if (before == "") == (sectionID == "") {
				return writeErr(cmd, errFlagConflict("before", "section"))
			}
			ed, err := app.openEditor(cmd.Context(), false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ed.Close()

			id := strings.TrimSpace(args[0])
			if _, _, ok := ed.Store().Chapter(id); !ok {
				return writeErr(cmd, errNotFound(model.KindChapter, id))
			}
			var target string
			if before != "" {
				_, loc, ok := ed.Store().Chapter(before)
				if !ok {
					return writeErr(cmd, errNotFound(model.KindChapter, before))
				}
				target = dnd.ChapterSlotID(loc.SectionID, before)
			} else {
				if _, ok := ed.Store().Section(sectionID); !ok {
					return writeErr(cmd, errNotFound(model.KindSection, sectionID))
				}
				target = dnd.SectionContainerID(sectionID)
			}

			plan, err := ed.Move(cmd.Context(), id, target)
			if err != nil {
				return writeErr(cmd, err)
			}
			app.logger().Debug("chapter moved", "chapter_id", id, "target", target, "kind", string(plan.Kind))
			return writeOut(cmd, app, map[string]any{"data": moveResult{
				ChapterID:     plan.ChapterID,
				Kind:          string(plan.Kind),
				FromSectionID: plan.FromSectionID,
				SectionID:     plan.SectionID,
				Order:         plan.Order,
				Writes:        len(plan.Writes),
			}})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Drop onto this chapter")
	cmd.Flags().StringVar(&sectionID, "section", "", "Append to this section")
	return cmd
}
