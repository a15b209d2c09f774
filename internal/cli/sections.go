package cli

import (
	"strings"

	"lawcode-cli/internal/model"

	"github.com/spf13/cobra"
)

func newSectionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sections",
		Aliases: []string{"section"},
		Short:   "Section commands (top-level divisions of the code)",
	}
	cmd.AddCommand(newSectionsCreateCmd(app))
	cmd.AddCommand(newSectionsUpdateCmd(app))
	cmd.AddCommand(newSectionsDeleteCmd(app))
	return cmd
}

func newSectionsCreateCmd(app *App) *cobra.Command {
	var title, description string
	var order int
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a section (appended after the last one unless --order is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := app.openEditor(cmd.Context(), false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ed.Close()
			if !cmd.Flags().Changed("order") {
				order = ed.NextSectionOrder()
			}
			sec, err := ed.CreateSection(cmd.Context(), model.SectionInput{Order: order, Title: title, Description: description})
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": sec})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Section title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Markdown description")
	cmd.Flags().IntVar(&order, "order", 0, "Order number (default: last + 1)")
	return cmd
}

func newSectionsUpdateCmd(app *App) *cobra.Command {
	var title, description string
	var order int
	cmd := &cobra.Command{
		Use:   "update <section-id>",
		Short: "Update a section; omitted flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := app.openEditor(cmd.Context(), false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ed.Close()
			id := strings.TrimSpace(args[0])
			cur, ok := ed.Store().Section(id)
			if !ok {
				return writeErr(cmd, errNotFound(model.KindSection, id))
			}
			in := model.SectionInput{Order: cur.Order, Title: cur.Title, Description: cur.Description}
			if cmd.Flags().Changed("title") {
				in.Title = title
			}
			if cmd.Flags().Changed("description") {
				in.Description = description
			}
			if cmd.Flags().Changed("order") {
				in.Order = order
			}
			sec, err := ed.UpdateSection(cmd.Context(), id, in)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": sec})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New markdown description")
	cmd.Flags().IntVar(&order, "order", 0, "New order number")
	return cmd
}

func newSectionsDeleteCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <section-id>",
		Short: "Delete a section and all of its chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, app, model.KindSection, args[0], yes)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
