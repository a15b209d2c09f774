package cli

import (
	"strings"

	"lawcode-cli/internal/api"
	"lawcode-cli/internal/model"

	"github.com/spf13/cobra"
)

func newTreeCmd(app *App) *cobra.Command {
	var withArticles bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print every section with its chapters",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.newClient()
			if err != nil {
				return writeErr(cmd, err)
			}
			defer client.Close()
			secs, err := client.ListSections(cmd.Context(), withArticles)
			if err != nil {
				return writeErr(cmd, err)
			}
			if secs == nil {
				secs = []model.Section{}
			}
			return writeOut(cmd, app, map[string]any{"data": secs})
		},
	}
	cmd.Flags().BoolVar(&withArticles, "articles", false, "Nest each chapter's articles")
	return cmd
}

func newArticlesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles <chapter-id>",
		Short: "List the articles of a chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := app.newClient()
			if err != nil {
				return writeErr(cmd, err)
			}
			defer client.Close()
			id := strings.TrimSpace(args[0])
			items, err := client.ListArticles(cmd.Context(), id)
			if api.IsNotFound(err) {
				return writeErr(cmd, errNotFound(model.KindChapter, id))
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			if items == nil {
				items = []model.Article{}
			}
			return writeOut(cmd, app, map[string]any{"data": items})
		},
	}
	return cmd
}
