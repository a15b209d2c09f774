package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the full tree to legal-code-structure-<date>.<format>",
		Long: strings.TrimSpace(`
Writes the current tree (sections and chapters) in the --format given (json by default).
The file lands in --out (default: current directory); --out - writes the document to stdout.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			ed, err := app.openEditor(cmd.Context(), false)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer ed.Close()

			if strings.TrimSpace(outDir) == "-" {
				if _, err := ed.Export(cmd.OutOrStdout(), app.cfg.Format); err != nil {
					return writeErr(cmd, err)
				}
				return nil
			}

			var buf bytes.Buffer
			name, err := ed.Export(&buf, app.cfg.Format)
			if err != nil {
				return writeErr(cmd, err)
			}
			dir := strings.TrimSpace(outDir)
			if dir == "" {
				dir = "."
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return writeErr(cmd, err)
			}
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"file":     path,
				"format":   app.cfg.Format,
				"sections": len(ed.Sections()),
			}})
		},
	}
	cmd.Flags().StringVar(&outDir, "out", ".", "Target directory, or - for stdout")
	return cmd
}
