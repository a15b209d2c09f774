package cli

import (
	"errors"
	"strings"

	"lawcode-cli/internal/config"
	"lawcode-cli/internal/format"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.lawcode/config.json",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective client configuration (file < env < flags)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.resolve()
			if err != nil {
				return writeErr(cmd, err)
			}
			path, err := config.Path()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"path":           path,
				"apiURL":         c.APIURL,
				"tokenSet":       c.Token != "",
				"locale":         c.Locale,
				"locales":        app.locales(),
				"format":         c.Format,
				"timeoutSeconds": int(c.Timeout.Seconds()),
				"glyphs":         c.Glyphs,
			}})
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	var apiURL, token, locale, outFormat, glyphs string
	var timeout int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Persist client settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.LoadFile()
			if err != nil {
				return writeErr(cmd, err)
			}
			changed := false
			set := func(name string, dst *string, v string) {
				if cmd.Flags().Changed(name) {
					*dst = strings.TrimSpace(v)
					changed = true
				}
			}
			set("api-url", &f.APIURL, apiURL)
			set("api-token", &f.Token, token)
			set("default-locale", &f.Locale, locale)
			set("default-format", &f.Format, outFormat)
			if cmd.Flags().Changed("glyphs") {
				if f.TUI == nil {
					f.TUI = &config.TUIConfig{}
				}
				f.TUI.Glyphs = strings.TrimSpace(glyphs)
				changed = true
			}
			if cmd.Flags().Changed("timeout") {
				t := timeout
				f.TimeoutSeconds = &t
				changed = true
			}
			if !changed {
				return writeErr(cmd, errors.New("nothing to set"))
			}
			if f.Format != "" {
				if _, err := format.Normalize(f.Format); err != nil {
					return writeErr(cmd, err)
				}
			}
			// Validate the merged result before writing anything.
			if _, err := config.Resolve(f, config.Overrides{}); err != nil {
				return writeErr(cmd, err)
			}
			if err := config.SaveFile(f); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"saved": true}})
		},
	}
	cmd.Flags().StringVar(&apiURL, "api-url", "", "CRUD service base URL")
	cmd.Flags().StringVar(&token, "api-token", "", "Bearer token")
	cmd.Flags().StringVar(&locale, "default-locale", "", "Default locale")
	cmd.Flags().StringVar(&outFormat, "default-format", "", "Default output format (json|edn|yaml)")
	cmd.Flags().StringVar(&glyphs, "glyphs", "", "TUI glyph set (unicode|ascii)")
	cmd.Flags().IntVar(&timeout, "timeout", 30, "Request timeout in seconds (0 disables)")
	return cmd
}
