package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"lawcode-cli/internal/api"
	"lawcode-cli/internal/config"
	"lawcode-cli/internal/editor"
	"lawcode-cli/internal/format"
	"lawcode-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	APIURL   string
	Token    string
	Locale   string
	Locales  []string
	Format   string
	Pretty   bool
	LogLevel string

	cfg config.Client
	log *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "lawcode",
		Short:        "Legal code structure editor (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive editor
  lawcode

  # Print the tree with articles
  lawcode tree --articles --pretty

  # Move a chapter in front of another one
  lawcode chapters move ch-3 --before ch-1

  # Run the reference backend
  lawcode serve --db ./lawcode.db
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive editor.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		log, err := newLogger(cmd.ErrOrStderr(), app.LogLevel, false)
		if err != nil {
			return writeErr(cmd, err)
		}
		app.log = log
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", "", "CRUD service base URL (env "+config.EnvAPIURL+")")
	cmd.PersistentFlags().StringVar(&app.Token, "token", "", "Bearer token (env "+config.EnvToken+")")
	cmd.PersistentFlags().StringVar(&app.Locale, "locale", "", "Accept-Language sent with every request (env "+config.EnvLocale+")")
	cmd.PersistentFlags().StringSliceVar(&app.Locales, "locales", nil, "Locales the editor cycles through with L (default: --locale only)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "", "Output format (json|edn|yaml; env "+config.EnvFormat+")")
	cmd.PersistentFlags().BoolVar(&app.Pretty, "pretty", false, "Pretty-print output")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	cmd.AddCommand(newTreeCmd(app))
	cmd.AddCommand(newArticlesCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newSectionsCmd(app))
	cmd.AddCommand(newChaptersCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

func newLogger(w io.Writer, level string, asJSON bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// resolve merges config file, environment and flags. It is done lazily so commands that do not
// talk to the API (serve, config) work without a valid client configuration.
func (app *App) resolve() (config.Client, error) {
	f, err := config.LoadFile()
	if err != nil {
		return config.Client{}, err
	}
	c, err := config.Resolve(f, config.Overrides{
		APIURL: app.APIURL,
		Token:  app.Token,
		Locale: app.Locale,
		Format: app.Format,
	})
	if err != nil {
		return config.Client{}, err
	}
	if c.Format, err = format.Normalize(c.Format); err != nil {
		return config.Client{}, err
	}
	app.cfg = c
	return c, nil
}

func (app *App) logger() *slog.Logger {
	if app.log == nil {
		return slog.Default()
	}
	return app.log
}

func (app *App) newClient() (*api.Client, error) {
	c, err := app.resolve()
	if err != nil {
		return nil, err
	}
	return api.NewClient(api.Options{
		BaseURL: c.APIURL,
		Token:   c.Token,
		Locale:  c.Locale,
		Timeout: c.Timeout,
	}), nil
}

// openEditor builds an editor and loads the tree; every command validates against it.
func (app *App) openEditor(ctx context.Context, withArticles bool) (*editor.Editor, error) {
	client, err := app.newClient()
	if err != nil {
		return nil, err
	}
	ed := editor.New(client, editor.Options{Logger: app.logger(), WithArticles: withArticles})
	if err := ed.Load(ctx); err != nil {
		ed.Close()
		return nil, err
	}
	return ed, nil
}

func (app *App) locales() []string {
	out := make([]string, 0, len(app.Locales)+1)
	seen := map[string]bool{}
	add := func(l string) {
		l = strings.TrimSpace(l)
		if l != "" && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	add(app.cfg.Locale)
	for _, l := range app.Locales {
		add(l)
	}
	return out
}

func runTUI(cmd *cobra.Command, app *App) error {
	client, err := app.newClient()
	if err != nil {
		return writeErr(cmd, err)
	}
	defer client.Close()

	// The alt screen owns the terminal; logs go to a file next to the config.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if dir, err := config.Dir(); err == nil {
		if err := os.MkdirAll(dir, 0o755); err == nil {
			if f, err := os.OpenFile(filepath.Join(dir, "tui.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
				defer f.Close()
				if l, err := newLogger(f, app.LogLevel, false); err == nil {
					log = l
				}
			}
		}
	}

	state, err := config.LoadTUIState()
	if err != nil {
		log.Warn("load tui state failed", "error", err)
	}
	if state != nil && state.Locale != "" && state.Locale != app.cfg.Locale {
		// Expanded/selected ids are only meaningful for the locale they were saved under.
		state = &config.TUIState{Version: state.Version}
	}

	opts := tui.Options{
		Open: func(locale string) *editor.Editor {
			return editor.New(client.WithLocale(locale), editor.Options{Logger: log})
		},
		Locale:       app.cfg.Locale,
		Locales:      app.locales(),
		ExportFormat: app.cfg.Format,
		State:        state,
		SaveState:    config.SaveTUIState,
		Logger:       log,
	}
	if err := tui.Run(cmd.Context(), opts, app.cfg.Glyphs); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.cfg.Format, app.Pretty)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
