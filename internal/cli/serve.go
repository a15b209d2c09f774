package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"lawcode-cli/internal/config"
	"lawcode-cli/internal/format"
	"lawcode-cli/internal/model"
	"lawcode-cli/internal/server"
	"lawcode-cli/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var dbPath, addr, token, seed string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference CRUD backend (sqlite)",
		Long: strings.TrimSpace(`
Serves the sections/chapters/articles API the editor talks to, backed by a sqlite file.
Defaults come from LAWCODE_DB, LAWCODE_ADDR and LAWCODE_SERVER_TOKEN.
--seed replaces the database with a previous JSON export before serving.
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServer()
			if err != nil {
				return writeErr(cmd, err)
			}
			if cmd.Flags().Changed("db") {
				cfg.DBPath = dbPath
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("require-token") {
				cfg.Token = token
			}
			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}
			level := app.LogLevel
			if !cmd.Flags().Changed("log-level") {
				level = "info"
			}
			log, err := newLogger(cmd.ErrOrStderr(), level, true)
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx := cmd.Context()
			db, err := store.Open(ctx, cfg.DBPath)
			if err != nil {
				return writeErr(cmd, fmt.Errorf("open %s: %w", cfg.DBPath, err))
			}
			defer db.Close()

			if strings.TrimSpace(seed) != "" {
				n, err := importSeed(ctx, db, seed)
				if err != nil {
					return writeErr(cmd, err)
				}
				log.Info("seeded database", "file", seed, "sections", n)
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			srv := server.New(db, log, server.Config{Addr: cfg.Addr, Token: cfg.Token}, reg)
			if err := srv.Run(ctx); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database file (env "+config.EnvServerDB+")")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (env "+config.EnvServerAddr+", default "+config.DefaultServerAddr+")")
	cmd.Flags().StringVar(&token, "require-token", "", "Require this bearer token (env "+config.EnvServerToken+")")
	cmd.Flags().StringVar(&seed, "seed", "", "JSON export to import before serving")
	return cmd
}

// importSeed loads a JSON export (or a bare section array) into db.
func importSeed(ctx context.Context, db *store.DB, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed: %w", err)
	}
	var sections []model.Section
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(b, &sections)
	} else {
		var doc format.ExportDocument
		err = json.Unmarshal(b, &doc)
		sections = doc.Sections
	}
	if err != nil {
		return 0, fmt.Errorf("parse seed %s: %w", path, err)
	}
	if err := db.Import(ctx, sections); err != nil {
		return 0, fmt.Errorf("import seed: %w", err)
	}
	return len(sections), nil
}
