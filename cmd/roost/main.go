// Command roost runs the pigeon-papacy simulation core: a served session
// with autosave and an HTTP API, a headless fast-forward, and save file
// tooling.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/talgya/pigeon-pope/internal/api"
	"github.com/talgya/pigeon-pope/internal/catalog"
	"github.com/talgya/pigeon-pope/internal/config"
	"github.com/talgya/pigeon-pope/internal/engine"
	"github.com/talgya/pigeon-pope/internal/entropy"
	"github.com/talgya/pigeon-pope/internal/persistence"
)

func main() {
	v := config.New()
	var cfg config.Config

	rootCmd := &cobra.Command{
		Use:   "roost",
		Short: "Pigeon papacy idle/card simulation",
		Long: `Roost drives a pigeon papacy session: faith and crumbs accrue every
tick, the rival sect plays cards against you, and the animal factions of
the city decide whether to ally with you or turn on you.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			var err error
			if cfg, err = config.Load(v); err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("db-path", "", "SQLite database path")
	pf.String("save-slot", "", "save slot name")
	pf.String("content-path", "", "YAML content overriding the embedded catalog")
	pf.Int64("seed", 0, "random seed (0 = crypto randomness)")
	pf.String("log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		serveCmd(&cfg),
		simulateCmd(&cfg),
		statusCmd(&cfg),
		exportCmd(&cfg),
		importCmd(&cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
	slog.SetDefault(logger)
}

func openDB(path string) (*persistence.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "path", path)
	return db, nil
}

// loadSession restores the slot, or starts a new game when the slot is
// empty or was written by another save version.
func loadSession(ctx context.Context, cfg *config.Config, db *persistence.DB) (*engine.Game, bool, error) {
	cat, err := catalog.Load(cfg.ContentPath)
	if err != nil {
		return nil, false, err
	}
	rng := entropy.New(cfg.Seed)
	opts := engine.Options{Seed: cfg.Seed}

	if db != nil {
		st, err := db.Load(ctx, cfg.SaveSlot)
		switch {
		case err == nil:
			g, err := engine.Restore(cat, rng, opts, st)
			if err != nil {
				return nil, false, fmt.Errorf("restore %s: %w", cfg.SaveSlot, err)
			}
			return g, true, nil
		case errors.Is(err, persistence.ErrSaveVersionMismatch):
			slog.Warn("ignoring save from another version", "slot", cfg.SaveSlot, "error", err)
		case !errors.Is(err, persistence.ErrNoSave):
			return nil, false, err
		}
	}

	g, err := engine.NewGame(cat, rng, opts)
	return g, false, err
}

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a session with autosave and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			g, resumed, err := loadSession(ctx, cfg, db)
			if err != nil {
				return err
			}

			save := func(ctx context.Context, st engine.SaveState) error {
				return db.Save(ctx, cfg.SaveSlot, st)
			}
			eng := engine.NewEngine(g, save)
			eng.Interval = cfg.EconomyInterval
			eng.AIEvery = cfg.AIEvery()
			eng.AutosaveEvery = cfg.AutosaveEvery()

			if cfg.AdminKey == "" {
				slog.Warn("admin_key not set, admin endpoints are disabled")
			}
			srv := &api.Server{
				Game:     g,
				Eng:      eng,
				DB:       db,
				Port:     cfg.APIPort,
				AdminKey: cfg.AdminKey,
				SaveSlot: cfg.SaveSlot,
			}
			srv.Start(ctx)

			fmt.Printf("\nThe roost is open. API: http://localhost:%d/api/v1/state\n", cfg.APIPort)
			if resumed {
				fmt.Printf("Resuming slot %q at tick %d\n", cfg.SaveSlot, g.CurrentTick())
			}
			fmt.Println("Cooing... (Ctrl+C to stop)")

			if err := eng.Run(ctx); err != nil {
				return err
			}

			slog.Info("final save...")
			if err := eng.SaveNow(context.Background()); err != nil {
				return fmt.Errorf("final save: %w", err)
			}
			fmt.Println("Session stopped. Roost saved.")
			return nil
		},
	}

	f := cmd.Flags()
	f.Int("api-port", 0, "HTTP port")
	f.String("admin-key", "", "bearer token for admin endpoints")
	f.Duration("ai-interval", 0, "rival and faction turn interval")
	f.Duration("autosave-interval", 0, "autosave interval (0 disables)")
	return cmd
}
