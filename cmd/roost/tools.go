package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/talgya/pigeon-pope/internal/catalog"
	"github.com/talgya/pigeon-pope/internal/config"
	"github.com/talgya/pigeon-pope/internal/engine"
	"github.com/talgya/pigeon-pope/internal/entropy"
	"github.com/talgya/pigeon-pope/internal/persistence"
)

func simulateCmd(cfg *config.Config) *cobra.Command {
	var (
		duration time.Duration
		resume   bool
		save     bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Fast-forward a session headless and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			var db *persistence.DB
			if resume || save {
				var err error
				if db, err = openDB(cfg.DBPath); err != nil {
					return err
				}
				defer db.Close()
			}

			var (
				g   *engine.Game
				err error
			)
			if resume {
				g, _, err = loadSession(cmd.Context(), cfg, db)
			} else {
				g, _, err = loadSession(cmd.Context(), cfg, nil)
			}
			if err != nil {
				return err
			}

			eng := engine.NewEngine(g, nil)
			eng.AIEvery = cfg.AIEvery()
			eng.AutosaveEvery = 0
			if err := eng.Start(); err != nil {
				return err
			}

			steps := uint64(duration.Seconds() * engine.TicksPerSecond)
			titleColor := color.New(color.FgCyan, color.Bold)
			titleColor.Printf("\nSimulating %s (%d ticks)...\n", duration, steps)

			start := time.Now()
			for range steps {
				eng.Step()
			}
			eng.Stop()
			fmt.Printf("Done in %s.\n", time.Since(start).Round(time.Millisecond))

			printSummary(os.Stdout, g.Snapshot())

			if save {
				if err := db.Save(cmd.Context(), cfg.SaveSlot, g.Export()); err != nil {
					return err
				}
				color.New(color.FgGreen, color.Bold).Printf("\n✓ Saved to slot %q\n", cfg.SaveSlot)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Minute, "game time to simulate")
	cmd.Flags().BoolVar(&resume, "resume", false, "continue from the stored slot")
	cmd.Flags().BoolVar(&save, "save", false, "store the result in the slot")
	return cmd
}

func statusCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session and save slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			slots, err := db.Slots(cmd.Context())
			if err != nil {
				return err
			}
			printSlots(os.Stdout, slots)
			if src, err := db.GetMeta("last_import"); err == nil {
				fmt.Printf("Last import: %s\n", src)
			}

			g, resumed, err := loadSession(cmd.Context(), cfg, db)
			if err != nil {
				return err
			}
			if !resumed {
				color.New(color.FgYellow).Printf("\nSlot %q is empty.\n", cfg.SaveSlot)
				return nil
			}
			printSummary(os.Stdout, g.Snapshot())
			return nil
		},
	}
}

func exportCmd(cfg *config.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored session to a compressed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			data, err := db.Load(cmd.Context(), cfg.SaveSlot)
			if err != nil {
				return fmt.Errorf("load %s: %w", cfg.SaveSlot, err)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := persistence.Export(f, data); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ Exported slot %q (tick %d) to %s\n", cfg.SaveSlot, data.Tick, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "roost.sav", "output file")
	return cmd
}

func importCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate a save file and store it in the slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			data, err := persistence.Import(f)
			if err != nil {
				return err
			}

			// Restoring once proves the save fits the current catalog.
			cat, err := catalog.Load(cfg.ContentPath)
			if err != nil {
				return err
			}
			g, err := engine.Restore(cat, entropy.New(cfg.Seed), engine.Options{Seed: cfg.Seed}, data)
			if err != nil {
				return err
			}

			db, err := openDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Save(cmd.Context(), cfg.SaveSlot, g.Export()); err != nil {
				return err
			}
			if err := db.SaveMeta("last_import", args[0]); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ Imported %s into slot %q (tick %d)\n", args[0], cfg.SaveSlot, data.Tick)
			return nil
		},
	}
	return cmd
}
