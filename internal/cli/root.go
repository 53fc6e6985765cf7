// Package cli provides the command-line interface for the DCMA batch service.
// Every command runs against the batch folders named in the loaded config and
// holds the batch lock while it edits.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/dcma/internal/config"
	"github.com/JaimeStill/dcma/internal/documents"
	"github.com/JaimeStill/dcma/internal/history"
	"github.com/JaimeStill/dcma/internal/hocr"
	"github.com/JaimeStill/dcma/internal/ingest"
	"github.com/JaimeStill/dcma/internal/paths"
	"github.com/JaimeStill/dcma/internal/store"
	"github.com/JaimeStill/dcma/pkg/database"
	"github.com/JaimeStill/dcma/pkg/storage"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	configPath string

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func() error

	resolver   *paths.Resolver
	batchStore store.System
	docs       documents.System
	ocr        hocr.System
	intake     ingest.System

	// opened on first use by the history commands
	db database.System
)

var rootCmd = &cobra.Command{
	Use:   "dcma",
	Short: "Batch document management",
	Long: `dcma edits batch instances on disk: it ingests PDFs into batches,
restructures their documents and pages, generates OCR documents, and
manages stage checkpoints.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return setup()
	},
}

// Execute adds all child commands to the root command and runs it. The log
// file and database opened by the command are closed whether or not it fails.
func Execute() error {
	defer teardown()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default config.toml or $DCMA_CONFIG)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(checkpointsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(flagsCmd)
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(reorderCmd)
	rootCmd.AddCommand(duplicateCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(doctypeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(hocrCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(filesCmd)
	rootCmd.AddCommand(classCmd)
	rootCmd.AddCommand(webServicesCmd)
}

func setup() error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger, closeLog = cfg.Logging.NewLogger()

	resolver, err = paths.New(cfg.Folders)
	if err != nil {
		return fmt.Errorf("resolve folders: %w", err)
	}

	archive, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	batchStore = store.New(resolver, archive, logger)
	docs = documents.New(batchStore, resolver, cfg.Imaging, logger)
	ocr = hocr.New(batchStore, resolver, cfg.HOCR, logger)
	intake = ingest.New(batchStore, resolver, cfg.Imaging, nil, logger)
	return nil
}

func teardown() {
	if db != nil {
		if err := db.Connection().Close(); err != nil {
			logger.Warn("close database", "error", err)
		}
		db = nil
	}
	if closeLog != nil {
		if err := closeLog(); err != nil {
			fmt.Fprintln(os.Stderr, "close log file:", err)
		}
		closeLog = nil
	}
}

// historySystem opens the database on first use.
func historySystem() (history.System, error) {
	if db == nil {
		sys, err := database.New(&cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db = sys
	}
	return history.New(db.Connection(), logger, cfg.API.Pagination), nil
}

// withLock runs fn while holding the batch lock.
func withLock(batchID string, fn func() error) error {
	release, err := batchStore.Lock(batchID)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Error("batch lock not released", "batch_id", batchID, "error", err)
		}
	}()
	return fn()
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
