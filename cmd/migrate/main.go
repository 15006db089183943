package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dvloznov/expense-analyzer/internal/logger"
	"github.com/dvloznov/expense-analyzer/internal/store"
)

var (
	fromBackend = flag.String("from", store.BackendBolt, "Source backend (bolt | sqlite)")
	fromPath    = flag.String("from-path", "expenses.db", "Source store path")
	toBackend   = flag.String("to", store.BackendSQLite, "Destination backend (bolt | sqlite)")
	toPath      = flag.String("to-path", "expenses.sqlite", "Destination store path")
	dryRun      = flag.Bool("dry-run", false, "Count and checksum the source without writing")
)

// validateFlags rejects copies that would read and write the same file.
func validateFlags(from, fromP, to, toP string) error {
	if from == store.BackendMemory || to == store.BackendMemory {
		return fmt.Errorf("the memory backend cannot be migrated")
	}
	if fromP == "" || toP == "" {
		return fmt.Errorf("both -from-path and -to-path are required")
	}
	if fromP == toP {
		return fmt.Errorf("source and destination are the same file: %s", fromP)
	}
	return nil
}

func main() {
	flag.Parse()

	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	if err := validateFlags(*fromBackend, *fromPath, *toBackend, *toPath); err != nil {
		log.Fatal().Err(err).Msg("Invalid flags")
	}
	if _, err := os.Stat(*fromPath); err != nil {
		log.Fatal().Err(err).Str("path", *fromPath).Msg("Source store not found")
	}

	src, err := store.Open(*fromBackend, *fromPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open source store")
	}
	defer src.Close()

	dst, err := store.Open(*toBackend, *toPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open destination store")
	}
	defer dst.Close()

	log.Info().
		Str("from", *fromBackend+":"+*fromPath).
		Str("to", *toBackend+":"+*toPath).
		Bool("dry_run", *dryRun).
		Msg("Migrating store")

	res, err := store.Copy(ctx, src, dst, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Int("copied", res.Copied).Msg("Migration failed")
	}

	log.Info().
		Int("keys", res.Copied).
		Str("checksum", res.Checksum).
		Msg("Migration completed")
}
