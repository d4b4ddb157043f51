// Command backfill seeds the transaction ledger from a JSON inventory
// snapshot. Every item becomes one add transaction.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"pantry/internal/backend"
	"pantry/internal/catalog"
	"pantry/internal/config"
	"pantry/internal/groupctx"
	"pantry/internal/ledger"
	applog "pantry/internal/log"
)

func main() {
	_ = godotenv.Load()

	var (
		file    = flag.String("file", "", "path to the JSON catalog snapshot (required)")
		userID  = flag.String("user", "", "user id to attribute the backfill to (required)")
		user    = flag.String("name", "", "display name for the user")
		groupID = flag.String("group", "", "group id to record into (empty for personal scope)")
	)
	flag.Parse()

	logger := applog.New(applog.Config{Component: applog.ComponentBackfill})
	applog.SetDefault(logger)

	if *file == "" || *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	ctx := context.Background()

	be, err := backend.Open(ctx, backend.Config{
		Type:            backend.Type(cfg.StoreBackend),
		SQLiteDBPath:    cfg.SQLiteDBPath,
		MongoURI:        cfg.MongoURI,
		MongoDatabase:   cfg.MongoDatabase,
		MongoCollection: cfg.MongoCollection,
	}, logger.Logger)
	if err != nil {
		logger.Error("Failed to initialize store backend", applog.FieldError, err, "backend", cfg.StoreBackend)
		os.Exit(1)
	}
	if be.Cleanup != nil {
		defer be.Cleanup()
	}

	groups := groupctx.Static{
		User:    groupctx.User{ID: *userID, Name: *user},
		GroupID: *groupID,
	}
	led := ledger.New(be.Store, nil, groups, nil, logger, ledger.Options{
		AllowedCategories: cfg.AllowedCategories,
		AllowedLocations:  cfg.AllowedLocations,
	})

	n, err := catalog.Backfill(ctx, catalog.FileSource{Path: *file}, led, logger)
	if err != nil {
		logger.Error("Backfill failed", applog.FieldError, err, applog.FieldCount, n)
		os.Exit(1)
	}

	logger.Info("Backfill finished", applog.FieldCount, n, applog.FieldGroupID, *groupID)
}
