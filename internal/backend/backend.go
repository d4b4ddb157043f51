// Package backend selects and constructs the durable transaction store.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"pantry/internal/store"
	"pantry/internal/store/memory"
	mongostore "pantry/internal/store/mongo"
	sqlitestore "pantry/internal/store/sqlite"
)

const (
	MemoryBackend Type = "memory"
	SQLiteBackend Type = "sqlite"
	MongoBackend  Type = "mongo"
)

type (
	Type string

	// Config holds what is needed to construct any supported backend.
	Config struct {
		Type            Type
		SQLiteDBPath    string
		MongoURI        string
		MongoDatabase   string
		MongoCollection string
	}

	// CleanupFunc releases backend resources on shutdown.
	CleanupFunc func() error

	// Result contains the store and its optional cleanup.
	Result struct {
		Store   store.TransactionStore
		Cleanup CleanupFunc
	}
)

func (t Type) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend, MongoBackend:
		return true
	}
	return false
}

// Open constructs the transaction store described by config.
func Open(ctx context.Context, config Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		repo, err := sqlitestore.NewRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil

	case MongoBackend:
		st, err := mongostore.New(ctx, config.MongoURI, config.MongoDatabase, config.MongoCollection)
		if err != nil {
			return nil, fmt.Errorf("initialize mongo store: %w", err)
		}
		logger.Info("Initialized MongoDB backend",
			"database", config.MongoDatabase,
			"collection", config.MongoCollection)
		return &Result{
			Store:   st,
			Cleanup: func() error { return st.Close(context.Background()) },
		}, nil

	default:
		logger.Info("Initialized memory backend")
		return &Result{Store: memory.New()}, nil
	}
}
