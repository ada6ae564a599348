package storage

import (
	"fmt"
	"log/slog"

	"github.com/IshaanNene/PostPulse/internal/config"
	"github.com/IshaanNene/PostPulse/internal/types"
)

// Storage is the interface for all storage backends.
type Storage interface {
	// Store persists a batch of posts.
	Store(posts []*types.Post) error

	// Close flushes pending writes and releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// New creates the backend selected by cfg.Type. File backends write
// <output_path>/<baseName>.<ext>; columns fixes the CSV header and may be nil.
// When cfg.Type names several backends the result fans out to all of them.
func New(cfg config.StorageConfig, baseName string, columns types.FieldSet, logger *slog.Logger) (Storage, error) {
	kinds := cfg.Types()
	switch len(kinds) {
	case 0:
		return nil, fmt.Errorf("unsupported storage type: %q", cfg.Type)
	case 1:
		return newBackend(kinds[0], cfg, baseName, columns, logger)
	}

	backends := make([]Storage, 0, len(kinds))
	for _, kind := range kinds {
		b, err := newBackend(kind, cfg, baseName, columns, logger)
		if err != nil {
			for _, built := range backends {
				_ = built.Close()
			}
			return nil, err
		}
		backends = append(backends, b)
	}
	return NewMultiStorage(backends, logger), nil
}

func newBackend(kind string, cfg config.StorageConfig, baseName string, columns types.FieldSet, logger *slog.Logger) (Storage, error) {
	switch kind {
	case "mongodb":
		return NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, logger)
	case "json", "jsonl", "csv":
		return NewFileStorage(kind, cfg.OutputPath, baseName, columns, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", kind)
	}
}

func storageErr(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &types.StorageError{Backend: backend, Err: err}
}
