package store

import (
	"context"
	"fmt"

	"github.com/TimurManjosov/segmentd/internal/config"
	"github.com/TimurManjosov/segmentd/internal/db"
)

// New creates a Store based on the configured backend type.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreType {
	case "memory":
		return NewMemoryStore(), nil

	case "file":
		return NewFileStore(cfg.SegmentsFile)

	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		pg := NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure segments schema: %w", err)
		}
		return pg, nil

	default:
		return nil, fmt.Errorf("unknown store type %q (want memory, file, or postgres)", cfg.StoreType)
	}
}
