package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agenthands/roster/internal/config"
	"github.com/agenthands/roster/internal/driver"
	"github.com/agenthands/roster/internal/logging"
)

// Open builds the store named by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	log := logging.FromContext(ctx)
	switch cfg.Store.Backend {
	case "memory":
		log.Info().Msg("using in-memory store")
		return NewMemoryStore(), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Store.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
		s, err := NewSQLiteStore(cfg.Store.SQLitePath, cfg.Store.PageSize)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.Store.SQLitePath).Msg("using sqlite store")
		return s, nil
	case "memgraph":
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Memgraph: %w", err)
		}
		return NewGraphStore(ctx, d)
	}
	return nil, fmt.Errorf("unsupported store backend: %q", cfg.Store.Backend)
}
