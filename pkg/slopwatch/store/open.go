package store

import (
	"context"
	"fmt"

	"github.com/cognicore/slopwatch/pkg/slopwatch/internalerr"
	"github.com/cognicore/slopwatch/pkg/slopwatch/store/memstore"
	"github.com/cognicore/slopwatch/pkg/slopwatch/store/postgres"
	"github.com/cognicore/slopwatch/pkg/slopwatch/store/sqlite"
)

// Open returns the BlobStore for driver: "memory", "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (BlobStore, error) {
	switch driver {
	case "", "memory":
		return memstore.New(), nil
	case "sqlite":
		if dsn == "" {
			return nil, fmt.Errorf("%w: sqlite store requires a path", internalerr.ErrInvalidConfig)
		}
		return sqlite.Open(ctx, dsn)
	case "postgres", "pgx":
		if dsn == "" {
			return nil, fmt.Errorf("%w: postgres store requires a DSN", internalerr.ErrInvalidConfig)
		}
		return postgres.Open(ctx, dsn)
	}
	return nil, fmt.Errorf("%w: unknown store driver %q", internalerr.ErrInvalidConfig, driver)
}
