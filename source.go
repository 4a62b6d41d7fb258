package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"circulation-analytics/internal/circulation"
	"circulation-analytics/internal/store/csvstore"
	"circulation-analytics/internal/store/sqlstore"
)

// source is an opened circulation backend plus the hooks main needs after a run.
type source struct {
	store   circulation.Store
	skipped func() int
	close   func() error
}

// openSource picks a backend from the location: a database URL opens
// sqlstore, an existing directory opens csvstore. With initSQLite the SQLite
// database is created and seeded with demo data first.
func openSource(ctx context.Context, location string, schema string, initSQLite bool, today time.Time, logger *zerolog.Logger) (*source, error) {
	if location == "" {
		return nil, errors.New("-source is required")
	}

	if sqlstore.IsSQLSource(location) {
		store, err := sqlstore.Open(ctx, location, schema)
		if err != nil {
			return nil, err
		}
		if initSQLite {
			if store.Driver() != sqlstore.DriverSQLite {
				store.Close()
				return nil, errors.New("-init-sqlite needs a sqlite:// source")
			}
			seeded, err := store.Seed(ctx, today)
			if err != nil {
				store.Close()
				return nil, fmt.Errorf("seed sqlite: %w", err)
			}
			logger.Info().Bool("seeded", seeded).Str("source", location).Msg("sqlite source initialized")
		}
		return &source{
			store:   store,
			skipped: func() int { return 0 },
			close:   store.Close,
		}, nil
	}

	if initSQLite {
		return nil, errors.New("-init-sqlite needs a sqlite:// source")
	}
	info, err := os.Stat(location)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %q is neither a database URL nor a directory", circulation.ErrUnknownSource, location)
	}
	store, err := csvstore.New(location)
	if err != nil {
		return nil, err
	}
	return &source{
		store:   store,
		skipped: store.Skipped,
		close:   func() error { return nil },
	}, nil
}
