package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/student-dashboard/internal/cache"
	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/service"
)

// Store is an opened record store, the statistics cache shared by every
// process writing to it, and the functions that release their connections.
type Store struct {
	Students repository.Store
	cache    *cache.StatisticsCache
	closers  []func()
}

// StatisticsCache returns the shared statistics cache, or nil when Redis is
// not configured.
func (s *Store) StatisticsCache() service.StatisticsCache {
	if s.cache == nil {
		return nil
	}
	return s.cache
}

// Close releases the underlying connections, the cache first.
func (s *Store) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStore connects to the backend selected by cfg.DatabaseDriver and, when
// REDIS_URL is set, to the statistics cache. Every entrypoint that writes
// records opens its store here so writes invalidate the same cache the
// server reads.
// SQLite tables are created on the fly; PostgreSQL expects cmd/migrate to
// have been run.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	store, err := openRecords(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	rdb, err := NewRedisClient(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	if rdb != nil {
		store.cache = cache.NewStatisticsCache(rdb, cfg.StatsCacheTTL, log)
		store.closers = append(store.closers, func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Redis")
			}
		})
	}
	return store, nil
}

func openRecords(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return &Store{
			Students: repository.NewStudentRepository(pool),
			closers:  []func(){pool.Close},
		}, nil

	case config.DriverSQLite:
		db, err := NewSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		repo := repository.NewSQLiteStudentRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			_ = CloseSQLite(db)
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return &Store{
			Students: repo,
			closers: []func(){func() {
				if err := CloseSQLite(db); err != nil {
					log.Error().Err(err).Msg("Failed to close SQLite")
				}
			}},
		}, nil

	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q", cfg.DatabaseDriver)
	}
}
