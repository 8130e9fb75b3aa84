package history

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/relayd/relayd/internal/common/config"
	"github.com/relayd/relayd/internal/common/logger"
	"github.com/relayd/relayd/internal/db"
	"github.com/relayd/relayd/internal/db/dialect"
)

// Provide builds the configured history store.
func Provide(cfg config.DatabaseConfig, log *logger.Logger) (Store, func() error, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.DriverMemory:
		store := NewMemoryStore(cfg.HistoryLimit)
		log.Info("Message history store ready", zap.String("driver", config.DriverMemory))
		return store, store.Close, nil

	case config.DriverSQLite:
		writer, err := db.OpenSQLite(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite writer: %w", err)
		}
		reader, err := db.OpenSQLiteReader(cfg.Path)
		if err != nil {
			_ = writer.Close()
			return nil, nil, fmt.Errorf("failed to open sqlite reader: %w", err)
		}
		pool := db.NewPool(
			sqlx.NewDb(writer, dialect.SQLite3),
			sqlx.NewDb(reader, dialect.SQLite3),
		)
		store, err := NewSQLStore(pool)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Message history store ready",
			zap.String("driver", config.DriverSQLite),
			zap.String("path", cfg.Path))
		return store, store.Close, nil

	case config.DriverPostgres:
		conn, err := db.OpenPostgres(cfg.DSN(), cfg.MaxConns, cfg.MinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		// pgx pools internally, so writer and reader share one connection pool
		sdb := sqlx.NewDb(conn, dialect.PGX)
		pool := db.NewPool(sdb, sdb)
		store, err := NewSQLStore(pool)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Message history store ready",
			zap.String("driver", config.DriverPostgres),
			zap.String("host", cfg.Host),
			zap.String("dbname", cfg.DBName))
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
