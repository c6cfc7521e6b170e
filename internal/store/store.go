package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/drewfead/cip/internal/apperrors"
	"github.com/drewfead/cip/internal/core"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const insertBatchSize = 500

// Store is the relational snapshot of one ingestion run.
type Store struct {
	db  *gorm.DB
	loc *time.Location
}

// Open connects to the store. For sqlite, dsn is a file path whose parent
// directory is created if needed; foreign keys are enforced.
func Open(driver, dsn string, loc *time.Location) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		if dir := filepath.Dir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &apperrors.PersistenceError{Op: "open", Err: err}
			}
		}
		dialector = sqlite.Open(sqliteDSN(dsn))
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, &apperrors.PersistenceError{Op: "open", Err: fmt.Errorf("unsupported driver %q", driver)}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, &apperrors.PersistenceError{Op: "open", Err: err}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Store{db: db, loc: loc}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Replace discards every previous row and writes the catalog and seances in a
// single transaction. On failure nothing of the new snapshot is visible.
func (s *Store) Replace(ctx context.Context, cinemas []core.Cinema, films []core.Film, seances []core.Seance) error {
	ctx, span := otel.Tracer("store").Start(ctx, "replace")
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range dropTables {
			if err := tx.Exec(stmt).Error; err != nil {
				return &apperrors.PersistenceError{Op: "drop schema", Err: err}
			}
		}
		for _, stmt := range createTables {
			if err := tx.Exec(stmt).Error; err != nil {
				return &apperrors.PersistenceError{Op: "create schema", Err: err}
			}
		}

		if err := insert(tx, "cinemas", cinemaRows(cinemas)); err != nil {
			return err
		}
		zap.L().Info("Inserted cinemas", zap.Int("count", len(cinemas)))
		if err := insert(tx, "films", filmRows(films)); err != nil {
			return err
		}
		zap.L().Info("Inserted films", zap.Int("count", len(films)))
		if err := insert(tx, "seances", seanceRows(seances, s.loc)); err != nil {
			return err
		}
		zap.L().Info("Inserted seances", zap.Int("count", len(seances)))
		return nil
	})
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// Drop removes the tables of a store.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range dropTables {
			if err := tx.Exec(stmt).Error; err != nil {
				return &apperrors.PersistenceError{Op: "drop schema", Err: err}
			}
		}
		return nil
	})
}

// Delete wipes the store: the database file for sqlite, the tables otherwise.
// A store that does not exist is not an error.
func Delete(ctx context.Context, driver, dsn string) error {
	if driver == DriverSQLite || driver == "" {
		if err := os.Remove(dsn); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &apperrors.PersistenceError{Op: "delete", Err: err}
		}
		return nil
	}
	s, err := Open(driver, dsn, nil)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Drop(ctx)
}

func insert[T any](tx *gorm.DB, what string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(rows, insertBatchSize).Error; err != nil {
		return &apperrors.PersistenceError{Op: "insert " + what, Err: err}
	}
	return nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&_foreign_keys=on"
	}
	return path + "?_foreign_keys=on"
}
