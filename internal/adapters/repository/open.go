package repository

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// OpenGorm opens a database handle for driver and dsn. Driver errors are
// translated so unique violations surface as gorm.ErrDuplicatedKey.
func OpenGorm(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite serializes writers; a single connection also keeps
		// in-memory databases alive for the life of the handle.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", driver, err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// NewSQLStore opens driver/dsn and optionally migrates the schema.
func NewSQLStore(ctx context.Context, driver, dsn string, migrate bool, opts ...Option) (*GormStore, error) {
	db, err := OpenGorm(driver, dsn)
	if err != nil {
		return nil, err
	}
	s := NewGormStore(db, opts...)
	if migrate {
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
