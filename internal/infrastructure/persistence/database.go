package persistence

import (
	"fmt"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/infrastructure/config"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// DatabaseOption customises how the connection is opened
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
	fullSQL       bool
}

// WithZapLogger routes GORM logs through zap at the given level
func WithZapLogger(l *zap.Logger, level gormlogger.LogLevel) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = l
		o.logLevel = level
	}
}

// WithSlowQueryThreshold sets when a query is logged as slow
func WithSlowQueryThreshold(d time.Duration) DatabaseOption {
	return func(o *databaseOptions) {
		o.slowThreshold = d
	}
}

// WithFullSQL logs SQL statements with their bound values
func WithFullSQL(enabled bool) DatabaseOption {
	return func(o *databaseOptions) {
		o.fullSQL = enabled
	}
}

// NewDatabase opens a PostgreSQL connection pool configured from cfg
func NewDatabase(cfg *config.DatabaseConfig, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{
		logger:        zap.NewNop(),
		logLevel:      gormlogger.Silent,
		slowThreshold: 200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(o))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db}, nil
}

// gormConfig enables TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey on every dialect.
func gormConfig(o databaseOptions) *gorm.Config {
	return &gorm.Config{
		Logger: logger.NewGormLogger(o.logger, o.logLevel,
			logger.WithSlowThreshold(o.slowThreshold),
			logger.WithFullSQL(o.fullSQL)),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	}
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}
