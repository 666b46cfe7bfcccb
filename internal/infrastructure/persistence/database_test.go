package persistence

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newMockGorm opens GORM on the postgres dialector over a sqlmock connection
func newMockGorm(t *testing.T, opts ...sqlmock.QueryMatcherOption) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

// newSQLiteDB opens an in-memory database with the application schema
func newSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := gormConfig(databaseOptions{logger: zap.NewNop(), logLevel: gormlogger.Silent})
	cfg.PrepareStmt = false
	db, err := gorm.Open(sqlite.Open("file::memory:"), cfg)
	require.NoError(t, err)

	// one connection so every query sees the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.BillModel{},
		&models.PaymentModel{},
		&models.ResidentModel{},
		&models.AdminModel{},
	))
	return db
}

func TestDatabase_Ping(t *testing.T) {
	gormDB, mock, mockDB := newMockGorm(t)
	defer mockDB.Close()

	mock.ExpectPing()

	db := &Database{DB: gormDB}
	assert.NoError(t, db.Ping())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Stats(t *testing.T) {
	gormDB, _, mockDB := newMockGorm(t)
	defer mockDB.Close()

	stats, err := (&Database{DB: gormDB}).Stats()
	assert.NoError(t, err)
	assert.Equal(t, stats.OpenConnections, stats.InUse+stats.Idle)
}

func TestDatabase_Close(t *testing.T) {
	gormDB, mock, _ := newMockGorm(t)

	mock.ExpectClose()

	assert.NoError(t, (&Database{DB: gormDB}).Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormConfig_TranslatesErrors(t *testing.T) {
	cfg := gormConfig(databaseOptions{logger: zap.NewNop()})
	assert.True(t, cfg.TranslateError)
	assert.True(t, cfg.SkipDefaultTransaction)
}
