package db

import (
	"Gin_postgres_redis_loan_tracker/models"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open picks the driver from the DSN: postgres:// URLs and key=value DSNs go to
// Postgres, anything else is treated as a SQLite path or file: URI.
func Open(dsn string, lg *zap.Logger, level gormlogger.LogLevel) (*gorm.DB, error) {
	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(level)}

	if isPostgresDSN(dsn) {
		lg.Info("connecting to postgres")
		conn, err := gorm.Open(postgres.Open(dsn), cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return conn, nil
	}

	lg.Info("using sqlite", zap.String("dsn", dsn))
	conn, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has no row locks; one connection serialises every transaction.
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return conn, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Equipment{}, &models.LoanRequest{}, &models.LoanItem{}, &models.LoanEvent{}); err != nil {
		return err
	}

	// approval queue: pending requests oldest first
	return db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_status_created_at
	  ON %s (status, created_at);
	`, models.LoanRequestTable, models.LoanRequestTable)).Error
}
