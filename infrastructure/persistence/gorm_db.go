package persistence

import (
	"database/sql"
	"fmt"

	"pin-scheduler/infrastructure/configuration"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewGormMySQL opens MySQL through gorm.
func NewGormMySQL(cfg configuration.Db) (*gorm.DB, error) {
	dsn := cfg.URL
	if dsn == "" {
		port := cfg.Port
		if port == "" {
			port = "3306"
		}
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", cfg.User, cfg.Password, cfg.Host, port, cfg.Name)
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// PrepareGorm migrates the gorm-backed tables and returns the pool behind db.
// The pool is closed when migration fails.
func PrepareGorm(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := EnsurePinSchemaGorm(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}
