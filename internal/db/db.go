package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var conn *gorm.DB

// InitMySQL opens the MySQL connection. TranslateError is enabled so
// unique-constraint violations surface as gorm.ErrDuplicatedKey and can be
// handled without a prior existence check.
func InitMySQL(dsn string) error {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	conn = db
	return nil
}

// DB returns the shared database handle.
func DB() *gorm.DB {
	return conn
}

// Close closes the underlying database connection.
func Close() error {
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
