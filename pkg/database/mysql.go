package database

import (
	"fmt"

	"linkcycle/internal/config"
	"linkcycle/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitMySQL opens the MySQL connection and migrates the schema.
// TranslateError is required: the store relies on gorm.ErrDuplicatedKey
// to detect code collisions.
func InitMySQL(cfg *config.DB) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	if err := db.AutoMigrate(&model.LinkRecord{}, &model.User{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return db, nil
}
