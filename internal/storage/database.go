package storage

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reunion/internal/config"
	"reunion/internal/logging"
	"reunion/internal/models"
)

// InitDB initializes the database connection using the provided configuration.
// Unique-constraint violations are translated to gorm.ErrDuplicatedKey.
func InitDB(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logging.GormLogger(cfg.LogLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"type": cfg.Type,
		"host": cfg.Host,
		"db":   cfg.DBName,
	}).Info("database connection established")
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case "postgres":
		var dsnParts []string
		dsnParts = append(dsnParts, fmt.Sprintf("host=%s", cfg.Host))
		dsnParts = append(dsnParts, fmt.Sprintf("port=%d", cfg.Port))
		dsnParts = append(dsnParts, fmt.Sprintf("user=%s", cfg.User))
		dsnParts = append(dsnParts, fmt.Sprintf("dbname=%s", cfg.DBName))
		if cfg.Password != "" {
			dsnParts = append(dsnParts, fmt.Sprintf("password=%s", cfg.Password))
		}
		dsnParts = append(dsnParts, fmt.Sprintf("sslmode=%s", cfg.SSLMode))
		return postgres.Open(strings.Join(dsnParts, " ")), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite database requires a path")
		}
		return sqlite.Open(SQLiteDSN(cfg.Path)), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// SQLiteDSN appends the pragmas the schema relies on to a sqlite path or URI.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=1&_busy_timeout=5000"
}

// AutoMigrateTables runs GORM's auto-migration feature for all defined models.
func AutoMigrateTables(db *gorm.DB) error {
	logrus.Info("开始数据库表结构迁移...")
	err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.FriendRequest{},
		&models.Friendship{},
	)
	if err != nil {
		logrus.WithError(err).Error("数据库迁移失败")
		return fmt.Errorf("数据库迁移失败: %w", err)
	}
	if err := backfillProfileNameFolds(db); err != nil {
		return err
	}
	logrus.Info("数据库迁移完成。")
	return nil
}

// backfillProfileNameFolds fills the folded name columns of rows written
// before those columns existed.
func backfillProfileNameFolds(db *gorm.DB) error {
	var stale []models.Profile
	if err := db.Where("firstname_fold = '' AND firstname <> ''").Find(&stale).Error; err != nil {
		return fmt.Errorf("load profiles to backfill: %w", err)
	}
	for i := range stale {
		if err := db.Save(&stale[i]).Error; err != nil {
			return fmt.Errorf("backfill profile %q: %w", stale[i].Username, err)
		}
	}
	if len(stale) > 0 {
		logrus.WithField("profiles", len(stale)).Info("profile name folds backfilled")
	}
	return nil
}
