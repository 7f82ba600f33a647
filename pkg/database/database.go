package database

import (
	"fmt"
	"time"

	"learning_streak_backend/internal/config"
	"learning_streak_backend/internal/model"
	applog "learning_streak_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Dialector 根据 database.driver 构造 gorm 方言
func Dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.DBName,
			cfg.Charset,
			cfg.ParseTime,
		)
		return mysql.Open(dsn), nil
	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.DBName,
			cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("driver %q has no sql dialect", cfg.Driver)
	}
}

func InitDB(cfg *config.DatabaseConfig, migrate bool, logLevel logger.LogLevel) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	applog.Log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if migrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// Migrate 创建连续学习相关的四张表及唯一索引
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.UserStreak{},
		&model.StreakActivity{},
		&model.Badge{},
		&model.UserBadge{},
	)
	if err != nil {
		return err
	}

	applog.Log.Info("Database migration completed")
	return nil
}

// SeedBadges 将徽章目录写入 badges 表，已存在的徽章保持不变
func SeedBadges(db *gorm.DB, catalog []model.BadgeDefinition) (int64, error) {
	if len(catalog) == 0 {
		return 0, nil
	}

	rows := make([]model.Badge, 0, len(catalog))
	for _, def := range catalog {
		rows = append(rows, model.Badge{BadgeDefinition: def})
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "badge_name"}},
		DoNothing: true,
	}).Create(&rows)
	if result.Error != nil {
		return 0, result.Error
	}

	applog.Log.Info("Badge catalog seeded",
		zap.Int("catalog", len(catalog)),
		zap.Int64("inserted", result.RowsAffected))
	return result.RowsAffected, nil
}
