package database

import (
	"fmt"
	"intervention_backend/internal/config"
	"intervention_backend/internal/model"
	"intervention_backend/pkg/logger"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=UTC",
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
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
		return postgres.Open(dsn), nil
	case config.DriverSQLite:
		// 并发写入时等待锁，避免 SQLITE_BUSY
		return sqlite.Open(cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Open 只建立连接，不执行迁移
func Open(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}

	return gorm.Open(d, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
}

// Migrate 自动迁移数据表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Student{},
		&model.DailyLog{},
		&model.Intervention{},
	)
}

// InitDB 连接数据库并执行迁移和初始化数据
func InitDB(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	db, err := Open(cfg, debug)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("Database connection established", zap.String("driver", cfg.Driver))

	if err := Migrate(db); err != nil {
		return nil, err
	}
	logger.Log.Info("Database migration completed")

	if err := SeedStudents(db, cfg.SeedStudents); err != nil {
		return nil, err
	}
	return db, nil
}

// SeedStudents 按 "id:name" 初始化学生，已存在的不修改
func SeedStudents(db *gorm.DB, entries []string) error {
	for _, entry := range entries {
		id, name, ok := strings.Cut(entry, ":")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return fmt.Errorf("invalid seed student %q, want id:name", entry)
		}

		var existing []model.Student
		res := db.Where("id = ?", id).Limit(1).Find(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			continue
		}

		student := &model.Student{ID: id, Name: name, Status: model.StatusNormal}
		if err := db.Create(student).Error; err != nil {
			return err
		}
		logger.Log.Info("Seeded student", zap.String("studentId", id))
	}
	return nil
}
