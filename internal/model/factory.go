package model

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/entity"
	"stockroom/internal/model/sql"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DBTypeMySQL    = "mysql"
	DBTypeSQLite   = "sqlite"
	DBTypePostgres = "postgres"
)

// InitRepository 按配置打开数据库、迁移表结构并返回仓库实现。
func InitRepository(cfg *config.Config) (Repository, error) {
	if cfg.DBType == "" {
		return nil, fmt.Errorf("database type not configured")
	}

	dialector, err := buildDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := openGormDB(dialector)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.DBType, err)
	}

	if err := db.AutoMigrate(&entity.DbUser{}, &entity.DbInventoryItem{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return sql.NewGormRepository(db), nil
}

func buildDialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBType {
	case DBTypeMySQL:
		return mysql.Open(mysqlDSN(cfg)), nil
	case DBTypePostgres:
		return postgres.Open(postgresDSN(cfg)), nil
	case DBTypeSQLite:
		filePath, err := ensureSQLitePath(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return sqlite.Open(filePath), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.DBType)
	}
}

func mysqlDSN(cfg *config.Config) string {
	if cfg.DSNURL != "" {
		return cfg.DSNURL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.DBUser, cfg.DBPassword, cfg.DBAddr, cfg.DBPort, cfg.DBName)
}

func postgresDSN(cfg *config.Config) string {
	if cfg.DSNURL != "" {
		return cfg.DSNURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBAddr, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
}

// ensureSQLitePath 确保数据库文件所在目录存在。
// SQLite 会在连接时自动创建 .db 文件，但前提是目录已存在。
func ensureSQLitePath(filePath string) (string, error) {
	if filePath == "" {
		filePath = "datas/stockroom.db"
	}
	if dir := filepath.Dir(filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}
	return filePath, nil
}

func openGormDB(dialector gorm.Dialector) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(log.Writer(), "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second * 5,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true, // 使用单数表名
		},
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}
