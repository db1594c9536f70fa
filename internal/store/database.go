package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zhouzirui/rizzmate/backend/internal/config"
	"github.com/zhouzirui/rizzmate/backend/internal/model/credit"
)

// Open 根据配置打开数据库连接。
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Driver {
	case "postgres":
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormCfg)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Println("[store] connected to postgres")
		return db, nil
	case "sqlite", "":
		dsn := cfg.DSN
		if dsn == "" || dsn == "memory" {
			dsn = "file::memory:?cache=shared"
		}
		db, err := gorm.Open(sqlite.Open(dsn), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("connect sqlite %q: %w", dsn, err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sqlite handle: %w", err)
		}
		// sqlite 只允许单写者，串行化连接避免 "database is locked"。
		sqlDB.SetMaxOpenConns(1)
		log.Printf("[store] opened sqlite database %s", dsn)
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate creates or updates the profile and transaction tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&credit.Account{}, &credit.Transaction{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
