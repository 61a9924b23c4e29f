package config

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	WebshopDB   *pgxpool.Pool
	WebshopGorm *gorm.DB
)

// InitDB opens the pgx pool and a GORM handle that shares it.
func InitDB(cfg *Config) {
	initPgx(cfg)
	initGORM(cfg)
}

func (d DatabaseConfig) dsn() string {
	if d.URL != "" {
		return d.URL
	}
	log.Println("⚠️ WEBSHOP_DB_URL not set, using local default")
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

func initPgx(cfg *Config) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.dsn())
	if err != nil {
		log.Fatalf("❌ Invalid webshop database URL: %v", err)
	}
	poolCfg.MaxConns = int32(cfg.Database.MaxConns)
	poolCfg.MinConns = int32(cfg.Database.MinConns)
	poolCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	ctx, cancel := WithTimeout()
	defer cancel()

	WebshopDB, err = pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatalf("❌ Unable to connect to webshop database: %v", err)
	}
	if err = WebshopDB.Ping(ctx); err != nil {
		log.Fatalf("❌ Webshop database ping failed: %v", err)
	}
	log.Println("✅ Webshop database connected (pgx)")
}

func initGORM(cfg *Config) {
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.IsProduction() {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	var err error
	WebshopGorm, err = gorm.Open(postgres.New(postgres.Config{
		Conn: stdlib.OpenDBFromPool(WebshopDB),
	}), &gorm.Config{
		Logger:  gormLogger,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Fatalf("❌ Failed to open webshop database with GORM: %v", err)
	}
	log.Println("✅ Webshop database connected (GORM)")
}

// PingDB checks the pool; used by the health endpoint.
func PingDB(ctx context.Context) error {
	if WebshopDB == nil {
		return nil
	}
	return WebshopDB.Ping(ctx)
}

func CloseDB() {
	if WebshopGorm != nil {
		if sqlDB, _ := WebshopGorm.DB(); sqlDB != nil {
			sqlDB.Close()
			log.Println("✅ Webshop database connection closed (GORM)")
		}
	}
	if WebshopDB != nil {
		WebshopDB.Close()
		log.Println("✅ Webshop database connection closed (pgx)")
	}
}

// WithTimeout returns a context with a 10s timeout.
func WithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
