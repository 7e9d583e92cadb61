package database

import (
	"context"
	"fmt"
	"time"

	"cafeledger/internal/config"
	"cafeledger/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewConnection initializes a new connection pool using GORM and migrates the schema.
func NewConnection(cfg config.DatabaseConfig, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Auto-migrate core models
	if err := db.AutoMigrate(
		&model.Product{},
		&model.RawItem{},
		&model.ProductAddon{},
		&model.Recipe{},
		&model.RecipeActivation{},
		&model.Order{},
		&model.OrderItem{},
		&model.StockMovement{},
		&model.AccountingSnapshot{},
		&model.TaxRule{},
		&model.TaxInvoice{},
		&model.TaxInvoiceLine{},
		&model.AuditLog{},
	); err != nil {
		// the invoice chain relies on its unique indexes, so a failed migration is fatal
		return nil, fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	log.WithField("max_open_conns", cfg.MaxOpenConns).Info("connected to PostgreSQL")

	return db, nil
}

// NewRedis connects to Redis when url is set; a nil client means the in-process lock is used.
func NewRedis(ctx context.Context, url string, log logrus.FieldLogger) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	log.WithField("addr", opts.Addr).Info("connected to Redis")
	return rdb, nil
}
