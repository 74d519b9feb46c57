package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/JupyterEverywhere/sharing-service-sub000/internal/infrastructure/config"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const pingTimeout = 5 * time.Second

// Connect 建立存放 notebook metadata 的 PostgreSQL 連線池；未設定 DSN 時回傳 nil，由呼叫端改用記憶體儲存。
func Connect(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}

	pool, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	configurePool(pool, cfg)

	pingCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}
	if err := pool.PingContext(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Printf("[DB] connected (max_open=%d max_idle=%d)", cfg.MaxOpenConns, cfg.MaxIdleConns)
	return pool, nil
}

func configurePool(pool *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		pool.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		pool.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxIdleTime > 0 {
		pool.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}
}
