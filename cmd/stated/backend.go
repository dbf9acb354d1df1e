package main

import (
	"context"
	"database/sql"
	"fmt"

	"hotelstay/internal/adapters/memkv"
	redisad "hotelstay/internal/adapters/redis"
	"hotelstay/internal/domain"
	"hotelstay/internal/shared"
	"hotelstay/internal/storage/sqlkv"
)

// openBackend returns the plaintext durable store for the configured driver
// and a func that releases it.
func openBackend(ctx context.Context, cfg shared.Config) (domain.KV, func(), error) {
	switch cfg.StorageDriver {
	case "memory":
		return memkv.New(), func() {}, nil

	case "redis":
		kv := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.RedisPrefix)
		if err := kv.Ping(ctx); err != nil {
			_ = kv.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return kv, func() { _ = kv.Close() }, nil

	case "mysql":
		db, err := sql.Open(string(sqlkv.MySQL), cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		return migrated(ctx, db, sqlkv.MySQL)

	default:
		db, err := sqlkv.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return migrated(ctx, db, sqlkv.SQLite)
	}
}

func migrated(ctx context.Context, db *sql.DB, d sqlkv.Dialect) (domain.KV, func(), error) {
	repo := sqlkv.New(db, d)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", d, err)
	}
	return repo, func() { db.Close() }, nil
}
