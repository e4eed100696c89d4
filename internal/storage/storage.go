package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"sudooom.im.rolebot/internal/config"
	"sudooom.im.rolebot/internal/lock"
	"sudooom.im.rolebot/internal/repository"
	"sudooom.im.rolebot/internal/repository/memory"
	"sudooom.im.rolebot/internal/repository/postgres"
	imRedis "sudooom.im.rolebot/internal/repository/redis"
)

const (
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Backend 打开的存储驱动，DB / Redis 仅在对应驱动下非空
type Backend struct {
	repository.Store
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// Open 按配置打开存储，整个进程只打开一次
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	logger := slog.Default()

	switch cfg.Storage.Driver {
	case DriverPostgres:
		db, err := postgres.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
		}
		logger.Info("Connected to PostgreSQL", "host", cfg.Database.Host)
		return &Backend{
			Store: repository.Store{
				Users: postgres.NewUserRepository(db),
				Roles: postgres.NewRoleRepository(db),
				Close: db.Close,
			},
			DB: db,
		}, nil

	case DriverRedis:
		client, err := imRedis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		logger.Info("Connected to Redis", "host", cfg.Redis.Host)
		store := imRedis.NewStore(client, lock.NewRedisLocker(client, cfg.Storage.LockTTL, cfg.Storage.LockRetry))
		return &Backend{
			Store: repository.Store{
				Users: store,
				Roles: store,
				Close: func() { _ = client.Close() },
			},
			Redis: client,
		}, nil

	case DriverMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &Backend{
			Store: repository.Store{
				Users: store,
				Roles: store,
				Close: func() {},
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", repository.ErrUnknownDriver, cfg.Storage.Driver)
}
