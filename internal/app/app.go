// Package app wires configuration, storage, locking and the installment
// service for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/installment-engine/internal/config"
	"github.com/segyhp/installment-engine/internal/lock"
	"github.com/segyhp/installment-engine/internal/logger"
	"github.com/segyhp/installment-engine/internal/migration"
	"github.com/segyhp/installment-engine/internal/notify"
	"github.com/segyhp/installment-engine/internal/repository"
	"github.com/segyhp/installment-engine/internal/service"
	customError "github.com/segyhp/installment-engine/pkg/errors"
)

type App struct {
	Config  *config.Config
	Log     *logger.Logger
	DB      *sqlx.DB
	Redis   redis.UniversalClient
	Service *service.InstallmentService
}

// Open connects to the database, brings the schema up to date and builds
// the service. Startup halts if any schema step fails.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := initDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	applied, err := migration.Migrate(ctx, db, log)
	if err != nil {
		db.Close()
		return nil, customError.WrapMigrationFailed(err)
	}
	if len(applied) > 0 {
		log.Infow("Schema evolutions applied", "ids", applied)
	}

	a := &App{
		Config: cfg,
		Log:    log,
		DB:     db,
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.Redis.Enabled {
		a.Redis = initRedis(cfg)
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedis(a.Redis, cfg.Redis.LockTTL, lock.WithLogger(log))
	}

	a.Service = service.NewInstallmentService(
		repository.NewStore(db),
		locker,
		notify.NewLogNotifier(log),
		cfg,
		log,
	)

	return a, nil
}

// Close releases the database and redis connections.
func (a *App) Close() error {
	if a.Redis != nil {
		a.Redis.Close()
	}
	return a.DB.Close()
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
