package setup

import (
	"context"
	"fmt"

	"github.com/itchan-dev/msgboard/backend/internal/cache"
	"github.com/itchan-dev/msgboard/backend/internal/handler"
	"github.com/itchan-dev/msgboard/backend/internal/service"
	"github.com/itchan-dev/msgboard/backend/internal/storage/memory"
	"github.com/itchan-dev/msgboard/backend/internal/storage/pg"
	"github.com/itchan-dev/msgboard/backend/internal/utils"
	"github.com/itchan-dev/msgboard/shared/config"
	"github.com/itchan-dev/msgboard/shared/logger"
)

// Storage is what a storage engine has to offer besides the thread
// primitives: a reachability check and a way to release its resources.
type Storage interface {
	service.ThreadStorage
	handler.HealthChecker
	Cleanup() error
}

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage Storage
	Cache   *cache.BoardCache // nil when caching is off
	Handler *handler.Handler
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	log := logger.Component("setup")

	storage, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("storage ready", "engine", cfg.Public.Storage)

	var (
		boardCache service.BoardCache
		cacheCheck handler.HealthChecker
		redisCache *cache.BoardCache
	)
	if cfg.CacheEnabled() {
		redis := cache.NewClient(cfg.Private.Redis.Addr, cfg.Private.Redis.Password, cfg.Private.Redis.DB)
		redisCache = cache.NewBoardCache(redis, cfg.Public.BoardCacheTTL)
		// an unreachable cache is not fatal, every lookup falls through to storage
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis unreachable, board cache will miss until it recovers", "addr", cfg.Private.Redis.Addr, "error", err)
		}
		boardCache = redisCache
		cacheCheck = redisCache
		log.Info("board cache enabled", "addr", cfg.Private.Redis.Addr, "ttl", cfg.Public.BoardCacheTTL)
	}

	thread := service.NewThread(
		storage,
		service.NewGuard(cfg.Public.BcryptCost),
		utils.New(),
		utils.NewTextSanitizer(),
		boardCache,
	)

	return &Dependencies{
		Config:  cfg,
		Storage: storage,
		Cache:   redisCache,
		Handler: handler.New(thread, storage, cacheCheck),
	}, nil
}

// Close releases storage and cache connections.
func (d *Dependencies) Close() {
	log := logger.Component("setup")
	if d.Cache != nil {
		if err := d.Cache.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}
	if err := d.Storage.Cleanup(); err != nil {
		log.Warn("failed to close storage", "error", err)
	}
}

func newStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Public.Storage {
	case config.StoragePostgres:
		storage, err := pg.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to init postgres storage: %w", err)
		}
		return storage, nil
	case config.StorageMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Public.Storage)
	}
}
