package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Freeeeeet/consultation_scheduler/internal/cache"
	"github.com/Freeeeeet/consultation_scheduler/internal/config"
	"github.com/Freeeeeet/consultation_scheduler/internal/controller/rest"
	"github.com/Freeeeeet/consultation_scheduler/internal/notify"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository"
	"github.com/Freeeeeet/consultation_scheduler/internal/repository/memory"
	"github.com/Freeeeeet/consultation_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	expiryInterval  = 24 * time.Hour
	shutdownTimeout = 15 * time.Second
)

// App собирает зависимости сервиса и управляет их жизненным циклом
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	pool      *pgxpool.Pool
	redis     *redis.Client
	scheduler *Scheduler
	server    *http.Server
}

// New создаёт приложение. При STORAGE=postgres применяет миграции, если migrate=true.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	var (
		rules    service.RuleRepository
		bookings service.BookingRepository
	)

	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		rules, bookings = memory.NewRuleStore(), memory.NewBookingStore()
	default:
		pool, err := OpenPool(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		a.pool = pool

		if migrate {
			if err := a.migrate(ctx); err != nil {
				a.Close()
				return nil, err
			}
		}

		rules = repository.NewRuleRepository(pool, logger)
		bookings = repository.NewBookingRepository(pool)
	}

	var slotCache service.SlotCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redis = rdb
		slotCache = cache.NewRedisSlotCache(rdb, cfg.SlotCacheTTL)
		logger.Info("Slot cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.SlotCacheTTL))
	}

	var notifier service.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		notifier = tg
	}

	today := service.TodayIn(cfg.Location())

	scheduleService := service.NewScheduleService(rules, slotCache, today, logger)
	slotService := service.NewSlotService(rules, bookings, slotCache, today, logger)
	bookingService := service.NewBookingService(rules, bookings, notifier, today, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := rest.NewRouter(
		rest.RouterConfig{
			JWTSecret:      []byte(cfg.JWTSecret),
			AllowedOrigins: cfg.AllowedOrigins,
		},
		scheduleService,
		slotService,
		bookingService,
		logger,
	)

	a.scheduler = NewScheduler(scheduleService, expiryInterval, logger)
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run обслуживает HTTP до отмены ctx, затем корректно останавливает сервер
func (a *App) Run(ctx context.Context) error {
	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

// Close освобождает соединения с базой и Redis
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func (a *App) migrate(ctx context.Context) error {
	migrator, err := NewMigrator(a.pool, a.logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Run(ctx)
}

// OpenPool подключается к Postgres и проверяет соединение
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
