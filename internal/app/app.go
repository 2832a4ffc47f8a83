package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskManagement/internal/cache"
	"taskManagement/internal/config"
	"taskManagement/internal/handlers"
	"taskManagement/internal/logger"
	"taskManagement/internal/middleware"
	"taskManagement/internal/repository/inmemory"
	"taskManagement/internal/repository/mongodb"
	"taskManagement/internal/repository/postgres"
	"taskManagement/internal/service"
	"taskManagement/internal/telemetry"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.Repository // интерфейс!
	shutdowns  []func(context.Context) // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(context.Context), 0),
	}
}

// Init собирает зависимости. Ошибка подключения к хранилищу фатальна.
func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development, a.config.Logging.Level); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}
	a.onShutdown(func(context.Context) {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repo, err := a.openRepository(ctx)
	if err != nil {
		a.Shutdown(context.Background())
		return nil, fmt.Errorf("подключение к хранилищу: %w", err)
	}
	a.repository = a.withCache(ctx, repo)
	a.onShutdown(func(ctx context.Context) {
		if err := a.repository.Close(ctx); err != nil {
			logger.Error("Ошибка закрытия хранилища", err)
		}
	})

	taskHandler := handlers.NewTaskHandler(service.NewTaskService(a.repository))
	userHandler := handlers.NewUserHandler(service.NewUserService(a.repository))

	a.router = chi.NewRouter()
	a.router.Use(chimw.RealIP)
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logging)
	a.router.Use(chimw.Recoverer)
	a.router.Use(middleware.CORS(a.config.CORS.AllowedOrigins))
	a.router.Use(middleware.RateLimit(a.config.Server.RateLimit))
	handlers.RegisterRoutes(a.router, taskHandler, userHandler)

	tp, stopTracing := telemetry.Setup(a.config.Telemetry.Enabled)
	a.onShutdown(func(ctx context.Context) {
		if err := stopTracing(ctx); err != nil {
			logger.Error("Ошибка остановки трассировки", err)
		}
	})

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           telemetry.Handler(a.router, tp),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) openRepository(ctx context.Context) (service.Repository, error) {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		return postgres.New(ctx, postgres.Options{
			URL:            a.config.Postgres.URL,
			MaxConnections: a.config.Postgres.MaxConnections,
			MinConnections: a.config.Postgres.MinConnections,
			IdleTimeout:    a.config.Postgres.IdleTimeout,
		})
	case config.RepositoryInMemory:
		logger.Warn("Используется хранилище в памяти, данные не сохраняются между запусками")
		return inmemory.NewStorage(), nil
	default:
		return mongodb.New(ctx, a.config.MongoDB.URI, a.config.MongoDB.Database, a.config.MongoDB.ConnectTimeout)
	}
}

// withCache включает кэш списков. Недоступный Redis не мешает запуску.
func (a *App) withCache(ctx context.Context, repo service.Repository) service.Repository {
	if !a.config.Cache.Enabled {
		return repo
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.config.Cache.RedisAddr,
		Password: a.config.Cache.RedisPassword,
		DB:       a.config.Cache.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis недоступен, кэш будет пропускаться до восстановления",
			zap.String("addr", a.config.Cache.RedisAddr),
			zap.Error(err))
	}
	logger.Info("Кэш списков задач включён", zap.Duration("ttl", a.config.Cache.TTL))
	return cache.New(repo, client, a.config.Cache.TTL)
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер
func (a *App) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info(fmt.Sprintf("Server is running on port: %d", a.config.Server.Port))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		err := a.server.Shutdown(shutdownCtx)
		a.Shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("остановка http сервера: %w", err)
		}
		return nil
	})

	return group.Wait()
}

func (a *App) onShutdown(fn func(context.Context)) {
	a.shutdowns = append(a.shutdowns, fn)
}

func (a *App) Shutdown(ctx context.Context) {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i](ctx)
	}
	a.shutdowns = nil
}
