package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/skincare-planner/internal/cache"
	"github.com/magabrotheeeer/skincare-planner/internal/config"
	"github.com/magabrotheeeer/skincare-planner/internal/http/handlers/health"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/jwt"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/skincare-planner/internal/lib/sl"
	"github.com/magabrotheeeer/skincare-planner/internal/matching"
	"github.com/magabrotheeeer/skincare-planner/internal/migrations"
	"github.com/magabrotheeeer/skincare-planner/internal/rules"
	"github.com/magabrotheeeer/skincare-planner/internal/services/progress"
	"github.com/magabrotheeeer/skincare-planner/internal/services/recommendation"
	"github.com/magabrotheeeer/skincare-planner/internal/storage/repository"
)

// App HTTP-сервис планировщика со всеми открытыми соединениями.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *rabbitmq.Publisher

	consumerCh      *amqp.Channel
	consumerWorkers int
	onProfileUpdate rabbitmq.Handler
}

// New подключает хранилище, кэш и брокер, применяет миграции и собирает маршруты.
// Пустой rabbitmq.url отключает публикацию событий и чтение очереди profile.updated.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.planner.New"

	selector, err := NewSelector(cfg.FallbackRulePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	// Publisher передаётся интерфейсом: nil-указатель в интерфейсе не равен nil.
	var publisher recommendation.Publisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpConn = conn
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.RecommendationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = rabbitmq.NewPublisher(ch, cfg.Exchange)
		publisher = app.publisher

		app.consumerCh, err = conn.Channel()
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.consumerWorkers = cfg.Workers
	} else {
		logger.Warn("rabbitmq url is empty, recommendation events are disabled")
	}

	recommendationService := recommendation.NewService(db, cacheRedis, publisher, selector, cfg.CatalogCacheTTL, logger)
	progressService := progress.NewService(db, logger)
	app.onProfileUpdate = recommendationService.HandleProfileUpdated

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Recommendations: recommendationService,
		Progress:        progressService,
		Tokens:          jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		HealthChecks: map[string]health.Check{
			"postgres": func(ctx context.Context) error { return repository.CheckDatabaseReady(ctx, db) },
			"redis":    func(ctx context.Context) error { return cacheRedis.Db.Ping(ctx).Err() },
		},
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// NewSelector создает селектор правил. Если path задан, резервное правило берётся из секции
// fallback YAML-файла, иначе используется встроенное.
func NewSelector(path string) (*matching.Selector, error) {
	const op = "app.planner.NewSelector"
	fallback := matching.DefaultFallbackRule()
	if path != "" {
		file, err := rules.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if file.Fallback == nil {
			return nil, fmt.Errorf("%s: %s has no fallback section", op, path)
		}
		fallback = *file.Fallback
	}
	selector, err := matching.NewSelector(fallback)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return selector, nil
}

// Run запускает HTTP-сервер и чтение очереди profile.updated, останавливает их при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	var consumed <-chan struct{}
	if a.consumerCh != nil {
		var err error
		consumed, err = rabbitmq.ConsumeMessages(ctx, a.consumerCh, rabbitmq.ProfileUpdatedQueue, a.consumerWorkers, a.onProfileUpdate, a.logger)
		if err != nil {
			a.close()
			return err
		}
		a.logger.Info("consuming profile updates", slog.String("queue", rabbitmq.ProfileUpdatedQueue))
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if consumed != nil {
			select {
			case <-consumed:
			case <-timeoutCtx.Done():
				a.logger.Warn("profile update handlers did not finish before shutdown timeout")
			}
		}
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.consumerCh != nil {
		if err := a.consumerCh.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq consumer channel", sl.Err(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis client", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
}
