package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/SwetabhSingh17/APMS-sub001/internal/auth"
	"github.com/SwetabhSingh17/APMS-sub001/internal/config"
	"github.com/SwetabhSingh17/APMS-sub001/internal/database"
	"github.com/SwetabhSingh17/APMS-sub001/internal/delivery/httpd"
	"github.com/SwetabhSingh17/APMS-sub001/internal/middleware"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository"
	"github.com/SwetabhSingh17/APMS-sub001/internal/repository/memory"
	"github.com/SwetabhSingh17/APMS-sub001/internal/server"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service"
	"github.com/SwetabhSingh17/APMS-sub001/internal/service/integration"
	"github.com/SwetabhSingh17/APMS-sub001/internal/validation"
	"github.com/SwetabhSingh17/APMS-sub001/internal/worker"
	"github.com/SwetabhSingh17/APMS-sub001/internal/worker/queue"
	"github.com/SwetabhSingh17/APMS-sub001/pkg/rabbitmq"
)

const consumerTag = "portal-notifications"

type App struct {
	server    *server.Server
	logger    zerolog.Logger
	config    *config.Config
	store     repository.Store
	publisher integration.EventPublisher

	amqpConn   *amqp.Connection
	worker     *worker.NotificationWorker
	stopWorker context.CancelFunc
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	store, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	a := &App{logger: log, config: cfg, store: store}

	validator := validation.New()
	notifications := service.NewNotificationService(service.Deps{Store: store, Validator: validator, Logger: log})

	if cfg.RabbitMQ.Enabled {
		if err := a.connectRabbitMQ(notifications); err != nil {
			log.Error().Err(err).Msg("Failed to set up RabbitMQ, delivering events in-process")
			a.closePublisher()
			a.closeRabbitMQ()
		}
	}
	if a.publisher == nil {
		a.publisher = integration.NewLocalPublisher(notifications, log)
	}

	var archive integration.ExportArchive
	if cfg.MinIO.Enabled {
		archive, err = integration.NewMinIOArchive(
			cfg.MinIO.Endpoint,
			cfg.MinIO.AccessKey,
			cfg.MinIO.SecretKey,
			cfg.MinIO.Bucket,
			cfg.MinIO.Region,
			cfg.MinIO.UseSSL,
			log,
		)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create MinIO archive, exports will not be archived")
			archive = nil
		}
	}

	deps := service.Deps{
		Store:     store,
		Publisher: a.publisher,
		Validator: validator,
		Logger:    log,
	}

	users := service.NewUserService(deps, cfg.Admin)
	if err := users.EnsureAdmin(ctx); err != nil {
		a.release()
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}

	services := httpd.Services{
		Users:         users,
		Topics:        service.NewTopicService(deps),
		Groups:        service.NewGroupService(deps, cfg.Portal),
		Projects:      service.NewProjectService(deps, cfg.Portal),
		Evaluation:    service.NewEvaluationService(deps),
		Milestones:    service.NewMilestoneService(deps),
		Notifications: notifications,
		Admin:         service.NewAdminService(deps, archive, cfg.Admin),
	}

	sessions := auth.NewSessionManager(auth.SessionConfig{
		Name:   cfg.Session.Name,
		Secret: cfg.Session.Secret,
		MaxAge: cfg.Session.MaxAge,
		Secure: cfg.Session.Secure,
	})

	router := chi.NewRouter()
	srv := server.NewServer(server.ServerConfig{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, log)

	srv.SetupMiddleware(
		middleware.NewCORS(cfg.CORS),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		cfg.Server.RequestTimeout,
	)

	httpd.NewHandler(services, sessions, store, cfg.Server.MaxBodyBytes, log).RegisterRoutes(router)

	a.server = srv
	return a, nil
}

// Handler returns the HTTP handler with the full middleware chain.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

// openStore picks the storage driver. The postgres driver applies pending migrations first when auto_migrate is set.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (repository.Store, error) {
	switch cfg.Driver {
	case "memory":
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	case "postgres":
		if cfg.AutoMigrate {
			if err := database.Migrate(cfg.DSN(), cfg.MigrationsPath); err != nil {
				return nil, err
			}
			log.Info().Str("path", cfg.MigrationsPath).Msg("Migrations applied")
		}

		db, err := database.NewPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("host", cfg.Host).Str("database", cfg.Name).Msg("Database connection established")
		return repository.NewPostgresStore(db, log), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// connectRabbitMQ wires the broker publisher and the notification worker consuming its queue.
func (a *App) connectRabbitMQ(handler integration.EventHandler) error {
	cfg := a.config.RabbitMQ

	publisher, err := retry(cfg.RetryCount, cfg.RetryDelay, a.logger, func() (integration.EventPublisher, error) {
		return integration.NewRabbitMQPublisher(cfg.URL, cfg.Exchange, a.logger)
	})
	if err != nil {
		return err
	}
	a.publisher = publisher

	conn, err := rabbitmq.NewConnection(cfg.URL)
	if err != nil {
		return err
	}
	a.amqpConn = conn

	channel, err := rabbitmq.NewChannel(conn)
	if err != nil {
		return err
	}

	queueName, err := rabbitmq.DeclareQueue(channel, cfg.Exchange, cfg.QueueName, cfg.BindingKey)
	if err != nil {
		return err
	}

	consumer := queue.NewRabbitMQConsumer(channel, queueName, consumerTag, cfg.PrefetchCount, a.logger)
	pool := worker.NewWorkerPool(cfg.Workers, a.logger)
	a.worker = worker.NewNotificationWorker(pool, consumer, handler, a.logger)
	return nil
}

func retry[T any](attempts int, delay time.Duration, log zerolog.Logger, fn func() (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}

	var (
		result T
		err    error
	)
	for i := 1; i <= attempts; i++ {
		result, err = fn()
		if err == nil {
			return result, nil
		}
		if i < attempts {
			log.Warn().Err(err).Int("attempt", i).Dur("retry_in", delay).Msg("Connection attempt failed")
			time.Sleep(delay)
		}
	}
	return result, err
}

// Run starts the notification worker, if any, and blocks serving HTTP.
func (a *App) Run() error {
	if a.worker != nil {
		ctx, cancel := context.WithCancel(context.Background())
		if err := a.worker.Start(ctx); err != nil {
			cancel()
			return err
		}
		a.stopWorker = cancel
	}

	a.logger.Info().
		Str("driver", a.config.Database.Driver).
		Bool("rabbitmq", a.worker != nil).
		Str("term", a.config.Portal.CurrentTerm).
		Msg("Project portal started")
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)

	if a.stopWorker != nil {
		a.stopWorker()
		a.worker.Stop()
	}
	a.release()
	return err
}

func (a *App) release() {
	a.closePublisher()
	a.closeRabbitMQ()

	if err := a.store.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close store")
	}
}

func (a *App) closePublisher() {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close event publisher")
	}
	a.publisher = nil
}

func (a *App) closeRabbitMQ() {
	if a.amqpConn != nil && !a.amqpConn.IsClosed() {
		if err := a.amqpConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}
	a.amqpConn = nil
	a.worker = nil
}
