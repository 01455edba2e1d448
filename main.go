package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pin-scheduler/domain/repository"
	"pin-scheduler/infrastructure/cache"
	"pin-scheduler/infrastructure/clients/pinterest"
	"pin-scheduler/infrastructure/configuration"
	"pin-scheduler/infrastructure/logger"
	"pin-scheduler/infrastructure/persistence"
	"pin-scheduler/infrastructure/pubsub"
	"pin-scheduler/infrastructure/realtime"
	"pin-scheduler/infrastructure/servicebus"
	httpHandler "pin-scheduler/interfaces/http"
	"pin-scheduler/server"
	"pin-scheduler/usecase"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

func main() {
	defer recoverPanic()
	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	// Load env from files (non-destructive; OS env still has precedence)
	if n := configuration.LoadEnvFromFile("config.env", ".env"); n > 0 {
		logger.GetLogger().WithField("count", n).Info("Loaded variables from env files")
		configuration.ApplyEnv(&configuration.C)
		configuration.ApplyDefaults(&configuration.C)
	}
	cfg := configuration.C
	logger.SetFormat(cfg.Logger.Format)
	logger.SetLevel(cfg.Logger.Level)

	pinStore, credentialStore, closeStore, err := InitiateStore(ctx, cfg)
	if err != nil {
		logger.GetLogger().WithField("error", err).WithField("driver", cfg.Store.Driver).Error("Store initialization failed, falling back to memory")
		pinStore = persistence.NewPinRepositoryMemory(nil)
		credentialStore = persistence.NewCredentialRepositoryMemory()
		closeStore = func() {}
	}
	defer closeStore()

	redisClient, err := cache.NewCache(
		ctx,
		fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
		cfg.RedisClient.Username,
		cfg.RedisClient.Password,
		cfg.RedisClient.DB,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("Redis not available - board listings will not be cached")
		redisClient = nil
	}
	boardCache := cache.NewBoardCache(redisClient, time.Minute)

	hub := realtime.NewPinHub()
	events := usecase.NewEventFanout(InitiateEvents(ctx, cfg), hub)

	api := pinterest.NewPinterestClient(pinterest.Config{
		BaseURL: cfg.Pinterest.APIBaseURL,
		Timeout: cfg.Pinterest.Timeout(),
	})
	broker := usecase.NewOAuthBroker(usecase.OAuthConfig{
		ClientID:     cfg.Pinterest.ClientID,
		ClientSecret: cfg.Pinterest.ClientSecret,
		RedirectURI:  cfg.Pinterest.RedirectURI(),
		AuthorizeURL: cfg.Pinterest.AuthorizeURL,
		APIBaseURL:   cfg.Pinterest.APIBaseURL,
		Scopes:       cfg.Pinterest.Scopes,
		SecretKey:    cfg.App.SecretKey,
	}, api, nil)
	gateway := usecase.NewGateway(api, cfg.Pinterest.PlaceholderImageURL)
	worker := usecase.NewPublishWorker(gateway, cfg.Pinterest.PlaceholderImageURL)

	accounts := usecase.NewAccountRegistry(credentialStore)
	if err := accounts.Load(ctx); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while load stored accounts")
	}
	logger.GetLogger().WithField("accounts", len(accounts.List().Credentials())).WithField("active", accounts.List().ActiveUsername()).Info("Accounts loaded")

	publisher := usecase.NewScheduledPublisher(pinStore, worker, accounts, events, nil, 0)
	scheduler := usecase.NewPinScheduler(pinStore, publisher, usecase.SchedulerConfig{
		MinLead:        cfg.Scheduler.MinLead(),
		MaxPostsPerDay: cfg.Scheduler.MaxPostsPerDay,
		Location:       cfg.Scheduler.Location(),
	}, nil, nil)

	router := server.InitiateRouter(
		httpHandler.NewHealthHandler(),
		httpHandler.NewOAuthHandler(broker, accounts, cfg.TokenRefresh.RefreshAfter(), nil),
		httpHandler.NewPinterestProxyHandler(gateway),
		httpHandler.NewPinHandler(worker),
		httpHandler.NewBoardHandler(gateway, boardCache),
		httpHandler.NewPinSchedulerHandler(scheduler),
		httpHandler.NewPublisherHandler(publisher),
		httpHandler.NewAccountHandler(accounts),
		hub,
	)

	if !cfg.Scheduler.Disabled {
		c := cron.New(cron.WithLocation(cfg.Scheduler.Location()))
		if _, err := c.AddFunc(cfg.Scheduler.Cron, func() {
			runCtx, cancelRun := context.WithTimeout(ctx, 2*time.Minute)
			defer cancelRun()
			summary, err := publisher.RunOnce(runCtx)
			if err != nil {
				logger.GetLogger().WithField("error", err).Error("Scheduled publish run failed")
				return
			}
			logger.GetLogger().WithField("message", summary.Message).Debug("Scheduled publish run")
		}); err != nil {
			logger.GetLogger().WithField("error", err).WithField("cron", cfg.Scheduler.Cron).Error("Invalid scheduler cron expression")
		} else {
			c.Start()
			logger.GetLogger().WithField("cron", cfg.Scheduler.Cron).Info("Scheduled publisher started")
			g.Go(func() error {
				<-ctx.Done()
				<-c.Stop().Done()
				return nil
			})
		}
	}

	if !cfg.TokenRefresh.Disabled {
		refresher := usecase.NewTokenRefresher(broker, accounts, cfg.TokenRefresh.Interval(), cfg.TokenRefresh.RefreshAfter(), nil)
		g.Go(func() error {
			return refresher.Run(ctx)
		})
		g.Go(func() error {
			accounts.Consume(ctx, refresher.Events())
			return nil
		})
	}

	app := cfg.App
	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{"port": port, "tls": app.TLSEnabled, "store": cfg.Store.Driver, "events": cfg.Events.Driver}).Info("Starting application")
	httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			} else {
				logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
				if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			}
		} else {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}

	err = g.Wait()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateStore opens the pin and credential stores selected by store.driver.
// mysql, redis and mongo keep credentials in memory.
func InitiateStore(ctx context.Context, cfg configuration.Config) (repository.IPinStore, repository.ICredentialStore, func(), error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return persistence.NewPinRepositoryMemory(nil), persistence.NewCredentialRepositoryMemory(), func() {}, nil

	case "postgres", "postgresql":
		db, err := persistence.NewPostgreSQLDB(cfg.Database.Psql)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := ensureSchemas(db, persistence.EnsurePinSchema, persistence.EnsureCredentialSchema); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return persistence.NewPinRepository(db, nil), persistence.NewCredentialRepository(db), closeDB(db), nil

	case "mssql":
		db, err := persistence.NewMSSQLDB(cfg.Database.Mssql)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := ensureSchemas(db, persistence.EnsurePinSchemaMSSQL, persistence.EnsureCredentialSchemaMSSQL); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		return persistence.NewPinRepositoryMSSQL(db, nil), persistence.NewCredentialRepositoryMSSQL(db), closeDB(db), nil

	case "mysql":
		db, err := persistence.NewGormMySQL(cfg.Database.MySql)
		if err != nil {
			return nil, nil, nil, err
		}
		sqlDB, err := persistence.PrepareGorm(db)
		if err != nil {
			return nil, nil, nil, err
		}
		return persistence.NewPinRepositoryGorm(db, nil), persistence.NewCredentialRepositoryMemory(), closeDB(sqlDB), nil

	case "redis":
		client, err := cache.NewCache(
			ctx,
			fmt.Sprintf("%s:%s", cfg.RedisClient.Host, cfg.RedisClient.Port),
			cfg.RedisClient.Username,
			cfg.RedisClient.Password,
			cfg.RedisClient.DB,
		)
		if err != nil {
			return nil, nil, nil, err
		}
		return persistence.NewPinRepositoryRedis(client, nil), persistence.NewCredentialRepositoryMemory(), func() { _ = client.Close() }, nil

	case "mongo", "mongodb":
		client, err := persistence.NewMongoClient(ctx, cfg.Database.Mongo)
		if err != nil {
			return nil, nil, nil, err
		}
		name := cfg.Database.Mongo.Name
		if name == "" {
			name = "pin_scheduler"
		}
		closeMongo := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		return persistence.NewPinRepositoryMongo(client, name, nil), persistence.NewCredentialRepositoryMemory(), closeMongo, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func ensureSchemas(db *sql.DB, ensure ...func(*sql.DB) error) error {
	for _, fn := range ensure {
		if err := fn(db); err != nil {
			return err
		}
	}
	return nil
}

func closeDB(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.GetLogger().WithField("error", err).Warn("Error while close database")
		}
	}
}

// InitiateEvents returns the broker publisher selected by events.driver. An
// unavailable broker degrades to the log-only publisher.
func InitiateEvents(ctx context.Context, cfg configuration.Config) repository.IEventPublisher {
	switch cfg.Events.Driver {
	case "pubsub":
		client, err := pubsub.NewPubSub(ctx, cfg.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub")
			break
		}
		return pubsub.NewPinEventPublisher(client, cfg.Events.Topic)
	case "servicebus":
		client, err := servicebus.NewServiceBus(ctx, cfg.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
			break
		}
		return servicebus.NewPinEventPublisher(client, cfg.Events.Topic)
	case "", "none":
	default:
		logger.GetLogger().WithField("driver", cfg.Events.Driver).Warn("Unknown events driver, events are only logged")
	}
	return usecase.NewNoopEventPublisher()
}
