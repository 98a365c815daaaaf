package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"

	"socialhub/domain/repository"
	"socialhub/infrastructure/cache"
	"socialhub/infrastructure/clients/instagram"
	"socialhub/infrastructure/clients/tiktok"
	"socialhub/infrastructure/clients/youtube"
	"socialhub/infrastructure/configuration"
	"socialhub/infrastructure/janitor"
	"socialhub/infrastructure/logger"
	"socialhub/infrastructure/mailer"
	"socialhub/infrastructure/persistence"
	"socialhub/infrastructure/pubsub"
	"socialhub/infrastructure/realtime"
	"socialhub/infrastructure/secure"
	"socialhub/infrastructure/servicebus"
	"socialhub/infrastructure/staging"
	"socialhub/infrastructure/worker"
	httpHandler "socialhub/interfaces/http"
	"socialhub/server"
	"socialhub/usecase"
)

var httpServer *http.Server

func recoverPanic() {
	if err := recover(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Application panic recovered")
	}
}

// repositories groups the stores backed by the selected SQL vendor.
type repositories struct {
	user       repository.IUser
	video      repository.IVideo
	credential repository.ICredentialStore
	ping       func(ctx context.Context) error
}

func main() {
	defer recoverPanic()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupt)

	g, ctx := errgroup.WithContext(ctx)

	app := configuration.C.App
	if app.SecretKey == "" {
		logger.GetLogger().Error("SECRET_KEY is not set")
		os.Exit(1)
	}

	codec := persistence.NewCredentialCodec(secure.NewSealer(configuration.C.Storage.EncryptionKey))
	repos, err := InitiateDatabase(codec)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Database initialization failed")
		os.Exit(1)
	}
	credentialStore, err := InitiateCredentialStore(ctx, repos.credential, codec)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Credential store initialization failed")
		os.Exit(1)
	}
	checks := map[string]httpHandler.HealthCheck{"database": repos.ping}

	// OAuth flow state lives in Redis when configured so every replica sees it.
	var (
		pendingState   repository.IPendingState
		pendingSweeper janitor.PendingSweeper
		redisClient    *redis.Client
	)
	if configuration.C.RedisClient.Host != "" {
		redisClient, err = cache.NewCache(
			ctx,
			fmt.Sprintf("%s:%s", configuration.C.RedisClient.Host, configuration.C.RedisClient.Port),
			configuration.C.RedisClient.Username,
			configuration.C.RedisClient.Password,
			configuration.C.RedisClient.DB,
		)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Redis not available - keeping oauth state in memory")
		}
	}
	if redisClient != nil {
		pendingState = cache.NewRedisPendingState(redisClient)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		memory := cache.NewMemoryPendingState()
		pendingState, pendingSweeper = memory, memory
	}

	mongoDb := InitiateMongo(ctx)
	if mongoDb != nil {
		checks["mongo"] = func(ctx context.Context) error { return mongoDb.Ping(ctx, nil) }
	}
	uploadEvents := persistence.NewUploadEventRepository(mongoDb, configuration.C.Database.Mongo.Name)

	var pubSubPublisher pubsub.IEventPublisher
	if configuration.C.Pubsub.ProjectID != "" {
		pubSubClient, err := pubsub.NewPubSubClient(ctx, configuration.C.Pubsub.ProjectID)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("PubSub not available - continuing without PubSub events")
		} else {
			pubSubPublisher = pubsub.NewEventPublisher(pubSubClient, configuration.C.Pubsub.Topic)
		}
	}

	var serviceBusPublisher servicebus.IEventPublisher
	if configuration.C.ServiceBus.Namespace != "" {
		var azServiceBusClient *azservicebus.Client
		azServiceBusClient, err = servicebus.NewServiceBusClient(configuration.C.ServiceBus.Namespace)
		if err != nil {
			logger.GetLogger().WithField("error", err).Warn("Azure Service Bus not available - continuing without Service Bus events")
		} else {
			serviceBusPublisher = servicebus.NewEventPublisher(azServiceBusClient, configuration.C.ServiceBus.Queue)
		}
	}

	hub := realtime.NewUploadHub()
	sinks := []repository.IUploadEventSink{hub}
	if mongoDb != nil {
		sinks = append(sinks, uploadEvents)
	}
	if pubSubPublisher != nil {
		sinks = append(sinks, pubSubPublisher)
	}
	if serviceBusPublisher != nil {
		sinks = append(sinks, serviceBusPublisher)
	}

	upload := configuration.C.Upload
	controlTimeout := time.Duration(upload.ControlTimeoutSeconds) * time.Second
	mediaTimeout := time.Duration(upload.MediaTimeoutSeconds) * time.Second

	credentialResolver := usecase.NewCredentialResolver(credentialStore, cache.NewCredentialCache())

	managers := []repository.IOAuthManager{
		youtube.NewOAuthManager(youtube.OAuthConfig{
			RedirectURI: configuration.RedirectURI("youtube"),
			Timeout:     controlTimeout,
		}, pendingState),
		tiktok.NewOAuthManager(tiktok.OAuthConfig{
			ClientKey:    configuration.C.OAuth.TikTok.ClientID,
			ClientSecret: configuration.C.OAuth.TikTok.ClientSecret,
			RedirectURI:  configuration.RedirectURI("tiktok"),
			Timeout:      controlTimeout,
		}, pendingState),
		instagram.NewOAuthManager(instagram.OAuthConfig{
			ClientID:     configuration.C.OAuth.Instagram.ClientID,
			ClientSecret: configuration.C.OAuth.Instagram.ClientSecret,
			RedirectURI:  configuration.RedirectURI("instagram"),
			Timeout:      controlTimeout,
		}),
	}
	uploaders := []repository.IPlatformUploader{
		youtube.NewUploader(youtube.UploaderConfig{MediaTimeout: mediaTimeout}, credentialResolver.Persist),
		tiktok.NewUploader(tiktok.UploaderConfig{
			ControlTimeout: controlTimeout,
			MediaTimeout:   mediaTimeout,
		}),
		instagram.NewUploader(instagram.UploaderConfig{
			PollInterval:   time.Duration(upload.InstagramPollIntervalSeconds) * time.Second,
			PollTimeout:    time.Duration(upload.InstagramPollTimeoutSeconds) * time.Second,
			ControlTimeout: controlTimeout,
			MediaTimeout:   mediaTimeout,
		}),
	}

	stagingArea, err := staging.NewArea(configuration.C.Storage.TempDir)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot prepare the staging directory")
		os.Exit(1)
	}
	runner := worker.NewRunner(ctx)

	sweeper, err := janitor.New(
		configuration.C.Janitor.Schedule,
		time.Duration(configuration.C.Janitor.TempMaxAgeMinutes)*time.Minute,
		stagingArea,
		pendingSweeper,
	)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cannot schedule the janitor")
		os.Exit(1)
	}
	sweeper.Start()

	userUsecase := usecase.NewUserUsecase(
		repos.user,
		mailer.NewLogMailer(app.FrontendURL),
		app.SecretKey,
		time.Duration(app.TokenTTLHours)*time.Hour,
	)
	videoUsecase := usecase.NewVideoUsecase(
		repos.video,
		credentialResolver,
		uploaders,
		stagingArea,
		runner,
		uploadEvents,
		configuration.C.Storage.MaxFileSizeMB,
		sinks...,
	)
	oauthUsecase := usecase.NewOAuthUsecase(credentialResolver, configuration.FrontendRedirect, managers...)

	router := server.InitiateRouter(server.Handlers{
		User:   httpHandler.NewUserHandler(userUsecase),
		Video:  httpHandler.NewVideoHandler(videoUsecase),
		OAuth:  httpHandler.NewOAuthHandler(oauthUsecase),
		Health: httpHandler.NewHealthHandler(checks),
		Events: hub.Serve,
	}, repos.user)

	port := app.Port
	logger.GetLogger().WithFields(map[string]interface{}{
		"port":            port,
		"tls":             app.TLSEnabled,
		"dbVendor":        configuration.C.Database.Vendor,
		"credentialStore": configuration.C.Storage.CredentialStore,
	}).Info("Starting application")
	g.Go(func() error {
		// Uploads stream large bodies, so no read or write deadline is set.
		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		if app.TLSEnabled {
			cert := app.TLSCertFile
			key := app.TLSKeyFile
			if cert == "" || key == "" {
				logger.GetLogger().Error("TLS enabled but cert or key path empty; falling back to HTTP")
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			}
			logger.GetLogger().WithFields(map[string]interface{}{"cert": cert, "key": key}).Info("Serving HTTPS")
			if err := httpServer.ListenAndServeTLS(cert, key); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	select {
	case <-interrupt:
		logger.GetLogger().Info("Application shutdown requested")
	case <-ctx.Done():
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	hub.Close()
	if httpServer != nil {
		_ = httpServer.Shutdown(shutdownCtx)
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().WithField("error", err).Warn("Background uploads did not finish before shutdown")
	}
	sweeper.Stop(shutdownCtx)
	if pubSubPublisher != nil {
		pubSubPublisher.Stop()
	}
	if serviceBusPublisher != nil {
		_ = serviceBusPublisher.Close(shutdownCtx)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if mongoDb != nil {
		_ = mongoDb.Disconnect(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.GetLogger().WithField("error", err).Error("Server returned an error")
		os.Exit(2)
	}
}

// InitiateDatabase opens the SQL vendor named by DB_VENDOR and makes sure
// its schema exists. Production defaults to MSSQL, everything else to PostgreSQL.
func InitiateDatabase(codec persistence.CredentialCodec) (*repositories, error) {
	vendor := strings.ToLower(configuration.C.Database.Vendor)
	if vendor == "" {
		if env := os.Getenv("ENV"); env == "production" || env == "prod" {
			vendor = "mssql"
		}
	}

	switch vendor {
	case "mssql":
		db, err := persistence.NewMSSQLDB()
		if err != nil {
			return nil, fmt.Errorf("connect mssql: %w", err)
		}
		if err := persistence.EnsureSchemaMSSQL(db); err != nil {
			return nil, fmt.Errorf("ensure mssql schema: %w", err)
		}
		return &repositories{
			user:       persistence.NewUserRepositoryMSSQL(db),
			video:      persistence.NewVideoRepositoryMSSQL(db),
			credential: persistence.NewCredentialRepositoryMSSQL(db, codec),
			ping:       db.PingContext,
		}, nil
	case "mysql":
		db, err := persistence.NewMySQLGormDB()
		if err != nil {
			return nil, fmt.Errorf("connect mysql: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		return &repositories{
			user:       persistence.NewUserRepositoryGorm(db),
			video:      persistence.NewVideoRepositoryGorm(db),
			credential: persistence.NewCredentialRepositoryGorm(db, codec),
			ping:       sqlDB.PingContext,
		}, nil
	default:
		db, err := persistence.NewPostgreSQLDB()
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := persistence.EnsureSchema(db); err != nil {
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		return &repositories{
			user:       persistence.NewUserRepository(db),
			video:      persistence.NewVideoRepository(db),
			credential: persistence.NewCredentialRepository(db, codec),
			ping:       db.PingContext,
		}, nil
	}
}

// InitiateCredentialStore picks where platform credentials live. The
// database store is the default.
func InitiateCredentialStore(ctx context.Context, dbStore repository.ICredentialStore, codec persistence.CredentialCodec) (repository.ICredentialStore, error) {
	storage := configuration.C.Storage
	switch strings.ToLower(storage.CredentialStore) {
	case "file":
		return persistence.NewFileCredentialStore(storage.TokenDir, codec)
	case "s3":
		if storage.S3.Bucket == "" {
			return nil, errors.New("S3_BUCKET is required for the s3 credential store")
		}
		client, err := persistence.NewS3Client(ctx, storage.S3)
		if err != nil {
			return nil, err
		}
		return persistence.NewS3CredentialStore(client, storage.S3.Bucket, storage.S3.Prefix, codec), nil
	default:
		return dbStore, nil
	}
}

// InitiateMongo returns nil when MongoDB is not configured or unreachable.
func InitiateMongo(ctx context.Context) *mongo.Client {
	mongoCfg := configuration.C.Database.Mongo
	if mongoCfg.Host == "" {
		return nil
	}
	mongoDb, err := persistence.NewMongoDb(mongoCfg.Host, mongoCfg.Port, mongoCfg.User, mongoCfg.Password, mongoCfg.Name)
	if err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB not available - continuing without upload history")
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoDb.Ping(pingCtx, nil); err != nil {
		logger.GetLogger().WithField("error", err).Warn("MongoDB ping failed - continuing without upload history")
		_ = mongoDb.Disconnect(context.Background())
		return nil
	}
	logger.GetLogger().Info("MongoDB connected successfully")
	return mongoDb
}
