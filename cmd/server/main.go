package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jayyveer/yarnbykrosh/internal/address"
	"github.com/jayyveer/yarnbykrosh/internal/cart"
	"github.com/jayyveer/yarnbykrosh/internal/catalog"
	"github.com/jayyveer/yarnbykrosh/internal/checkout"
	"github.com/jayyveer/yarnbykrosh/internal/config"
	"github.com/jayyveer/yarnbykrosh/internal/httpapi"
	"github.com/jayyveer/yarnbykrosh/internal/identity"
	"github.com/jayyveer/yarnbykrosh/internal/imagestore"
	"github.com/jayyveer/yarnbykrosh/internal/orders"
	pg "github.com/jayyveer/yarnbykrosh/internal/postgres"
	"github.com/jayyveer/yarnbykrosh/pkg/logger"
)

func main() {
	cfg := config.Load()
	logg := logger.New(slog.LevelInfo)

	// Postgres
	cred := &pg.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.PostgresDB,
		MigrationsDirPath: cfg.MigrationsDir,
	}
	db, err := pg.Connect(cred)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	if err := pg.RunMigrations(db, cred); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// MongoDB holds the cart documents.
	mongoCtx, cancelMongo := context.WithTimeout(context.Background(), 10*time.Second)
	mongoDB, err := cart.ConnectMongoDB(mongoCtx, cfg.MongoURI, cfg.MongoDB)
	cancelMongo()
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	cartRepo := cart.NewMongoRepository(mongoDB)
	idxCtx, cancelIdx := context.WithTimeout(context.Background(), 10*time.Second)
	if err := cart.EnsureIndexes(idxCtx, mongoDB); err != nil {
		log.Fatalf("failed to create cart indexes: %v", err)
	}
	cancelIdx()

	// Redis backs the cart cache, sessions and the admin-role cache.
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	// Object storage for product images.
	images, err := imagestore.New(imagestore.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	}, logg)
	if err != nil {
		log.Fatalf("failed to create image store: %v", err)
	}
	bucketCtx, cancelBucket := context.WithTimeout(context.Background(), 10*time.Second)
	if err := images.EnsureBucket(bucketCtx); err != nil {
		logg.Warn("image bucket check failed", "error", err)
	}
	cancelBucket()

	// Repositories and services.
	catalogRepo := catalog.NewRepository(db)
	addressRepo := address.NewRepository(db)
	orderRepo := orders.NewPostgresRepository(db)
	checkoutRepo := checkout.NewPostgresRepository(db)
	identityRepo := identity.NewPostgresRepository(db)

	cartCache := cart.NewRedisCache(redisClient)
	cartSvc := cart.NewService(cartRepo, cartCache, catalog.NewSnapshotSource(catalogRepo), logg)
	checkoutSvc := checkout.NewService(checkoutRepo, cartSvc, addressRepo, orderRepo, logg)
	identitySvc := identity.NewService(identityRepo,
		identity.NewRedisSessionStore(redisClient, cfg.SessionTTL),
		identity.NewRedisRoleCache(redisClient), logg)

	// Background workers: outbox → Kafka → cart clearer.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	poller := orders.NewOutboxPoller(orderRepo, cfg.KafkaBrokers...)
	go poller.Run(workerCtx)
	defer poller.Close()

	consumer := cart.NewConsumer(cartRepo, cartCache, cfg.KafkaBrokers...)
	go consumer.Run(workerCtx)
	defer consumer.Close()

	router := httpapi.NewRouter(httpapi.Handlers{
		Auth:     httpapi.NewAuthHandler(identitySvc),
		Cart:     httpapi.NewCartHandler(cartSvc),
		Checkout: httpapi.NewCheckoutHandler(checkoutSvc),
		Catalog:  httpapi.NewCatalogHandler(catalogRepo),
		Address:  httpapi.NewAddressHandler(addressRepo),
		Orders:   httpapi.NewOrdersHandler(orderRepo),
		Admin:    httpapi.NewAdminHandler(identitySvc, images, orderRepo),
	}, identitySvc, identitySvc, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      http.MaxBytesHandler(router, cfg.MaxRequestBodySize),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logg.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down server")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	logg.Info("server exited")
}
