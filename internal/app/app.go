package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/campustrade/market-service/internal/adapter/httpapi"
	natsadapter "github.com/campustrade/market-service/internal/adapter/messaging/nats"
	"github.com/campustrade/market-service/internal/adapter/notifier"
	"github.com/campustrade/market-service/internal/adapter/repository/cache"
	"github.com/campustrade/market-service/internal/adapter/repository/mongodb"
	"github.com/campustrade/market-service/internal/config"
	"github.com/campustrade/market-service/internal/market/usecase"
	"github.com/campustrade/market-service/internal/platform/keylock"
	"github.com/campustrade/market-service/internal/platform/logger"
	"github.com/campustrade/market-service/internal/platform/metrics"
)

type App struct {
	cfg          *config.Config
	log          logger.Logger
	server       *http.Server
	metrics      *metrics.Manager
	mongoClient  *mongo.Client
	listingCache *cache.ListingCache
	events       *natsadapter.Publisher
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	log, err := logger.New(logger.Config{Level: cfg.Logger.Level, Encoding: cfg.Logger.Encoding})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log.Infof("configuration loaded: env=%s http_port=%s", cfg.Env, cfg.HTTP.Port)

	mongoClient, err := mongodb.NewConnection(&cfg.Mongo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mongo client: %w", err)
	}
	db := mongoClient.Database(cfg.Mongo.Database)
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	log.Info("mongo client initialized")

	listingRepo := mongodb.NewListingRepository(db)
	bidRepo := mongodb.NewBidRepository(db)
	favoriteRepo := mongodb.NewFavoriteRepository(db)

	listingCache, err := cache.NewListingCache(&cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
	}
	log.Info("redis cache initialized")

	events, err := natsadapter.NewPublisher(&cfg.NATS, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nats publisher: %w", err)
	}

	var mailer notifier.Mailer
	var directory notifier.Directory
	if cfg.SMTP.Host != "" && cfg.SMTP.MailDomain != "" {
		mailer = notifier.NewSMTPMailer(&cfg.SMTP)
		directory = notifier.DomainDirectory{Domain: cfg.SMTP.MailDomain}
		log.Infof("mail notifications enabled via %s", cfg.SMTP.Host)
	} else {
		log.Info("mail notifications disabled, bus events only")
	}
	dispatcher := notifier.NewDispatcher(events, mailer, directory, log)

	locks := keylock.New()
	listingUC := usecase.NewListingUsecase(listingRepo, bidRepo, favoriteRepo, locks, log)
	lifecycleUC := usecase.NewLifecycleUsecase(listingRepo, bidRepo, dispatcher, locks, log)
	auctionUC := usecase.NewAuctionUsecase(listingRepo, bidRepo, locks, log)
	favoriteUC := usecase.NewFavoriteUsecase(favoriteRepo, listingRepo, locks,
		cfg.Market.HotThreshold, cfg.Market.HotLimit, log)

	m := metrics.NewManager("market_service")

	handler := httpapi.NewHandler(listingUC, lifecycleUC, auctionUC, favoriteUC, listingCache, events, m, log)
	router := httpapi.NewRouter(handler, cfg.Auth.JWTSecret, log, m)

	server := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		cfg:          cfg,
		log:          log,
		server:       server,
		metrics:      m,
		mongoClient:  mongoClient,
		listingCache: listingCache,
		events:       events,
	}, nil
}

func (a *App) Run() {
	go func() {
		if err := metrics.StartServer(a.cfg.Metrics.Port, a.log, a.metrics.Registry); err != nil && err != http.ErrServerClosed {
			a.log.Errorf("metrics server stopped: %v", err)
		}
	}()

	go func() {
		a.log.Infof("http server listening on %s", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Fatalf("http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.log.Infof("received %v, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("http server shutdown failed: %v", err)
	}
	a.events.Close()
	if err := a.listingCache.Close(); err != nil {
		a.log.Errorf("redis close failed: %v", err)
	}
	if err := a.mongoClient.Disconnect(shutdownCtx); err != nil {
		a.log.Errorf("mongo disconnect failed: %v", err)
	}
	_ = a.log.Sync()
}
