package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gartstein/tradehub/internal/exchange/auth"
	"github.com/gartstein/tradehub/internal/exchange/cache"
	"github.com/gartstein/tradehub/internal/exchange/config"
	"github.com/gartstein/tradehub/internal/exchange/controller"
	"github.com/gartstein/tradehub/internal/exchange/db"
	"github.com/gartstein/tradehub/internal/exchange/events"
	"github.com/gartstein/tradehub/internal/exchange/geo"
	"github.com/gartstein/tradehub/internal/exchange/handlers"
	"github.com/gartstein/tradehub/internal/exchange/hub"
	"github.com/gartstein/tradehub/internal/exchange/mail"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := db.NewRepository(cfg.DBConfig())
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	redis, err := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err != nil {
		logger.Fatal("failed to initialize redis", zap.Error(err))
	}
	defer redis.Close()

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
		}
		defer producer.Close()
		publisher = producer
	}

	// Side-effect handlers. In kafka mode they run behind the consumer and the
	// request path only publishes.
	notifications := controller.NewNotificationService(repo, mail.NewEmailSender(cfg.MailConfig()), logger)
	finance := controller.NewFinanceService(repo, logger)
	documents := controller.NewDocumentService(repo, logger)

	dispatcher := events.NewDispatcher(logger, publisher)
	sideEffects := dispatcher
	if cfg.EventsMode == config.EventsKafka {
		sideEffects = events.NewDispatcher(logger, nil)
		consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.GroupID, cfg.Topic, logger)
		consumer.RegisterHandler(sideEffects.Handle)
		consumer.Start(ctx)
		defer func() {
			consumer.Close()
			<-consumer.Done()
		}()
	}
	sideEffects.Register("notifications", notifications)
	sideEffects.Register("finance", finance)
	sideEffects.Register("documents", documents)

	bridge := hub.NewRedisBridge(redis.Client(), hub.DefaultChannel, logger)
	chatHub := hub.New(logger, hub.WithBridge(bridge))
	go bridge.Run(ctx, chatHub)

	cities := controller.NewCityService(repo, geo.NewClient(cfg.GeoConfig(), redis, logger), logger)
	h := handlers.NewHandler(handlers.Services{
		Companies:     controller.NewCompanyService(repo, dispatcher, logger),
		Cities:        cities,
		Applications:  controller.NewApplicationService(repo, cities, dispatcher, cfg.ReadyForShipmentMaxWeight, logger),
		Deals:         controller.NewDealService(repo, dispatcher, logger),
		Logistics:     controller.NewLogisticsService(repo, dispatcher, logger),
		Chats:         controller.NewChatService(repo, chatHub, dispatcher, logger),
		Notifications: notifications,
		Finance:       finance,
		Documents:     documents,
		Users:         controller.NewUserService(repo, redis, cfg.JWTSecret, cfg.JWTTTL, logger),
	}, logger)

	// Initialize auth interceptor
	authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret, redis, auth.ReflectionMethods...)
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger,
		grpc.ChainUnaryInterceptor(authInterceptor.Unary()),
		grpc.ChainStreamInterceptor(authInterceptor.Stream()),
	)
	server.RegisterHTTPHandler(handlers.NewRouter(h, handlers.RouterConfig{
		JWTSecret:   cfg.JWTSecret,
		Blacklist:   redis,
		CORSOrigins: cfg.CORS,
	}))

	reporter := handlers.NewHealthReporter(server.Health(), 0, logger)
	reporter.AddCheck("database", repo)
	reporter.AddCheck("redis", redis)
	go reporter.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	waitForShutdown(server, errCh, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// waitForShutdown blocks until an interrupt or SIGTERM is received or the
// servers fail, then shuts them down.
func waitForShutdown(server *handlers.Server, errCh <-chan error, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	server.Stop()
	logger.Info("Servers stopped properly")
}
