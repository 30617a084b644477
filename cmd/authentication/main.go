// The authentication service issues and revokes the JWTs the exchange
// service accepts. It shares the user table and the Redis blacklist with it.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/tradehub/internal/exchange/cache"
	"github.com/gartstein/tradehub/internal/exchange/config"
	"github.com/gartstein/tradehub/internal/exchange/controller"
	"github.com/gartstein/tradehub/internal/exchange/db"
	"github.com/gartstein/tradehub/internal/exchange/handlers"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := config.Load("")
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

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

	users := controller.NewUserService(repo, redis, cfg.JWTSecret, cfg.JWTTTL, logger)
	router := handlers.NewAuthRouter(
		handlers.NewHandler(handlers.Services{Users: users}, logger),
		handlers.RouterConfig{JWTSecret: cfg.JWTSecret, Blacklist: redis},
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AuthPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Authentication service running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP serve error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
	logger.Info("Authentication service stopped")
}
