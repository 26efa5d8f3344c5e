package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/eaglebank/ai-engine/internal/config"
	"github.com/eaglebank/ai-engine/internal/events"
	"github.com/eaglebank/ai-engine/internal/handler"
	"github.com/eaglebank/ai-engine/internal/logger"
	redisClient "github.com/eaglebank/ai-engine/internal/redis"
	"github.com/eaglebank/ai-engine/internal/service"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logEntry := logger.Setup(cfg.LogLevel, cfg.LogFormat, config.ServiceName)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Event streaming is optional; without Redis the fraud check publishes nothing.
	var publisher service.EventPublisher
	var redis *redisClient.Client
	if cfg.EventsEnabled() {
		redis, err = redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logEntry.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()
		publisher = events.NewPublisher(redis.Client, cfg.EventsMaxLen)
		logEntry.WithField("redis_addr", cfg.RedisAddr).Info("Event publishing enabled")
	}

	suggestionSvc := service.NewSuggestionService()
	fraudCheckSvc := service.NewFraudCheckService(publisher)

	var wg sync.WaitGroup
	if redis != nil && cfg.ScreenTransactions {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    config.ServiceName + "-group",
			Consumer: cfg.ConsumerName,
			Stream:   events.TransactionEventsStream,
			Handler:  fraudCheckSvc.HandleTransactionEvent,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logEntry.WithError(err).Error("Subscriber stopped")
			}
		}()
	}

	router := handler.NewRouter(
		handler.NewAIHandler(suggestionSvc, fraudCheckSvc),
		handler.NewHealthHandler(config.ServiceName),
		logEntry,
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logEntry.WithField("addr", cfg.Addr()).Info("AI engine starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logEntry.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logEntry.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logEntry.WithError(err).Error("Server shutdown failed")
	}
	wg.Wait()
}
