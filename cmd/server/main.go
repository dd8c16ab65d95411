package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/config"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/api"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/broker"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/cart"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/payment"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/redisclient"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/service"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/store"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/util"
	"github.com/RSAP-Solutions/kalee-nextjs-fullstack-sub000/internal/worker"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting commerce service")

	tp, err := util.InitTracer("commerce-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	// Redis backs durable carts and the checkout idempotency fast path.
	// Without it the site still runs: carts degrade to in-memory and
	// idempotency falls back to the database unique constraint.
	var cartStorage cart.Storage = cart.NewMemoryStorage()
	var idempotency service.IdempotencyCache
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("Redis unavailable, carts will be in-memory only: %v", err)
	} else {
		defer redisClient.Close()
		cartStorage = cart.NewRedisStorage(redisClient, time.Duration(cfg.Business.CartTTLHours)*time.Hour)
		idempotency = redisClient
		log.Println("Redis connected")
	}

	images := service.NewImageResolver(cfg.Media.BaseURL)
	gateway := payment.NewHostedGateway(cfg.Payment.BaseURL, cfg.Payment.APIKey,
		time.Duration(cfg.Payment.TimeoutSeconds)*time.Second)

	catalogService := service.NewCatalogService(db, images)
	cartService := cart.NewService(cartStorage)
	orderService := service.NewOrderService(db, idempotency, eventPublisher, images, cfg.Business.ShippingRates)
	paymentService := service.NewPaymentService(db, gateway, eventPublisher,
		cfg.Payment.WebhookSecret, cfg.Payment.SuccessURL, cfg.Payment.CancelURL)
	statusService := service.NewStatusService(db, eventPublisher)
	quoteService := service.NewQuoteService(db, eventPublisher)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicOrder, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(consumer)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(catalogService, cartService, orderService,
		paymentService, statusService, quoteService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	notificationWorker.Stop()

	log.Println("Server exited")
}
