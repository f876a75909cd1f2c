package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"appointly/config"
	"appointly/cron"
	"appointly/database"
	"appointly/database/repository"
	"appointly/handlers"
	"appointly/metrics"
	"appointly/middleware"
	"appointly/routes"
	"appointly/services/booking"
	"appointly/services/notification"
	"appointly/services/schedule"
	"appointly/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()
	metrics.Register()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	pool := database.NewPool(cfg.DatabaseURL, cfg.DatabaseName,
		database.WithConnectTimeout(cfg.DBConnectTimeout),
		database.WithAcquireTimeout(cfg.DBSessionTimeout),
		database.WithTransactionTimeout(cfg.DBTransactionTimeout),
		database.WithLogger(logger),
	)
	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.DBConnectTimeout+5*time.Second)
	db, err := pool.Database(startCtx)
	if err != nil {
		logger.Fatal("main: failed to connect to MongoDB", zap.Error(err))
	}

	// repositories.
	scheduleStore := repository.NewMongoScheduleRepo(db.Collection(repository.SchedulesCollection))
	bookingStore := repository.NewMongoBookingRepo(db.Collection(repository.BookingsCollection))
	customerStore := repository.NewMongoCustomerRepo(db.Collection(repository.CustomersCollection))
	for name, ensure := range map[string]func(context.Context) error{
		repository.SchedulesCollection: scheduleStore.EnsureIndexes,
		repository.BookingsCollection:  bookingStore.EnsureIndexes,
		repository.CustomersCollection: customerStore.EnsureIndexes,
	} {
		if err := ensure(startCtx); err != nil {
			logger.Fatal("main: failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
	}
	cancelStart()

	// queue and notifications.
	addr, password, queueDB := utils.QueueRedisOpt()
	redisOpt := asynq.RedisClientOpt{Addr: addr, Password: password, DB: queueDB}
	queue := asynq.NewClient(redisOpt)
	defer queue.Close()

	var sender notification.Sender = notification.LogSender{Logger: logger}
	if cfg.TwilioEnabled() {
		sender = notification.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	worker := cron.StartNotificationWorker(redisOpt, cfg.NotificationConcurrency, sender, bookingStore, logger)
	dispatcher := notification.NewDispatcher(queue, inspector, cfg.OwnerContact, cfg.ReminderLeadTime, logger)

	// services.
	cacheClient := utils.GetCacheClient()
	scheduleService := schedule.NewService(scheduleStore,
		schedule.NewRedisCache(cacheClient, cfg.ScheduleCacheTTL, logger), logger)
	bookingService, err := booking.NewDefaultBookingService(
		bookingStore, scheduleStore, customerStore, pool, scheduleService, dispatcher, logger)
	if err != nil {
		logger.Fatal("main: failed to build booking service", zap.Error(err))
	}

	monitor, err := cron.StartHealthMonitor(cfg.HealthCheckSpec, pool, utils.RedisPinger{Client: cacheClient}, logger)
	if err != nil {
		logger.Fatal("main: invalid health check schedule", zap.String("spec", cfg.HealthCheckSpec), zap.Error(err))
	}

	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin, logger))
	routes.RegisterRoutes(router, &handlers.HandlerBundle{
		Schedules: handlers.NewScheduleHandler(scheduleService),
		Bookings:  handlers.NewBookingHandler(bookingService),
	})

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	bookingService.Wait()
	<-monitor.Stop().Done()
	worker.Shutdown()
	if err := pool.Close(ctx); err != nil {
		logger.Warn("main: closing MongoDB pool", zap.Error(err))
	}
	logger.Info("main: server stopped gracefully")
}
