package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gestion-proyectos/backend/config"
	"gestion-proyectos/backend/handlers"
	"gestion-proyectos/backend/logging"
	"gestion-proyectos/backend/repositories"
	"gestion-proyectos/backend/repositories/memory"
	"gestion-proyectos/backend/scheduler"
	"gestion-proyectos/backend/services"
	"gestion-proyectos/backend/storage"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const serviceName = "gestion-proyectos-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_LOAD_FAILED, Description: %v", err)
	}

	logging.InitLogger(logging.Options{File: cfg.Log.File, Level: cfg.Log.Level, Stdout: cfg.Log.Stdout})

	if err := cfg.Validate(); err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_INVALID, Description: %v", err)
	}

	store, mongoClient := openStore(cfg.Database)

	files, err := storage.NewLocalFileStore(cfg.Storage.UploadDir)
	if err != nil {
		logging.Logger.Fatalf("Event ID: UPLOAD_DIR_FAILED, Description: %v", err)
	}

	now := services.SystemClock
	projectService := services.NewProjectService(store, files, now)
	taskService := services.NewTaskService(store, now)
	expenseService := services.NewExpenseService(store, files, now)
	notificationService := services.NewNotificationService(store, now)
	userService := services.NewUserService(store, now)
	reportService := services.NewReportService(store, notificationService, now)

	var redisClient *redis.Client
	var locker scheduler.Locker
	if cfg.Scheduler.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Scheduler.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logging.Logger.Fatalf("Event ID: REDIS_CONNECT_FAILED, Description: %v", err)
		}
		cancel()
		locker = scheduler.NewRedisLocker(redisClient)
		logging.Logger.Infof("Event ID: REDIS_CONNECTED, Description: scan lock on %s", cfg.Scheduler.RedisAddr)
	}
	runner := scheduler.NewScanRunner(notificationService, locker, cfg.Scheduler.LockTTL)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.ScanSchedule != "" {
		sched, err = scheduler.NewScheduler(cfg.Scheduler.ScanSchedule, runner, now, cfg.Scheduler.LockTTL)
		if err != nil {
			logging.Logger.Fatalf("Event ID: SCHEDULER_INVALID, Description: %v", err)
		}
		sched.Start()
	}

	router := handlers.NewRouter(handlers.Handlers{
		Projects:      handlers.NewProjectHandler(projectService),
		Tasks:         handlers.NewTaskHandler(taskService),
		Expenses:      handlers.NewExpenseHandler(expenseService, cfg.Storage.MaxUploadSize),
		Notifications: handlers.NewNotificationHandler(notificationService, runner, now),
		Users:         handlers.NewUserHandler(userService),
		Reports:       handlers.NewReportHandler(reportService),
		Health:        handlers.NewHealthHandler(serviceName, store.Projects),
	}, []byte(cfg.Auth.JWTSecret), cfg.Server.CORSOrigin)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_STARTED, Description: listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FAILED, Description: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if sched != nil {
		sched.Stop(ctx)
	}
	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if mongoClient != nil {
		if err := mongoClient.Disconnect(ctx); err != nil {
			logging.Logger.Errorf("Event ID: DB_DISCONNECT_FAILED, Description: %v", err)
		}
	}
}

// openStore returns the configured store. The mongo client is nil for the
// in-memory driver.
func openStore(cfg config.DatabaseConfig) (*repositories.Store, *mongo.Client) {
	if cfg.Driver == config.DriverMemory {
		logging.Logger.Warn("Event ID: DB_IN_MEMORY, Description: using the in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, store, err := repositories.Connect(ctx, cfg.URI, cfg.Name)
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECT_FAILED, Description: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: connected to database %s", cfg.Name)
	return store, client
}
