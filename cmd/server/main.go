package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apigrpc "chama-backend/internal/api/grpc"
	httpapi "chama-backend/internal/api/http"
	"chama-backend/internal/config"
	"chama-backend/internal/logger"
	"chama-backend/internal/notify"
	"chama-backend/internal/repository/postgres"
	"chama-backend/internal/security"
	"chama-backend/internal/service"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	devToken := flag.Int("dev-token", 0, "Print an access token for this user id and exit (development only)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	tokenManager := security.NewTokenManager(cfg.JWT.Secret)
	if *devToken != 0 {
		token, err := tokenManager.GenerateAccessToken(int32(*devToken), "", 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to generate token: %v", err)
		}
		fmt.Println(token)
		return
	}

	logger.Info("Starting Chama Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "http_address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize notification delivery
	dispatcher, closeNotify, err := notify.FromConfig(ctx, cfg.Notifications)
	if err != nil {
		log.Fatalf("Failed to initialize notification channels: %v", err)
	}
	defer closeNotify()

	// Initialize Services
	noteSvc := service.NewNotificationService(store.NotificationRepository, store.GroupRepository, dispatcher)
	txSvc := service.NewTransactionService(store.GroupRepository, store.TransactionRepository, store.GoalRepository, noteSvc)
	goalSvc := service.NewGoalService(store.GroupRepository, store.GoalRepository, store.TransactionRepository, noteSvc)
	userSvc := service.NewUserService(store.UserRepository, store.GroupRepository)

	// Set up gRPC server for health and reflection
	grpcServer, healthServer := apigrpc.NewServer(tokenManager)
	go apigrpc.NewHealthMonitor(store, healthServer, 15*time.Second).Run(ctx)

	lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
		log.Fatalf("Failed to listen: %v", err)
	}
	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetGRPCAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	// Set up HTTP API
	router := httpapi.NewRouter(httpapi.NewHandler(txSvc, goalSvc, noteSvc, userSvc), tokenManager)
	httpServer := &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Server stopped")
}
