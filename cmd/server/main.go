package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/garyjia/procurement-workflow/internal/application/service"
	"github.com/garyjia/procurement-workflow/internal/config"
	"github.com/garyjia/procurement-workflow/internal/domain/hierarchy"
	"github.com/garyjia/procurement-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/procurement-workflow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/garyjia/procurement-workflow/internal/interfaces/http"
	"github.com/garyjia/procurement-workflow/pkg/database"
	"github.com/garyjia/procurement-workflow/pkg/utils"
	"go.uber.org/zap"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting procurement workflow engine",
		zap.Int("port", cfg.Server.Port),
		zap.String("database", cfg.Database.Path))

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	txManager := sqlite.NewDB(db.DB, logger)

	requestRepo := repository.NewRequestRepository(db.DB, logger)
	historyRepo := repository.NewHistoryRepository(db.DB, logger)
	userRepo := repository.NewUserRepository(db.DB, logger)

	resolver := hierarchy.NewResolver(userRepo)

	svcLogger := utils.NewSugarAdapter(logger)
	requestService := service.NewRequestService(
		requestRepo,
		historyRepo,
		userRepo,
		resolver,
		service.DefaultCapabilities,
		txManager,
		svcLogger,
	)
	auditService := service.NewAuditService(requestRepo, historyRepo, svcLogger)
	userService := service.NewUserService(userRepo, resolver, txManager, svcLogger)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		requestService,
		auditService,
		userService,
		svcLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server error", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
