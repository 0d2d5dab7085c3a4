package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkalenga/unigest/internal"
	"github.com/mkalenga/unigest/internal/auth"
	authPostgres "github.com/mkalenga/unigest/internal/auth/postgres"
	"github.com/mkalenga/unigest/internal/authz"
	authzPostgres "github.com/mkalenga/unigest/internal/authz/postgres"
	"github.com/mkalenga/unigest/internal/directory"
	directoryPostgres "github.com/mkalenga/unigest/internal/directory/postgres"
	"github.com/mkalenga/unigest/internal/student"
	studentPostgres "github.com/mkalenga/unigest/internal/student/postgres"
	"github.com/mkalenga/unigest/internal/transport"
	"github.com/mkalenga/unigest/internal/transport/rest"
	"github.com/mkalenga/unigest/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger

	AuthHandler      *auth.Handler
	AuthzService     *authz.Service
	GrantHandler     *authz.Handler
	DirectoryHandler *directory.Handler
	StudentHandler   *student.Handler
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		deps.AuthHandler,
		deps.AuthzService,
		deps.GrantHandler,
		deps.DirectoryHandler,
		deps.StudentHandler,
		deps.Logger,
	)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"))
	appLogger := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// GORM rides on the same pgx connection pool
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	baseHandler := transport.NewBaseHandler(appLogger)

	// auth
	tokenGen := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewAuthRepository(gormDB)
	authService := auth.NewService(authRepo, tokenGen, appLogger)
	authHandler := auth.NewHandler(baseHandler, authService)

	// directory
	directoryRepo := directoryPostgres.NewDirectoryRepository(gormDB)
	directoryService := directory.NewService(directoryRepo, appLogger)
	directoryHandler := directory.NewHandler(baseHandler, directoryService)

	// authorization engine
	grantStore := authzPostgres.NewGrantRepository(gormDB)
	authzService := authz.NewService(authz.DefaultCatalog(), grantStore, directoryService, appLogger)
	grantHandler := authz.NewHandler(baseHandler, authzService)

	// students
	studentRepo := studentPostgres.NewStudentRepository(db)
	studentService := student.NewService(studentRepo, authzService, appLogger)
	studentHandler := student.NewHandler(baseHandler, studentService)

	return &Dependencies{
		Config:           config,
		Logger:           appLogger,
		DB:               db,
		GormDB:           gormDB,
		Router:           chi.NewRouter(),
		AuthHandler:      authHandler,
		AuthzService:     authzService,
		GrantHandler:     grantHandler,
		DirectoryHandler: directoryHandler,
		StudentHandler:   studentHandler,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
