package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"spacloud/internal/gizwits"
	"spacloud/internal/handlers"
	"spacloud/internal/logger"
	"spacloud/internal/metrics"
	"spacloud/internal/repository"
	"spacloud/internal/repository/db"
	"spacloud/internal/server"
	"spacloud/internal/service"
)

const (
	defaultAPIRoot      = "https://euapi.gizwits.com"
	defaultPollInterval = 30 * time.Second
)

func main() {
	// load config.yml first so the configured log level applies from the start
	cfgErr := loadConfig()

	log := logger.Get(viper.GetString("log.level"))
	if cfgErr != nil {
		log.Fatalw("error reading config", "err", cfgErr)
	}

	// open DB
	sqlDB, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(sqlDB)
	cloud := gizwits.NewClient(apiRoot())
	services := service.NewService(repos, cloud, log, serviceConfig(log))
	metrics.Register(services.Monitoring)
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the cloud reconciler (via composed service)
	go services.Reconciler.Run(ctx, pollInterval())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "spacloud.db")
		dbPath = "spacloud.db"
	}
	return db.InitDB(dbPath)
}

func apiRoot() string {
	if root := viper.GetString("cloud.api_root"); root != "" {
		return root
	}
	return defaultAPIRoot
}

func pollInterval() time.Duration {
	if d := viper.GetDuration("cloud.poll_interval"); d > 0 {
		return d
	}
	return defaultPollInterval
}

// serviceConfig pulls the settings the service layer needs. Missing cloud
// credentials or a missing signing key are fatal; nothing works without them.
func serviceConfig(log *logger.Logger) service.Config {
	cfg := service.Config{
		SigningKey:    viper.GetString("auth.signing_key"),
		CloudUsername: viper.GetString("cloud.username"),
		CloudPassword: viper.GetString("cloud.password"),
	}
	if cfg.CloudUsername == "" || cfg.CloudPassword == "" {
		log.Fatalw("cloud.username and cloud.password must be set in config")
	}
	if cfg.SigningKey == "" {
		log.Fatalw("auth.signing_key must be set in config")
	}
	return cfg
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
