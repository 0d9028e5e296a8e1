// Package main runs the crafting registry HTTP server.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	app "github.com/R3E-Network/crafting_registry/internal/app"
	"github.com/R3E-Network/crafting_registry/internal/app/httpapi"
	"github.com/R3E-Network/crafting_registry/internal/app/storage/postgres"
	"github.com/R3E-Network/crafting_registry/internal/config"
	"github.com/R3E-Network/crafting_registry/internal/metrics"
	"github.com/R3E-Network/crafting_registry/internal/middleware"
	"github.com/R3E-Network/crafting_registry/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/craftd.yaml", "path to configuration file")
	flag.Parse()

	// .env is optional; environment always wins over file values.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.NewDefault("craftd").WithError(err).Error("load configuration")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Service: "craftd",
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
	})

	var stores app.Stores
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.WithError(err).Error("ping database")
			os.Exit(1)
		}
		pg := postgres.New(db)
		stores = app.Stores{
			Accounts:   pg,
			Registries: pg,
			Archetypes: pg,
			Basics:     pg,
			Recipes:    pg,
			Instances:  pg,
		}
		log.Info("using postgres storage")
	} else {
		log.Warn("no database DSN configured; using in-memory storage")
	}

	m := metrics.New()

	application, err := app.New(stores, app.Options{
		Metrics:         m,
		EventBufferSize: cfg.Events.BufferSize,
	}, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	router := httpapi.NewHandler(application)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.Use(middleware.LoggingMiddleware(log))
	router.Use(middleware.MetricsMiddleware(m))

	var handler http.Handler = router
	if cfg.Auth.JWTSecret != "" {
		auth := middleware.NewAuthMiddleware([]byte(cfg.Auth.JWTSecret), log, []string{"/healthz", "/metrics", "/events"})
		handler = auth.Handler(router)
	} else {
		log.Warn("CRAFTD_JWT_SECRET not set; running without authentication")
	}

	// WriteTimeout stays unset: it would cut long-lived /events streams.
	server := &http.Server{
		Addr:        cfg.Server.Addr,
		Handler:     handler,
		ReadTimeout: cfg.Server.ReadTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		log.WithError(err).Error("http server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application shutdown")
	}
}
