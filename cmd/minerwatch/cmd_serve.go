package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/minerwatch/internal/catalog"
	"github.com/HerbHall/minerwatch/internal/config"
	"github.com/HerbHall/minerwatch/internal/detect"
	"github.com/HerbHall/minerwatch/internal/event"
	"github.com/HerbHall/minerwatch/internal/notify"
	"github.com/HerbHall/minerwatch/internal/registry"
	"github.com/HerbHall/minerwatch/internal/server"
	"github.com/HerbHall/minerwatch/internal/services"
	"github.com/HerbHall/minerwatch/internal/settings"
	"github.com/HerbHall/minerwatch/internal/store"
	pkgcatalog "github.com/HerbHall/minerwatch/pkg/catalog"
	"github.com/HerbHall/minerwatch/pkg/plugin"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to configuration file")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	v, err := server.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(v.GetString("log.level"), v.GetBool("log.development"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("MinerWatch server starting")

	db, err := store.New(v.GetString("database.path"))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	bus := event.NewBus(logger.Named("event"))
	reg := registry.New(logger)

	// Compile-time composition.
	plugins := []plugin.Plugin{
		detect.New(),
		notify.New(),
	}
	for _, p := range plugins {
		if err := reg.Register(p); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}
	if err := reg.Validate(); err != nil {
		logger.Fatal("invalid plugin set", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := config.New(v)
	err = reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config: root.Sub("plugins." + name),
			Logger: logger.Named(name),
			Store:  db,
			Bus:    bus,
		}
	})
	if err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	settingsRepo, err := services.NewSQLiteSettingsRepository(ctx, db)
	if err != nil {
		logger.Fatal("failed to open settings", zap.Error(err))
	}
	settingsHandler := settings.NewHandler(settingsRepo,
		v.GetString("plugins.detect.default_range"), logger.Named("settings"))
	catalogHandler := catalog.NewHandler(catalog.NewEngine(pkgcatalog.NewCatalog()), logger.Named("catalog"))

	if err := reg.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	addr := net.JoinHostPort(v.GetString("server.host"), v.GetString("server.port"))
	srv := server.New(addr, reg, logger, server.WithRegistrars(settingsHandler, catalogHandler))

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("MinerWatch server ready", zap.String("addr", addr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	reg.StopAll(shutdownCtx)

	logger.Info("MinerWatch server stopped")
}
