// Command txrmwatchd runs the scan-file monitoring daemon: it watches the
// configured directories for .txrm files, waits for them to stop growing,
// and extracts metadata sidecars in the background.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"txrmwatch/internal/config"
	"txrmwatch/internal/daemon"
	"txrmwatch/internal/events"
	"txrmwatch/internal/extract"
	"txrmwatch/internal/ipc"
	"txrmwatch/internal/logging"
	"txrmwatch/internal/notifications"
	"txrmwatch/internal/registry"
	"txrmwatch/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := os.Getenv("TXRMWATCH_CONFIG")
	cfg, resolvedPath, exists, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	if !exists {
		logger.Info("config file not found, using defaults", logging.String("config", resolvedPath))
	}

	store, err := registry.Open(cfg)
	if err != nil {
		logger.Error("open registry", logging.Error(err))
		os.Exit(1)
	}

	hub := events.NewHub(0)
	extractor := extract.NewCommandExtractor(cfg)
	notifier := notifications.NewService(cfg)
	manager := workflow.NewManager(cfg, store, extractor, hub, logger,
		workflow.WithNotifier(notifier))

	d, err := daemon.New(cfg, resolvedPath, store, manager, hub, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		store.Close()
		os.Exit(1)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logger)
	if err != nil {
		logger.Error("start IPC server", logging.Error(err))
		os.Exit(1)
	}
	defer ipcServer.Close()
	ipcServer.OnShutdown(cancel)
	ipcServer.Serve()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("txrmwatchd shutting down")
}
