package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"trendpulse-go/internal/config"
	"trendpulse-go/internal/handler"
	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "", "Optional YAML config file")
		dataDir    = flag.String("data-dir", os.Getenv("TRENDPULSE_DATA_DIR"), "Dataset directory (env: TRENDPULSE_DATA_DIR)")
		addr       = flag.String("addr", "", "Listen address, overrides config host:port")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.NewManager().Load(*configPath)
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	logger.SetLogger(log)
	log = log.WithField("component", "server")

	store, err := dataset.NewStore(cfg.Storage.DataDir)
	if err != nil {
		log.WithError(err).Fatal("Failed to open dataset store")
	}

	app := fiber.New(fiber.Config{
		AppName:               "trendpulse-server",
		DisableStartupMessage: true,
	})
	handler.NewDatasetHandler(store).Register(app)

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutdown signal received")
		if err := app.Shutdown(); err != nil {
			log.WithError(err).Warn("Server shutdown was not clean")
		}
	}()

	log.WithField("addr", listenAddr).Info("Serving datasets")
	if err := app.Listen(listenAddr); err != nil {
		log.WithError(err).Fatal("Server failed")
	}
}
