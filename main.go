package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"trendpulse-go/internal/config"
	"trendpulse-go/pkg/archive"
	"trendpulse-go/pkg/dataset"
	"trendpulse-go/pkg/logger"
	"trendpulse-go/pkg/pipeline"
	"trendpulse-go/pkg/trends"
)

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	godotenv.Load()

	// Environment variable defaults (cron / CI friendly)
	defaultTrendsAPIURL := getEnvOrDefault("TRENDS_API_URL", "")
	defaultAPIKey := getEnvOrDefault("TRENDS_API_KEY", "")
	defaultDataDir := getEnvOrDefault("TRENDPULSE_DATA_DIR", "")
	defaultSchedule := getEnvOrDefault("TRENDPULSE_SCHEDULE", "")

	var (
		configPath   = flag.String("config", "", "Optional YAML config file (overrides built-in defaults)")
		trendsAPIURL = flag.String("trends-api-url", defaultTrendsAPIURL, "Trends API base URL (env: TRENDS_API_URL)")
		apiKey       = flag.String("api-key", defaultAPIKey, "Trends API key (env: TRENDS_API_KEY)")
		dataDir      = flag.String("data-dir", defaultDataDir, "Dataset output directory (env: TRENDPULSE_DATA_DIR)")
		keywordsFlag = flag.String("keywords", "", "Comma-separated keywords (overrides config)")
		schedule     = flag.String("schedule", defaultSchedule, "Cron spec to run as a daemon instead of once (env: TRENDPULSE_SCHEDULE)")
		debug        = flag.Bool("debug", false, "Enable debug logging")
		help         = flag.Bool("help", false, "Show help message")
	)
	flag.Parse()

	if *help {
		printUsage()
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.NewManager().Load(*configPath)
		if err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *trendsAPIURL != "" {
		cfg.Trends.Endpoint = *trendsAPIURL
	}
	if *apiKey != "" {
		cfg.Trends.APIKey = *apiKey
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}
	if *keywordsFlag != "" {
		var keywords []string
		for _, kw := range strings.Split(*keywordsFlag, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		cfg.Pipeline.Keywords = keywords
	}
	if *debug {
		cfg.Logger.Level = "debug"
	}

	if cfg.Trends.Endpoint == "" {
		fmt.Println("ERROR: Trends API URL is required.")
		fmt.Println("Use -trends-api-url flag or TRENDS_API_URL environment variable.")
		fmt.Println("")
		printUsage()
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		TimeFormat: cfg.Logger.TimeFormat,
	})
	logger.SetLogger(log)
	log = log.WithField("component", "main")

	p, cleanup, err := buildPipeline(cfg)
	if err != nil {
		log.WithError(err).Error("Failed to build pipeline")
		os.Exit(1)
	}
	defer cleanup()

	if *schedule != "" {
		runScheduled(p, *schedule, log)
		return
	}

	if err := runOnce(p); err != nil {
		log.WithError(err).Error("Fatal error")
		os.Exit(1)
	}
}

func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, func(), error) {
	store, err := dataset.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, err
	}

	client := trends.NewClient(trends.Options{
		Endpoint:       cfg.Trends.Endpoint,
		APIKey:         cfg.Trends.APIKey,
		HL:             cfg.Trends.HL,
		TZ:             cfg.Trends.TZ,
		ConnectTimeout: time.Duration(cfg.Trends.ConnectTimeoutMs) * time.Millisecond,
		ReadTimeout:    time.Duration(cfg.Trends.ReadTimeoutMs) * time.Millisecond,
	})
	fetcher := trends.NewFetcher(client,
		cfg.Pipeline.MaxAttempts,
		time.Duration(cfg.Pipeline.BackoffMs)*time.Millisecond,
		time.Duration(cfg.Pipeline.PauseMs)*time.Millisecond,
	)

	guard := pipeline.NewRunGuard(filepath.Join(cfg.Storage.DataDir, cfg.Storage.RunTrack))

	cleanup := func() {}
	var archiver pipeline.Archiver
	if cfg.Storage.ArchivePath != "" {
		snap, err := archive.Open(filepath.Join(cfg.Storage.DataDir, cfg.Storage.ArchivePath))
		if err != nil {
			// The archive is best-effort history; the CSV pipeline runs without it.
			logger.WithError(err).Warn("Snapshot archive unavailable")
		} else {
			archiver = snap
			cleanup = func() { snap.Close() }
		}
	}

	p := pipeline.New(pipeline.Config{
		Keywords:     cfg.Pipeline.Keywords,
		Timeframe:    cfg.Pipeline.Timeframe,
		Geo:          cfg.Pipeline.Geo,
		TopPeaks:     cfg.Pipeline.TopPeaks,
		TopQueries:   cfg.Pipeline.TopQueries,
		TopCountries: cfg.Pipeline.TopCountries,
	}, fetcher, store, guard, archiver)

	return p, cleanup, nil
}

func runOnce(p *pipeline.Pipeline) error {
	// A bounded run so a wedged provider cannot hang the scheduler slot.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	return p.Run(ctx)
}

// runScheduled runs the pipeline on a cron schedule in the foreground. The
// run guard still applies, so overlapping specs cannot refresh twice in one
// calendar day.
func runScheduled(p *pipeline.Pipeline, spec string, log *logger.Logger) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if err := runOnce(p); err != nil {
			log.WithError(err).Error("Scheduled run failed")
		}
	})
	if err != nil {
		log.WithError(err).Error("Invalid cron spec")
		os.Exit(1)
	}

	log.WithField("schedule", spec).Info("Running in scheduled mode")
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutdown signal received, stopping scheduler")
	<-c.Stop().Done()
}

func printUsage() {
	fmt.Println("Trend Pulse dataset refresh")
	fmt.Println("")
	fmt.Println("USAGE:")
	fmt.Println("    ./trendpulse -trends-api-url <URL> [OPTIONS]")
	fmt.Println("    ./trendpulse  # Uses environment variables")
	fmt.Println("")
	fmt.Println("REQUIRED:")
	fmt.Println("    -trends-api-url string Trends API base URL (env: TRENDS_API_URL)")
	fmt.Println("")
	fmt.Println("OPTIONS:")
	fmt.Println("    -api-key string        Trends API key (env: TRENDS_API_KEY)")
	fmt.Println("    -config string         YAML config file")
	fmt.Println("    -data-dir string       Dataset output directory (env: TRENDPULSE_DATA_DIR)")
	fmt.Println("    -keywords string       Comma-separated keywords to track")
	fmt.Println("    -schedule string       Cron spec for daemon mode (env: TRENDPULSE_SCHEDULE)")
	fmt.Println("    -debug                 Enable debug logging")
	fmt.Println("    -help                  Show this help message")
	fmt.Println("")
	fmt.Println("BEHAVIOR:")
	fmt.Println("- Runs at most once per calendar day (tracked in .last_run_date)")
	fmt.Println("- Exit code 0 on success or intentional skip, 1 on fatal error")
	fmt.Println("- Global dataset updates only when a new week is available")
	fmt.Println("- Country and related tables rebuild only when their data changed")
}
