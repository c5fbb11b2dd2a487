package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/weather-widgets/internal/api/http"
	"github.com/i474232898/weather-widgets/internal/config"
	"github.com/i474232898/weather-widgets/internal/logging"
	"github.com/i474232898/weather-widgets/internal/scheduler"
	"github.com/i474232898/weather-widgets/internal/store"
	"github.com/i474232898/weather-widgets/internal/weather"
	"github.com/i474232898/weather-widgets/internal/weather/providers"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:        "weather-widgets",
		Description: "Weather widget API with cached Open-Meteo lookups",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file to load before reading the environment",
				Value: ".env",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return run(ctx, c.String("env-file"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, envFile string) error {
	envErr := godotenv.Load(envFile)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	lg, err := logging.New(cfg.Env)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	if envErr != nil {
		lg.Info("no env file loaded", zap.String("path", envFile), zap.Error(envErr))
	}

	// Shared HTTP client for forecast calls.
	httpClient := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	cache := store.NewSnapshotCache(cfg.CacheTTL())

	openMeteoGeo := providers.NewOpenMeteoGeocoder(cfg.GeocodingBaseURL, cfg.UpstreamTimeout)
	defer openMeteoGeo.Close()

	geocoders := []weather.Geocoder{openMeteoGeo}
	if cfg.GoogleGeocoderAPIKey != "" {
		geocoders = append(geocoders, providers.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey))
	}

	service := weather.NewService(
		cache,
		weather.NewGeocoderChain(lg, geocoders...),
		openMeteoGeo,
		providers.NewOpenMeteoProvider(httpClient, cfg.ForecastBaseURL),
		weather.WithLogger(lg),
		weather.WithLookupTimeout(cfg.UpstreamTimeout),
	)

	widgets, err := store.NewSQLiteWidgetStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open widget store: %w", err)
	}
	defer func() {
		if err := widgets.Close(); err != nil {
			lg.Warn("closing widget store", zap.Error(err))
		}
	}()

	sched := scheduler.New(cache, cfg.CacheSweepInterval, lg,
		scheduler.WithWidgetRefresh(widgets, service, cfg.WidgetRefreshInterval))
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-widgets",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigin,
		AllowCredentials: true,
	}))
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"ok":          true,
			"timestamp":   time.Now().UTC().Format(weather.TimestampLayout),
			"environment": cfg.Env,
			"version":     version,
		})
	})

	httpapi.RegisterRoutes(app, service, widgets, lg)
	app.Use(httpapi.NotFound)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- app.Listen(":" + cfg.Port)
	}()
	lg.Info("server listening",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Env),
		zap.Duration("cache_ttl", cache.TTL()),
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fiber server stopped: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("error during shutdown", zap.Error(err))
	}
	lg.Info("server stopped")
	return nil
}
