package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"print-area-pricing/app/controller"
	"print-area-pricing/app/router"
	"print-area-pricing/colors"
	"print-area-pricing/config"
	"print-area-pricing/db"
	"print-area-pricing/logger"
	"print-area-pricing/metrics"
	"print-area-pricing/models"
	"print-area-pricing/pricing"
	"print-area-pricing/repository"
	"print-area-pricing/service"
)

// App holds the wired components of the service
type App struct {
	Config      *config.Config
	Log         *zap.Logger
	DB          *sql.DB
	Registry    *prometheus.Registry
	Metrics     *metrics.Metrics
	Pricing     *service.PricingService
	Manifests   *service.ManifestService
	QuoteSheets *service.QuoteSheetService
	Handler     http.Handler
}

// Initialize initializes the application. The database and Google Drive are optional:
// without them prices come from the configured table and calibration from requests.
func Initialize(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	log = logger.OrNop(log)
	a := &App{Config: cfg, Log: log}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	var (
		sides   repository.ProductSideRepositoryInterface
		configs repository.PricingConfigRepositoryInterface
	)
	if cfg.DB.Enabled() {
		conn, err := openDatabase(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		a.DB = conn
		sides = repository.NewProductSideRepository(conn, log)
		configs = repository.NewPricingConfigRepository(conn, log)
	} else {
		log.Info("no database configured, using request calibration and the configured price table")
	}

	loader, err := newImageSource(ctx, cfg.Images, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	fallback, err := fallbackConfig(cfg.Pricing.ConfigFile)
	if err != nil {
		a.Close()
		return nil, err
	}
	active := service.LoadActiveConfig(ctx, configs, fallback, log)

	a.Pricing = service.NewPricingService(active, service.PricingServiceDeps{
		Extractor: colors.NewExtractor(loader, log, a.Metrics),
		Sides:     sides,
		Configs:   configs,
		Defaults:  cfg.Pricing.Defaults,
		Metrics:   a.Metrics,
		Log:       log,

		TrackedCanvases: cfg.Pricing.TrackedCanvases,
		VersionIdleTTL:  cfg.Pricing.VersionIdleTTL,
	})
	a.Manifests = service.NewManifestService(cfg.QuoteSheet.DPI)
	a.QuoteSheets = service.NewQuoteSheetService(cfg.QuoteSheet.ChromePath, cfg.QuoteSheet.Timeout, log)

	controllers := &router.Controllers{
		Pricing: controller.NewPricingController(a.Pricing, a.Manifests, a.QuoteSheets, cfg.Server.MaxBodyBytes, log),
		Config:  controller.NewConfigController(a.Pricing, cfg.Server.MaxBodyBytes, log),
	}
	a.Handler = router.New(controllers, router.Options{
		Metrics:        promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		AdminToken:     cfg.Admin.Token,
		RequestTimeout: cfg.Server.RequestTimeout,
		Log:            log,
	})
	return a, nil
}

// Close releases the database connection
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func openDatabase(ctx context.Context, cfg config.DBConfig, log *zap.Logger) (*sql.DB, error) {
	dsn, err := cfg.ConnectionString()
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(ctx, cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(conn, cfg.Driver); err != nil {
			conn.Close()
			return nil, err
		}
	}
	log.Info("database connected", zap.String("driver", cfg.Driver), zap.Bool("autoMigrate", cfg.AutoMigrate))
	return conn, nil
}

func newImageSource(ctx context.Context, cfg config.ImagesConfig, log *zap.Logger) (*service.ImageSource, error) {
	var drive service.DriveServiceInterface
	if cfg.DriveCredentials != "" {
		d, err := service.NewDriveService(ctx, cfg.DriveCredentials)
		if err != nil {
			return nil, err
		}
		drive = d
	}

	var cache *service.ImageCache
	if cfg.CacheDir != "" {
		c, err := service.NewImageCache(cfg.CacheDir, cfg.CacheMaxBytes)
		if err != nil {
			log.Warn("image cache disabled", zap.String("dir", cfg.CacheDir), zap.Error(err))
		} else {
			cache = c
		}
	}

	return service.NewImageSource(service.ImageSourceConfig{
		Timeout:      cfg.Timeout,
		BaseURL:      cfg.BaseURL,
		AllowedHosts: cfg.AllowedHosts,
		MaxBytes:     cfg.MaxBytes,
		MaxPixels:    cfg.MaxPixels,
	}, drive, cache, log), nil
}

// fallbackConfig is the table used while the database holds none
func fallbackConfig(path string) (*models.PrintPricingConfig, error) {
	if path == "" {
		return pricing.DefaultConfig(), nil
	}
	return pricing.LoadConfigFile(path)
}
