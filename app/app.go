package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"fogcatalog/app/controller"
	"fogcatalog/app/router"
	"fogcatalog/config"
	"fogcatalog/db"
	"fogcatalog/repository"
	"fogcatalog/service"
	"fogcatalog/store"
	"fogcatalog/utils"
)

// Initialize wires the repositories, services and controllers and registers
// the HTTP routes.
func Initialize(cfg config.Config) error {
	if err := db.InitDB(cfg.Database.URL); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	storage, err := service.NewMinioStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}

	if err := service.EnsureCacheDir(); err != nil {
		log.Warn().Err(err).Msg("image cache directory unavailable, optimized images will not be cached")
	}

	productRepo := repository.NewProductRepository()

	var status store.StatusStore
	if cfg.Redis.URL != "" {
		redisStatus, err := store.NewRedisStatus(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		status = redisStatus
		log.Info().Msg("using redis session status store")
	} else {
		status = store.NewMemoryStatus()
		log.Info().Msg("using in-memory session status store")
	}

	uploadService := service.NewUploadService(storage, productRepo, status)
	uploadOpts := service.UploadOptions{
		Concurrency: cfg.Upload.Concurrency,
		Retry: utils.RetryOptions{
			Attempts:  cfg.Upload.Attempts,
			BaseDelay: cfg.Upload.RetryBaseDelay,
			Timeout:   cfg.Upload.AttemptTimeout,
		},
	}

	// Drive import is optional; the rest of the API works without it
	var importService *service.ImportService
	if cfg.Drive.CredentialsPath != "" {
		driveService, err := service.NewDriveService(cfg.Drive.CredentialsPath)
		if err != nil {
			return fmt.Errorf("failed to initialize drive service: %w", err)
		}
		importService = service.NewImportService(driveService, productRepo, uploadService, uploadOpts)
	} else {
		log.Info().Msg("no drive credentials configured, drive import disabled")
	}

	catalogService := service.NewCatalogService(cfg.HTTP.BaseURL)

	controllers := &router.Controllers{
		Product: controller.NewProductController(productRepo),
		Catalog: controller.NewCatalogController(productRepo, catalogService, cfg.HTTP.BaseURL),
		Upload:  controller.NewUploadController(productRepo, uploadService, importService, status, uploadOpts),
	}

	router.SetupRoutes(controllers)

	return nil
}
