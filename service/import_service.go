package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fogcatalog/match"
	"fogcatalog/models"
	"fogcatalog/repository"
)

// ImportStats summarizes one Drive import run
type ImportStats struct {
	Total     int      `json:"total"`
	Matched   int      `json:"matched"`
	Unmatched int      `json:"unmatched"`
	Uploaded  int      `json:"uploaded"`
	Failed    int      `json:"failed"`
	Skipped   []string `json:"skipped,omitempty"`
}

// ImportService pulls product images out of a Google Drive folder, matches
// each filename to a product and hands the matched set to the uploader.
type ImportService struct {
	drive      DriveServiceInterface
	products   repository.ProductRepositoryInterface
	uploads    *UploadService
	matcher    match.Matcher
	uploadOpts UploadOptions
}

// NewImportService creates a new ImportService
func NewImportService(drive DriveServiceInterface, products repository.ProductRepositoryInterface, uploads *UploadService, uploadOpts UploadOptions) *ImportService {
	return &ImportService{
		drive:      drive,
		products:   products,
		uploads:    uploads,
		matcher:    match.New(),
		uploadOpts: uploadOpts,
	}
}

// ImportFromDrive lists the folder, matches filenames against the product
// catalog, downloads the matched images and uploads them. Returns the run
// stats and the upload session ID for progress polling.
func (s *ImportService) ImportFromDrive(ctx context.Context, folderID string) (ImportStats, string, error) {
	var stats ImportStats

	files, err := s.drive.ListFolderImages(folderID)
	if err != nil {
		return stats, "", fmt.Errorf("failed to list drive folder: %w", err)
	}
	stats.Total = len(files)

	products, err := s.products.GetAll(ctx)
	if err != nil {
		return stats, "", fmt.Errorf("failed to load products: %w", err)
	}

	var items []*models.ImageFile
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, "", err
		}

		base := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		productID := s.matcher.FindBestMatch(base, products)
		if productID == "" {
			log.Debug().Str("file", f.Name).Msg("no product match for drive file")
			stats.Unmatched++
			stats.Skipped = append(stats.Skipped, f.Name)
			continue
		}
		stats.Matched++

		data, err := s.drive.DownloadImage(f.ID)
		if err != nil {
			log.Warn().Err(err).Str("file", f.Name).Msg("drive download failed")
			stats.Failed++
			continue
		}

		items = append(items, &models.ImageFile{
			ID:               uuid.New().String(),
			FileName:         f.Name,
			ContentType:      f.MimeType,
			Data:             data,
			Status:           models.UploadPending,
			MatchedProductID: productID,
		})
	}

	sessionID := uuid.New().String()
	if len(items) == 0 {
		log.Info().Str("folder", folderID).Int("total", stats.Total).Msg("drive import found nothing to upload")
		return stats, sessionID, nil
	}

	result, err := s.uploads.UploadMatched(ctx, sessionID, items, s.uploadOpts)
	stats.Uploaded = result.SuccessCount
	stats.Failed += result.Total - result.SuccessCount
	if err != nil {
		return stats, sessionID, err
	}

	log.Info().
		Str("folder", folderID).
		Int("total", stats.Total).
		Int("matched", stats.Matched).
		Int("uploaded", stats.Uploaded).
		Msg("drive import finished")
	return stats, sessionID, nil
}
