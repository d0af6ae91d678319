package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fogcatalog/metrics"
	"fogcatalog/models"
	"fogcatalog/repository"
	"fogcatalog/store"
	"fogcatalog/utils"
)

// syncAfterCancelTimeout bounds the final batch sync when the session context
// is already cancelled: whatever succeeded before cancellation still commits.
const syncAfterCancelTimeout = 30 * time.Second

// UploadOptions tunes one batch upload
type UploadOptions struct {
	Concurrency int                        // simultaneous in-flight uploads (default 3)
	Retry       utils.RetryOptions         // per-item retry/backoff/timeout
	OnProgress  func(processed, total int) // fired after each chunk completes
	OnSyncing   func()                     // fired immediately before the batch database sync
}

func (o UploadOptions) withDefaults() UploadOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = 3
	}
	return o
}

// UploadService runs batch image uploads: bounded concurrency, per-item
// retry, per-product URL accumulation and a single deferred database sync.
type UploadService struct {
	storage  StorageInterface
	products repository.ProductRepositoryInterface
	status   store.StatusStore
}

// NewUploadService creates a new UploadService
func NewUploadService(storage StorageInterface, products repository.ProductRepositoryInterface, status store.StatusStore) *UploadService {
	return &UploadService{storage: storage, products: products, status: status}
}

// UploadMatched uploads every pending image that has a matched product.
// Items are processed in chunks of Concurrency: chunks sequential, items
// within a chunk concurrent. Cancellation via ctx is cooperative: it is
// checked before each chunk and before each retry backoff; in-flight items
// settle to a terminal state and not-yet-started items stay pending. URLs of
// succeeded items are committed in one batch sync at the end even when the
// batch was cancelled midway.
func (s *UploadService) UploadMatched(ctx context.Context, sessionID string, images []*models.ImageFile, opts UploadOptions) (models.UploadResult, error) {
	opts = opts.withDefaults()

	eligible := make([]*models.ImageFile, 0, len(images))
	for _, img := range images {
		if img.Status == models.UploadPending && img.MatchedProductID != "" {
			eligible = append(eligible, img)
		}
	}

	total := len(eligible)
	result := models.UploadResult{Total: total}
	if total == 0 {
		return result, nil
	}

	s.rejectOverLimit(ctx, eligible)

	start := time.Now()
	s.setStatus(ctx, sessionID, store.SessionStatus{
		Phase: store.PhaseUploading, Total: total, Start: &start,
	})

	var mu sync.Mutex
	urlsByProduct := make(map[string][]string)
	successCount := 0
	processed := 0

	for chunkStart := 0; chunkStart < len(eligible); chunkStart += opts.Concurrency {
		if ctx.Err() != nil {
			break
		}

		chunkEnd := chunkStart + opts.Concurrency
		if chunkEnd > len(eligible) {
			chunkEnd = len(eligible)
		}
		chunk := eligible[chunkStart:chunkEnd]

		var wg sync.WaitGroup
		for _, item := range chunk {
			if item.Status != models.UploadPending {
				continue
			}
			wg.Add(1)
			go func(item *models.ImageFile) {
				defer wg.Done()
				s.processItem(ctx, item, opts, &mu, urlsByProduct, &successCount)
			}(item)
		}
		wg.Wait()

		processed += len(chunk)
		if opts.OnProgress != nil {
			opts.OnProgress(processed, total)
		}
		s.setStatus(ctx, sessionID, store.SessionStatus{
			Phase: store.PhaseUploading, Processed: processed, Total: total,
			Succeeded: successCount, Start: &start,
		})
	}

	updates := buildUpdates(urlsByProduct)
	var syncErr error
	if len(updates) > 0 {
		if opts.OnSyncing != nil {
			opts.OnSyncing()
		}
		s.setStatus(ctx, sessionID, store.SessionStatus{
			Phase: store.PhaseSyncing, Processed: processed, Total: total,
			Succeeded: successCount, Start: &start,
		})

		syncCtx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			syncCtx, cancel = context.WithTimeout(context.Background(), syncAfterCancelTimeout)
			defer cancel()
		}
		syncErr = s.products.BulkAppendProductImages(syncCtx, updates)
	}

	result.SuccessCount = successCount

	end := time.Now()
	phase := store.PhaseDone
	if ctx.Err() != nil {
		phase = store.PhaseCancelled
	}
	s.setStatus(ctx, sessionID, store.SessionStatus{
		Phase: phase, Processed: processed, Total: total,
		Succeeded: successCount, Start: &start, End: &end,
	})

	log.Info().
		Str("session", sessionID).
		Int("success", successCount).
		Int("total", total).
		Bool("cancelled", ctx.Err() != nil).
		Msg("batch upload finished")

	if syncErr != nil {
		return result, fmt.Errorf("batch image sync failed: %w", syncErr)
	}
	return result, nil
}

// processItem drives one image through optimize-then-upload with retry. The
// worker is the only writer of the item's fields while it runs.
func (s *UploadService) processItem(ctx context.Context, item *models.ImageFile, opts UploadOptions, mu *sync.Mutex, urlsByProduct map[string][]string, successCount *int) {
	item.Status = models.UploadUploading

	attempt := 0
	url, err := utils.Retry(ctx, opts.Retry, func(attemptCtx context.Context) (string, error) {
		attempt++
		if attempt > 1 {
			metrics.IncUploadRetry()
		}

		data := item.Data
		contentType := item.ContentType
		fileName := uniqueObjectName(item.FileName)
		if optimized, oerr := OptimizeImage(data, "medium"); oerr == nil {
			data = optimized
			contentType = "image/jpeg"
			fileName = strings.TrimSuffix(fileName, filepath.Ext(fileName)) + ".jpg"
		} else {
			log.Debug().Err(oerr).Str("file", item.FileName).Msg("optimization skipped, uploading original")
		}

		return s.storage.Upload(attemptCtx, UploadInput{
			Path:        "products/" + item.MatchedProductID,
			FileName:    fileName,
			ContentType: contentType,
			Data:        data,
		})
	})

	if err != nil {
		item.Status = models.UploadError
		if errors.Is(err, context.Canceled) {
			item.Error = "upload cancelled"
		} else {
			item.Error = err.Error()
		}
		metrics.IncUpload("error")
		log.Warn().Err(err).Str("file", item.FileName).Msg("image upload failed")
		return
	}

	item.Status = models.UploadSuccess
	item.URL = url

	mu.Lock()
	urlsByProduct[item.MatchedProductID] = append(urlsByProduct[item.MatchedProductID], url)
	*successCount++
	mu.Unlock()

	metrics.IncUpload("success")
}

// rejectOverLimit marks items that would push a product past
// models.MaxImagesPerProduct as terminal errors before any upload starts.
// When the product cannot be read the check is skipped rather than blocking
// the batch.
func (s *UploadService) rejectOverLimit(ctx context.Context, eligible []*models.ImageFile) {
	counts := make(map[string]int)
	for _, item := range eligible {
		pid := item.MatchedProductID
		if _, ok := counts[pid]; !ok {
			existing := 0
			if p, err := s.products.GetByID(ctx, pid); err == nil && p != nil {
				existing = len(p.Images)
			}
			counts[pid] = existing
		}
		if counts[pid] >= models.MaxImagesPerProduct {
			item.Status = models.UploadError
			item.Error = fmt.Sprintf("product already has %d images", models.MaxImagesPerProduct)
			metrics.IncUpload("error")
			continue
		}
		counts[pid]++
	}
}

func (s *UploadService) setStatus(ctx context.Context, sessionID string, st store.SessionStatus) {
	if s.status == nil || sessionID == "" {
		return
	}
	// Status writes must survive session cancellation
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := s.status.Set(ctx, sessionID, st); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to store session status")
	}
}

// buildUpdates flattens the accumulation map into a deterministic batch
func buildUpdates(urlsByProduct map[string][]string) []models.ProductImages {
	updates := make([]models.ProductImages, 0, len(urlsByProduct))
	for pid, urls := range urlsByProduct {
		updates = append(updates, models.ProductImages{ProductID: pid, Images: urls})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].ProductID < updates[j].ProductID })
	return updates
}

// uniqueObjectName keeps the original extension but randomizes the name so
// two uploads of the same filename never collide in the bucket
func uniqueObjectName(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return uuid.New().String() + ext
}
