package controller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fogcatalog/match"
	"fogcatalog/models"
	"fogcatalog/repository"
	"fogcatalog/service"
	"fogcatalog/store"
)

// maxUploadBytes bounds one multipart upload request
const maxUploadBytes = 64 << 20

// UploadController handles bulk image upload and Drive import requests
type UploadController struct {
	repository    repository.ProductRepositoryInterface
	uploadService *service.UploadService
	importService *service.ImportService
	status        store.StatusStore
	matcher       match.Matcher
	uploadOpts    service.UploadOptions
}

// NewUploadController creates a new UploadController. importService may be nil
// when no Drive credentials are configured.
func NewUploadController(
	repo repository.ProductRepositoryInterface,
	uploadService *service.UploadService,
	importService *service.ImportService,
	status store.StatusStore,
	uploadOpts service.UploadOptions,
) *UploadController {
	return &UploadController{
		repository:    repo,
		uploadService: uploadService,
		importService: importService,
		status:        status,
		matcher:       match.New(),
		uploadOpts:    uploadOpts,
	}
}

// uploadItemResponse is the per-file result in the upload response body
type uploadItemResponse struct {
	FileName  string `json:"fileName"`
	ProductID string `json:"productId,omitempty"`
	Status    string `json:"status"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UploadImages handles POST /admin/images/upload
// Accepts a multipart form with one or more files under the "images" field,
// matches each filename to a product and uploads the matched files. With
// async=true the upload runs in the background and only the session ID is
// returned; progress is available from the status endpoint.
func (c *UploadController) UploadImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("Invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["images"]
	if len(fileHeaders) == 0 {
		http.Error(w, "no files provided under the images field", http.StatusBadRequest)
		return
	}

	products, err := c.repository.GetAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to load products for matching")
		http.Error(w, fmt.Sprintf("Failed to load products: %v", err), http.StatusInternalServerError)
		return
	}

	var items []*models.ImageFile
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to open %s: %v", fh.Filename, err), http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to read %s: %v", fh.Filename, err), http.StatusBadRequest)
			return
		}

		base := strings.TrimSuffix(fh.Filename, filepath.Ext(fh.Filename))
		item := &models.ImageFile{
			ID:               uuid.New().String(),
			FileName:         fh.Filename,
			ContentType:      fh.Header.Get("Content-Type"),
			Data:             data,
			Status:           models.UploadPending,
			MatchedProductID: c.matcher.FindBestMatch(base, products),
		}
		if item.MatchedProductID == "" {
			item.Status = models.UploadError
			item.Error = "no matching product"
		}
		items = append(items, item)
	}

	sessionID := uuid.New().String()
	log.Info().Str("session", sessionID).Int("files", len(items)).Msg("bulk upload started")

	if r.URL.Query().Get("async") == "true" {
		// Detached from the request so a closed connection doesn't cancel it
		go func() {
			if _, err := c.uploadService.UploadMatched(context.Background(), sessionID, items, c.uploadOpts); err != nil {
				log.Error().Err(err).Str("session", sessionID).Msg("background upload failed")
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"sessionId": sessionID,
			"total":     len(items),
		})
		return
	}

	result, err := c.uploadService.UploadMatched(r.Context(), sessionID, items, c.uploadOpts)
	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("upload batch failed")
	}

	responses := make([]uploadItemResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, uploadItemResponse{
			FileName:  item.FileName,
			ProductID: item.MatchedProductID,
			Status:    string(item.Status),
			URL:       item.URL,
			Error:     item.Error,
		})
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]interface{}{
		"sessionId":    sessionID,
		"successCount": result.SuccessCount,
		"total":        result.Total,
		"files":        responses,
	})
}

// UploadStatus handles GET /admin/images/upload/status?session=XXX
func (c *UploadController) UploadStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		http.Error(w, "session parameter is required", http.StatusBadRequest)
		return
	}

	st, ok, err := c.status.Get(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("failed to read session status")
		http.Error(w, "Failed to read session status", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// ImportFromDrive handles POST /admin/images/import?folder=XXX
// Matches and uploads every image in the given Google Drive folder.
func (c *UploadController) ImportFromDrive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if c.importService == nil {
		http.Error(w, "Drive import is not configured", http.StatusServiceUnavailable)
		return
	}

	folderID := strings.TrimSpace(r.URL.Query().Get("folder"))
	if folderID == "" {
		http.Error(w, "folder parameter is required", http.StatusBadRequest)
		return
	}

	stats, sessionID, err := c.importService.ImportFromDrive(r.Context(), folderID)
	if err != nil {
		log.Error().Err(err).Str("folder", folderID).Msg("drive import failed")
		http.Error(w, fmt.Sprintf("Drive import failed: %v", err), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"stats":     stats,
	})
}
