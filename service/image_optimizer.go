package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog/log"
)

const (
	cacheDir = "cache/images"
	// Quality settings
	qualityThumb  = 60
	qualityMedium = 75
	// Size settings (max dimension)
	maxSizeThumb  = 300
	maxSizeMedium = 800
)

// EnsureCacheDir ensures the image cache directory exists
func EnsureCacheDir() error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	return nil
}

// GetCachePath returns the cache file path for a product image and size
func GetCachePath(productID string, index int, size string) string {
	filename := fmt.Sprintf("product_%s_%d_%s.jpg", productID, index, size)
	return filepath.Join(cacheDir, filename)
}

// CacheExists checks if a cached image exists
func CacheExists(cachePath string) bool {
	_, err := os.Stat(cachePath)
	return err == nil
}

// ReadFromCache reads an image from the cache
func ReadFromCache(cachePath string) ([]byte, error) {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read from cache: %w", err)
	}
	return data, nil
}

// SaveToCache saves an image to the cache
func SaveToCache(cachePath string, imageData []byte) error {
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(cachePath, imageData, 0644); err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// OptimizeImage re-encodes an image as JPEG, resized so its longest dimension
// fits the requested size bucket ("thumb" or "medium"). Unknown sizes default
// to medium. JPEG instead of WebP keeps the build CGO-free.
func OptimizeImage(imageData []byte, size string) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var maxDim, quality int
	switch size {
	case "thumb":
		maxDim = maxSizeThumb
		quality = qualityThumb
	case "medium":
		maxDim = maxSizeMedium
		quality = qualityMedium
	default:
		maxDim = maxSizeMedium
		quality = qualityMedium
		log.Warn().Str("size", size).Msg("unknown image size, defaulting to medium")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var resized image.Image = img
	if width > maxDim || height > maxDim {
		var newWidth, newHeight int
		if width > height {
			newWidth = maxDim
			newHeight = int(float64(height) * float64(maxDim) / float64(width))
		} else {
			newHeight = maxDim
			newWidth = int(float64(width) * float64(maxDim) / float64(height))
		}
		resized = imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode to JPEG: %w", err)
	}

	log.Debug().Str("format", format).Str("size", size).Int("bytes", buf.Len()).Msg("image optimized")
	return buf.Bytes(), nil
}
