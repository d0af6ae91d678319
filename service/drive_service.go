package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveService handles Google Drive API operations
type DriveService struct {
	client *drive.Service
}

var _ DriveServiceInterface = (*DriveService)(nil)

// NewDriveService creates a new DriveService instance
// credentialsPath should be the path to the Service Account JSON file
func NewDriveService(credentialsPath string) (*DriveService, error) {
	ctx := context.Background()

	// option.WithCredentialsFile handles Service Account authentication
	driveService, err := drive.NewService(ctx, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &DriveService{
		client: driveService,
	}, nil
}

// ListFolderImages lists all image files in a Google Drive folder
func (ds *DriveService) ListFolderImages(folderID string) ([]DriveImage, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", folderID)

	var allFiles []*drive.File
	pageToken := ""
	for {
		call := ds.client.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)")

		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		r, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		allFiles = append(allFiles, r.Files...)
		pageToken = r.NextPageToken

		if pageToken == "" {
			break
		}
	}

	imageMimeTypes := map[string]bool{
		"image/png":  true,
		"image/jpeg": true,
		"image/jpg":  true,
		"image/webp": true,
	}

	var images []DriveImage
	for _, file := range allFiles {
		if !imageMimeTypes[strings.ToLower(file.MimeType)] {
			continue
		}
		images = append(images, DriveImage{
			ID:       file.Id,
			Name:     file.Name,
			MimeType: file.MimeType,
		})
	}

	return images, nil
}

// DownloadImage downloads a file's content from Google Drive
func (ds *DriveService) DownloadImage(fileID string) ([]byte, error) {
	resp, err := ds.client.Files.Get(fileID).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	return data, nil
}
