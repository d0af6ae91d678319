package service

// DriveImage describes an image file found in a Google Drive folder
type DriveImage struct {
	ID       string
	Name     string
	MimeType string
}

// DriveServiceInterface defines the contract for Google Drive operations
type DriveServiceInterface interface {
	ListFolderImages(folderID string) ([]DriveImage, error)
	DownloadImage(fileID string) ([]byte, error)
}
