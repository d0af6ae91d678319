package service

import "context"

// UploadInput describes one object to store
type UploadInput struct {
	Path        string // key prefix, e.g. "products/<id>"
	FileName    string
	ContentType string
	Data        []byte
}

// StorageInterface is the object storage contract used by the upload
// orchestrator. Upload returns the public URL of the stored object.
type StorageInterface interface {
	Upload(ctx context.Context, in UploadInput) (string, error)
}
