package models

// UploadStatus is the lifecycle state of a single image in an upload session.
// Transitions: pending -> uploading -> (success | error). Never back to pending.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// ImageFile is one image inside an upload session. Owned exclusively by the
// session; a worker is the only writer of its status while it is in flight.
type ImageFile struct {
	ID               string       `json:"id"`
	FileName         string       `json:"fileName"`
	ContentType      string       `json:"contentType"`
	Data             []byte       `json:"-"`
	Status           UploadStatus `json:"status"`
	MatchedProductID string       `json:"matchedProductId,omitempty"`
	URL              string       `json:"url,omitempty"`
	Error            string       `json:"error,omitempty"`
}

// UploadResult summarizes a finished (or cancelled) batch upload
type UploadResult struct {
	SuccessCount int `json:"successCount"`
	Total        int `json:"total"`
}
