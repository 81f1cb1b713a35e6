package models

// Upload statuses reported per file
const (
	UploadStatusCreated = "created"
	UploadStatusUpdated = "updated"
	UploadStatusSuccess = "success" // stored attachment
	UploadStatusError   = "error"
)

// UploadResult is the outcome for one file of a multi-file upload.
type UploadResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	ID       string `json:"id,omitempty"`
	Path     string `json:"path,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// UploadResponse wraps the per-file results.
type UploadResponse struct {
	Results []UploadResult `json:"results"`
}
