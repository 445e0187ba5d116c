package response

// ErrorResponse is the JSON envelope for uncaught handler errors.
type ErrorResponse struct {
	Status  string `json:"status,omitempty"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type UploadedFile struct {
	ID               int64  `json:"id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	FileSize         int64  `json:"file_size"`
}

// UploadResponse is the JSON body returned to asynchronous uploads.
type UploadResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message,omitempty"`
	Error         string         `json:"error,omitempty"`
	UploadedFiles []UploadedFile `json:"uploaded_files,omitempty"`
	ErrorCount    int            `json:"error_count"`
}
