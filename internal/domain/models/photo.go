package models

import (
	"math"
	"time"
)

// Photo is the catalog entry for one uploaded image. The binary content
// lives in the file store under Filename; OriginalFilename is the
// user-facing display name and the only renameable part.
type Photo struct {
	ID               int64     `db:"id" json:"id"`
	Filename         string    `db:"filename" json:"filename"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	UserID           int64     `db:"user_id" json:"user_id"`
	UploadedAt       time.Time `db:"uploaded_at" json:"uploaded_at"`
	Description      string    `db:"description" json:"description,omitempty"`
	Tags             string    `db:"tags" json:"tags,omitempty"`
	FileSize         int64     `db:"file_size" json:"file_size"`
	Width            *int      `db:"width" json:"width,omitempty"`
	Height           *int      `db:"height" json:"height,omitempty"`
	EditedFilename   *string   `db:"edited_filename" json:"edited_filename,omitempty"`
}

// IsEdited reports whether an edited version of the photo exists.
func (p Photo) IsEdited() bool {
	return p.EditedFilename != nil && *p.EditedFilename != ""
}

// StorageStats aggregates a user's catalog for the dashboard and profile
// pages. TotalUsers is populated for administrators only.
type StorageStats struct {
	TotalPhotos         int64   `json:"total_photos"`
	EditedPhotos        int64   `json:"edited_photos"`
	OriginalPhotos      int64   `json:"original_photos"`
	TotalSize           int64   `json:"total_size"`
	TotalSizeMB         float64 `json:"total_size_mb"`
	StorageUsagePercent float64 `json:"storage_usage_percent"`
	TotalUsers          *int64  `json:"total_users,omitempty"`
}

// NewStorageStats derives the display aggregates from raw counts. The usage
// percentage is a gauge against the given quota, capped at 100; it is not an
// enforced limit.
func NewStorageStats(total, edited, totalSize int64, quota int64) StorageStats {
	stats := StorageStats{
		TotalPhotos:    total,
		EditedPhotos:   edited,
		OriginalPhotos: total - edited,
		TotalSize:      totalSize,
	}

	if totalSize > 0 {
		stats.TotalSizeMB = math.Round(float64(totalSize)/(1024*1024)*100) / 100
		stats.StorageUsagePercent = math.Min(100, float64(totalSize)/float64(quota)*100)
	}

	return stats
}
