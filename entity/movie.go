package entity

import (
	"time"

	"github.com/google/uuid"
)

// Movie is the committed catalog record for one uploaded movie.
// FilePath and UploadedBy are immutable after creation; only
// DownloadCount mutates. There is no delete path.
type Movie struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string    `json:"title" gorm:"type:varchar(255);not null"`
	Description   string    `json:"description" gorm:"type:text;not null"`
	Filename      string    `json:"filename" gorm:"type:varchar(512);not null"`
	FilePath      string    `json:"file_path" gorm:"type:varchar(1024);not null"`
	FileSize      int64     `json:"file_size" gorm:"not null"`
	DownloadURL   string    `json:"download_url" gorm:"type:varchar(2048)"`
	ThumbnailURL  string    `json:"thumbnail_url" gorm:"type:varchar(2048)"`
	DownloadCount int64     `json:"download_count" gorm:"not null;default:0"`
	UploadedBy    uuid.UUID `json:"uploaded_by" gorm:"type:uuid;not null;index"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;autoCreateTime;index"`
}
