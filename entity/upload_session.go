package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UploadStatus represents the status of an upload session
type UploadStatus string

const (
	UploadStatusInit      UploadStatus = "INIT"
	UploadStatusUploading UploadStatus = "UPLOADING"
	UploadStatusCompleted UploadStatus = "COMPLETED"
	UploadStatusFailed    UploadStatus = "FAILED"
)

// UploadSession is the provisional record written before any asset is
// uploaded. Its ID is the ID the committed Movie will use, so a session
// left in INIT/UPLOADING/FAILED marks storage objects under
// movies/<id>/ as sweepable orphans.
type UploadSession struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	Title       string         `json:"title" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text;not null"`
	FileName    string         `json:"file_name" gorm:"type:varchar(512);not null"`
	FileSize    int64          `json:"file_size" gorm:"not null"`
	ContentType string         `json:"content_type" gorm:"type:varchar(255)"`
	Status      UploadStatus   `json:"status" gorm:"type:varchar(32);not null;default:'INIT';index"`
	Metadata    datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}
