package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinevault/cinevault/entity"
)

type UploadSessionRepository struct {
	db *gorm.DB
}

func NewUploadSessionRepository(db *gorm.DB) *UploadSessionRepository {
	return &UploadSessionRepository{db: db}
}

func (r *UploadSessionRepository) Create(session *entity.UploadSession) error {
	return r.db.Create(session).Error
}

func (r *UploadSessionRepository) FindByID(id uuid.UUID) (*entity.UploadSession, error) {
	var session entity.UploadSession
	err := r.db.Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *UploadSessionRepository) UpdateStatus(id uuid.UUID, status entity.UploadStatus) error {
	return r.db.Model(&entity.UploadSession{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// FindStale returns sessions that never completed and have not been
// touched since the cutoff. The reconcile worker sweeps their storage
// prefixes.
func (r *UploadSessionRepository) FindStale(cutoff time.Time) ([]entity.UploadSession, error) {
	var sessions []entity.UploadSession
	err := r.db.Where("updated_at < ? AND status IN ?", cutoff,
		[]entity.UploadStatus{entity.UploadStatusInit, entity.UploadStatusUploading, entity.UploadStatusFailed}).
		Find(&sessions).Error
	return sessions, err
}

func (r *UploadSessionRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.UploadSession{}, "id = ?", id).Error
}
