package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinevault/cinevault/entity"
)

func seedSession(t *testing.T, repo *UploadSessionRepository, status entity.UploadStatus) *entity.UploadSession {
	t.Helper()
	session := &entity.UploadSession{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Title:       "pending upload",
		Description: "mid-flight",
		FileName:    "clip.mp4",
		FileSize:    2048,
		ContentType: "video/mp4",
		Status:      status,
	}
	require.NoError(t, repo.Create(session))
	return session
}

func TestUploadSessionRepository_StatusTransitions(t *testing.T) {
	repo := NewUploadSessionRepository(newTestDB(t))

	session := seedSession(t, repo, entity.UploadStatusInit)

	require.NoError(t, repo.UpdateStatus(session.ID, entity.UploadStatusUploading))
	got, err := repo.FindByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.UploadStatusUploading, got.Status)

	require.NoError(t, repo.UpdateStatus(session.ID, entity.UploadStatusCompleted))
	got, err = repo.FindByID(session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.UploadStatusCompleted, got.Status)
}

func TestUploadSessionRepository_FindStaleSkipsCompletedAndFresh(t *testing.T) {
	db := newTestDB(t)
	repo := NewUploadSessionRepository(db)

	stale := seedSession(t, repo, entity.UploadStatusFailed)
	completed := seedSession(t, repo, entity.UploadStatusCompleted)
	seedSession(t, repo, entity.UploadStatusInit) // fresh, must not be reaped

	old := time.Now().Add(-48 * time.Hour)
	for _, id := range []uuid.UUID{stale.ID, completed.ID} {
		require.NoError(t, db.Model(&entity.UploadSession{}).Where("id = ?", id).
			Update("updated_at", old).Error)
	}

	found, err := repo.FindStale(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stale.ID, found[0].ID)
}

func TestUploadSessionRepository_Delete(t *testing.T) {
	repo := NewUploadSessionRepository(newTestDB(t))

	session := seedSession(t, repo, entity.UploadStatusFailed)
	require.NoError(t, repo.Delete(session.ID))

	_, err := repo.FindByID(session.ID)
	assert.Error(t, err)
}
