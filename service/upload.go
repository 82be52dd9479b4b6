package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/cinevault/cinevault/config"
	"github.com/cinevault/cinevault/entity"
	"github.com/cinevault/cinevault/infra/produce"
	"github.com/cinevault/cinevault/repository"
)

// allowedContentTypes is the fixed upload allow-list. Anything else is
// rejected before any network call.
var allowedContentTypes = map[string]bool{
	"video/mp4":        true,
	"video/avi":        true,
	"video/x-matroska": true,
	"video/quicktime":  true,
}

// AssetStore is the object storage surface the orchestrator depends
// on. infra.MinioClient satisfies it.
type AssetStore interface {
	PutObject(ctx context.Context, key string, reader io.Reader, size int64, contentType string, report func(transferred, total int64)) error
	ResolveURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Thumbnailer produces a poster frame blob from a local video file.
// infra.ThumbnailClient satisfies it.
type Thumbnailer interface {
	Generate(ctx context.Context, videoPath string) ([]byte, error)
}

// EventPublisher emits movie lifecycle events.
// produce.MovieEventService satisfies it.
type EventPublisher interface {
	PublishMovieUploaded(ctx context.Context, msg produce.MovieUploadedMessage) error
	PublishReconcileUpload(ctx context.Context, msg produce.ReconcileUploadMessage) error
}

// Cache is the subset of the Redis client the services use.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// UploadRequest carries one validated upload through the pipeline. The
// video must already sit in a local temp file (the controller owns its
// lifetime).
type UploadRequest struct {
	ID          uuid.UUID // optional; assigned when zero
	Title       string
	Description string
	Filename    string
	ContentType string
	Size        int64
	VideoPath   string
	UploadedBy  uuid.UUID
}

// UploadProgress is the advisory progress snapshot persisted for the
// progress endpoint. Not reliable for correctness.
type UploadProgress struct {
	Transferred int64  `json:"transferred"`
	Total       int64  `json:"total"`
	Status      string `json:"status"`
}

// UploadOrchestrator sequences thumbnail generation, the two asset
// uploads and the metadata commit for one movie. Steps are strictly
// sequential; a failure after the provisional session is written marks
// the session FAILED and hands the orphaned prefix to the reconcile
// worker.
type UploadOrchestrator struct {
	cfg     *config.EnvConfig
	repo    *repository.Repository
	storage AssetStore
	thumbs  Thumbnailer
	events  EventPublisher
	cache   Cache
}

func NewUploadOrchestrator(cfg *config.EnvConfig, repo *repository.Repository, storage AssetStore, thumbs Thumbnailer, events EventPublisher, cache Cache) *UploadOrchestrator {
	return &UploadOrchestrator{
		cfg:     cfg,
		repo:    repo,
		storage: storage,
		thumbs:  thumbs,
		events:  events,
		cache:   cache,
	}
}

// Validate applies the pre-orchestration gate: required fields, MIME
// allow-list, size ceiling. Violations never reach storage.
func (o *UploadOrchestrator) Validate(req UploadRequest) error {
	if req.Title == "" || req.Description == "" {
		return fmt.Errorf("%w: title and description are required", ErrInvalidInput)
	}
	if req.Filename == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidInput)
	}
	if !allowedContentTypes[req.ContentType] {
		return fmt.Errorf("%w: unsupported video format %q (allowed: MP4, AVI, MKV, MOV)", ErrInvalidInput, req.ContentType)
	}
	if req.Size <= 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidInput)
	}
	if req.Size > o.cfg.Upload.MaxFileSize {
		return fmt.Errorf("%w: file size %d exceeds limit of %d bytes", ErrInvalidInput, req.Size, o.cfg.Upload.MaxFileSize)
	}
	return nil
}

// Upload runs the full pipeline and returns the committed record.
func (o *UploadOrchestrator) Upload(ctx context.Context, req UploadRequest) (*entity.Movie, error) {
	if err := o.Validate(req); err != nil {
		return nil, err
	}

	// Reserve the identifier and write the provisional session so a
	// crash mid-pipeline leaves a discoverable, sweepable trail. The
	// caller may pre-assign the ID to hand it out for progress polling.
	movieID := req.ID
	if movieID == uuid.Nil {
		movieID = uuid.New()
	}
	session := &entity.UploadSession{
		ID:          movieID,
		UserID:      req.UploadedBy,
		Title:       req.Title,
		Description: req.Description,
		FileName:    req.Filename,
		FileSize:    req.Size,
		ContentType: req.ContentType,
		Status:      entity.UploadStatusInit,
	}
	if err := o.repo.UploadSessionRepo.Create(session); err != nil {
		return nil, fmt.Errorf("failed to create upload session: %w", err)
	}

	thumbPath := ThumbnailKey(movieID)
	filePath := FileKey(movieID, req.Filename)

	thumb, err := o.thumbs.Generate(ctx, req.VideoPath)
	if err != nil {
		return nil, o.fail(ctx, movieID, fmt.Errorf("thumbnail generation failed: %w", err))
	}

	if err := o.storage.PutObject(ctx, thumbPath, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg", nil); err != nil {
		return nil, o.fail(ctx, movieID, fmt.Errorf("thumbnail upload failed: %w", err))
	}

	if err := o.repo.UploadSessionRepo.UpdateStatus(movieID, entity.UploadStatusUploading); err != nil {
		return nil, o.fail(ctx, movieID, fmt.Errorf("failed to update upload session: %w", err))
	}

	video, err := os.Open(req.VideoPath)
	if err != nil {
		return nil, o.fail(ctx, movieID, fmt.Errorf("failed to open video file: %w", err))
	}
	defer video.Close()

	if err := o.storage.PutObject(ctx, filePath, video, req.Size, req.ContentType, o.progressReporter(movieID)); err != nil {
		return nil, o.fail(ctx, movieID, fmt.Errorf("file upload failed: %w", err))
	}

	expiry := time.Duration(o.cfg.Upload.URLExpire) * time.Second
	thumbnailURL, err := o.storage.ResolveURL(ctx, thumbPath, expiry)
	if err != nil {
		return nil, o.fail(ctx, movieID, fmt.Errorf("failed to resolve thumbnail URL: %w", err))
	}
	downloadURL, err := o.storage.ResolveURL(ctx, filePath, expiry)
	if err != nil {
		return nil, o.fail(ctx, movieID, fmt.Errorf("failed to resolve download URL: %w", err))
	}

	movie := &entity.Movie{
		ID:            movieID,
		Title:         req.Title,
		Description:   req.Description,
		Filename:      req.Filename,
		FilePath:      filePath,
		FileSize:      req.Size,
		DownloadURL:   downloadURL,
		ThumbnailURL:  thumbnailURL,
		DownloadCount: 0,
		UploadedBy:    req.UploadedBy,
	}
	if err := o.repo.MovieRepo.Create(movie); err != nil {
		return nil, o.fail(ctx, movieID, fmt.Errorf("failed to commit movie record: %w", err))
	}

	if err := o.repo.UploadSessionRepo.UpdateStatus(movieID, entity.UploadStatusCompleted); err != nil {
		// The record is committed; a stale session status only costs
		// the reconcile worker one no-op verification.
		_ = err
	}

	_ = o.events.PublishMovieUploaded(ctx, produce.MovieUploadedMessage{
		MovieID:       movieID.String(),
		Title:         req.Title,
		FileSize:      req.Size,
		FilePath:      filePath,
		ThumbnailPath: thumbPath,
		UploadedBy:    req.UploadedBy.String(),
	})

	_ = o.cache.Delete(ctx, catalogCacheKey)
	_ = o.cache.Delete(ctx, progressKey(movieID))

	return movie, nil
}

// GetProgress returns the advisory progress snapshot for an in-flight
// upload.
func (o *UploadOrchestrator) GetProgress(ctx context.Context, uploadID uuid.UUID) (*UploadProgress, error) {
	var progress UploadProgress
	if err := o.cache.Get(ctx, progressKey(uploadID), &progress); err != nil {
		return nil, fmt.Errorf("%w: no progress for upload %s", ErrNotFound, uploadID)
	}
	return &progress, nil
}

// fail marks the session FAILED and publishes a reconcile request so
// the consumer can sweep partial artifacts under the movie prefix.
func (o *UploadOrchestrator) fail(ctx context.Context, movieID uuid.UUID, cause error) error {
	_ = o.repo.UploadSessionRepo.UpdateStatus(movieID, entity.UploadStatusFailed)
	_ = o.events.PublishReconcileUpload(ctx, produce.ReconcileUploadMessage{
		UploadID:      movieID.String(),
		StoragePrefix: StoragePrefix(movieID),
		Reason:        cause.Error(),
	})
	_ = o.cache.Delete(ctx, progressKey(movieID))
	return cause
}

func (o *UploadOrchestrator) progressReporter(movieID uuid.UUID) func(transferred, total int64) {
	var lastPercent int64 = -1
	return func(transferred, total int64) {
		percent := int64(100)
		if total > 0 {
			percent = transferred * 100 / total
		}
		if percent == lastPercent {
			return
		}
		lastPercent = percent
		_ = o.cache.Set(context.Background(), progressKey(movieID), UploadProgress{
			Transferred: transferred,
			Total:       total,
			Status:      string(entity.UploadStatusUploading),
		}, time.Hour)
	}
}

// StoragePrefix is the object prefix holding both assets of a movie.
func StoragePrefix(movieID uuid.UUID) string {
	return fmt.Sprintf("movies/%s/", movieID)
}

// ThumbnailKey is the storage key for a movie's poster frame.
func ThumbnailKey(movieID uuid.UUID) string {
	return fmt.Sprintf("movies/%s/thumbnail.jpg", movieID)
}

// FileKey is the storage key for a movie's full file.
func FileKey(movieID uuid.UUID, filename string) string {
	return fmt.Sprintf("movies/%s/%s", movieID, path.Base(filename))
}

func progressKey(movieID uuid.UUID) string {
	return "upload:progress:" + movieID.String()
}
