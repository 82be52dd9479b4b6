package dto

import (
	"time"

	"github.com/cinevault/cinevault/entity"
)

// UploadMovieForm captures the multipart fields that ride along with
// the video file
type UploadMovieForm struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description" binding:"required"`
}

// MovieResponse is the catalog view of one movie
type MovieResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Filename      string    `json:"filename"`
	FileSize      int64     `json:"file_size"`
	ThumbnailURL  string    `json:"thumbnail_url"`
	DownloadCount int64     `json:"download_count"`
	UploadedBy    string    `json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// DownloadResponse carries a short-lived download link
type DownloadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// UploadProgressResponse is the advisory progress snapshot
type UploadProgressResponse struct {
	UploadID    string  `json:"upload_id"`
	Transferred int64   `json:"transferred"`
	Total       int64   `json:"total"`
	Status      string  `json:"status"`
	Progress    float64 `json:"progress"` // Percentage 0-100
}

func ToMovieResponse(m *entity.Movie) MovieResponse {
	return MovieResponse{
		ID:            m.ID.String(),
		Title:         m.Title,
		Description:   m.Description,
		Filename:      m.Filename,
		FileSize:      m.FileSize,
		ThumbnailURL:  m.ThumbnailURL,
		DownloadCount: m.DownloadCount,
		UploadedBy:    m.UploadedBy.String(),
		CreatedAt:     m.CreatedAt,
	}
}

func ToMovieResponses(movies []entity.Movie) []MovieResponse {
	out := make([]MovieResponse, 0, len(movies))
	for i := range movies {
		out = append(out, ToMovieResponse(&movies[i]))
	}
	return out
}
