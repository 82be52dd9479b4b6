package controller

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cinevault/cinevault/entity"
	"github.com/cinevault/cinevault/http/controller/dto"
	"github.com/cinevault/cinevault/service"
	"github.com/cinevault/cinevault/utils"
)

// multipartOverhead is the slack added on top of the file-size limit
// for the boundary and form fields of the multipart envelope.
const multipartOverhead = 10 << 20

func (ctrl *Controller) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()

	search := c.Query("search")

	var movies []entity.Movie
	var err error
	if search != "" {
		movies, err = ctrl.Service.Catalog.Search(ctx, search)
	} else {
		movies, err = ctrl.Service.Catalog.List(ctx)
	}
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Movie] Failed to list movies: %v", err)
		utils.JSON500(c, "Failed to list movies")
		return
	}

	out := dto.ToMovieResponses(movies)
	utils.JSON200(c, gin.H{"movies": out, "total": len(out)})
}

func (ctrl *Controller) GetMovie(c *gin.Context) {
	ctx := c.Request.Context()

	movieID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid movie id")
		return
	}

	movie, err := ctrl.Service.Catalog.Get(ctx, movieID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.JSON404(c, "Movie not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Movie] Failed to load movie %s: %v", movieID, err)
		utils.JSON500(c, "Failed to load movie")
		return
	}

	utils.JSON200(c, dto.ToMovieResponse(movie))
}

func (ctrl *Controller) DownloadMovie(c *gin.Context) {
	ctx := c.Request.Context()

	movieID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid movie id")
		return
	}

	grant, err := ctrl.Service.Catalog.Download(ctx, movieID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.JSON404(c, "Movie not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Movie] Failed to grant download for %s: %v", movieID, err)
		utils.JSON500(c, "Failed to prepare download")
		return
	}

	utils.JSON200(c, dto.DownloadResponse{URL: grant.URL, Filename: grant.Filename})
}

func (ctrl *Controller) UploadMovie(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := utils.GetUserIDFromContext(c)
	if err != nil {
		utils.JSON401(c, "Unauthorized: "+err.Error())
		return
	}

	maxSize := ctrl.Config.EnvConfig.Upload.MaxFileSize
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize+multipartOverhead)

	var form dto.UploadMovieForm
	if err := c.ShouldBind(&form); err != nil {
		utils.JSON400(c, "Invalid form data: "+err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSON400(c, "Failed to get file: "+err.Error())
		return
	}

	// Stage the video in a local temp file; the thumbnailer and the
	// object upload both read from it.
	src, err := fileHeader.Open()
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Movie] Failed to open uploaded file: %v", err)
		utils.JSON500(c, "Failed to read uploaded file")
		return
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "cinevault-upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Movie] Failed to create temp file: %v", err)
		utils.JSON500(c, "Failed to stage upload")
		return
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Movie] Failed to stage uploaded file: %v", err)
		utils.JSON500(c, "Failed to stage upload")
		return
	}
	tmp.Close()

	uploadID := uuid.New()
	c.Header("X-Upload-Id", uploadID.String())

	req := service.UploadRequest{
		ID:          uploadID,
		Title:       form.Title,
		Description: form.Description,
		Filename:    filepath.Base(fileHeader.Filename),
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		VideoPath:   tmp.Name(),
		UploadedBy:  userID,
	}

	movie, err := ctrl.Service.Upload.Upload(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			utils.JSON400(c, err.Error())
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Movie] Upload %s failed: %v", uploadID, err)
		utils.JSON500(c, "Upload failed: "+err.Error())
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Movie] User %s uploaded movie %s (%d bytes)", userID, movie.ID, movie.FileSize)
	utils.JSON201(c, dto.ToMovieResponse(movie))
}

func (ctrl *Controller) GetUploadProgress(c *gin.Context) {
	ctx := c.Request.Context()

	uploadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid upload id")
		return
	}

	progress, err := ctrl.Service.Upload.GetProgress(ctx, uploadID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			utils.JSON404(c, "No progress for this upload")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Movie] Failed to load progress for %s: %v", uploadID, err)
		utils.JSON500(c, "Failed to load progress")
		return
	}

	percent := float64(100)
	if progress.Total > 0 {
		percent = float64(progress.Transferred) * 100 / float64(progress.Total)
	}
	utils.JSON200(c, dto.UploadProgressResponse{
		UploadID:    uploadID.String(),
		Transferred: progress.Transferred,
		Total:       progress.Total,
		Status:      progress.Status,
		Progress:    percent,
	})
}
