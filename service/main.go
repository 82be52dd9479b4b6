package service

import (
	"errors"

	"github.com/cinevault/cinevault/config"
	"github.com/cinevault/cinevault/infra"
	"github.com/cinevault/cinevault/repository"
)

// Service-level failure classes. Controllers map these to HTTP
// statuses; everything else is surfaced with the collaborator's error
// text attached.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmailTaken   = errors.New("email already registered")
)

type Services struct {
	Auth    *AuthService
	Catalog *CatalogService
	Upload  *UploadOrchestrator
}

func InitServices(cfg *config.Config, infra *infra.Infra, repo *repository.Repository) *Services {
	return &Services{
		Auth:    NewAuthService(cfg.EnvConfig, repo.UserRepo, infra.Redis),
		Catalog: NewCatalogService(cfg.EnvConfig, repo.MovieRepo, infra.Minio, infra.Redis),
		Upload:  NewUploadOrchestrator(cfg.EnvConfig, repo, infra.Minio, infra.Thumbnail, infra.Produce.MovieService, infra.Redis),
	}
}
