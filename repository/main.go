package repository

import (
	"gorm.io/gorm"

	"github.com/cinevault/cinevault/infra"
)

type Repository struct {
	UserRepo          *UserRepository
	MovieRepo         *MovieRepository
	UploadSessionRepo *UploadSessionRepository
}

var repository *Repository

func InitRepository(infra *infra.Infra) *Repository {
	repository = NewRepository(infra.Postgres.DB)
	return repository
}

// NewRepository builds a repository set over an arbitrary gorm handle.
// Tests use this directly with an in-memory database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		UserRepo:          NewUserRepository(db),
		MovieRepo:         NewMovieRepository(db),
		UploadSessionRepo: NewUploadSessionRepository(db),
	}
}

func GetRepository() *Repository {
	if repository == nil {
		panic("repository not initialized")
	}
	return repository
}
