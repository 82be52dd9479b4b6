package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinevault/cinevault/entity"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) Create(movie *entity.Movie) error {
	return r.db.Create(movie).Error
}

func (r *MovieRepository) FindByID(id uuid.UUID) (*entity.Movie, error) {
	var movie entity.Movie
	err := r.db.Where("id = ?", id).First(&movie).Error
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// ListAll returns the full catalog, newest first. There is no
// pagination; the catalog is loaded whole.
func (r *MovieRepository) ListAll() ([]entity.Movie, error) {
	var movies []entity.Movie
	err := r.db.Order("created_at DESC").Find(&movies).Error
	if err != nil {
		return nil, err
	}
	return movies, nil
}

// Search matches a case-insensitive substring against title OR
// description. An empty term returns the full catalog.
func (r *MovieRepository) Search(term string) ([]entity.Movie, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListAll()
	}

	pattern := "%" + strings.ToLower(term) + "%"
	var movies []entity.Movie
	err := r.db.
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Find(&movies).Error
	if err != nil {
		return nil, err
	}
	return movies, nil
}

// IncrementDownloadCount atomically bumps a record's counter. Counters
// are independent across records.
func (r *MovieRepository) IncrementDownloadCount(id uuid.UUID) error {
	return r.db.Model(&entity.Movie{}).Where("id = ?", id).
		Update("download_count", gorm.Expr("download_count + 1")).Error
}
