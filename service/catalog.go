package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cinevault/cinevault/config"
	"github.com/cinevault/cinevault/entity"
	"github.com/cinevault/cinevault/repository"
)

const (
	catalogCacheKey = "catalog:movies"
	catalogCacheTTL = time.Minute
)

// DownloadGrant is what a signed-in user gets back when requesting a
// download: a resolved access URL plus the original filename.
type DownloadGrant struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// CatalogService serves the movie list, search filtering and the
// download path. The full catalog is cached whole; the cache is
// invalidated on every commit and counter increment.
type CatalogService struct {
	cfg     *config.EnvConfig
	movies  *repository.MovieRepository
	storage AssetStore
	cache   Cache
}

func NewCatalogService(cfg *config.EnvConfig, movies *repository.MovieRepository, storage AssetStore, cache Cache) *CatalogService {
	return &CatalogService{
		cfg:     cfg,
		movies:  movies,
		storage: storage,
		cache:   cache,
	}
}

// List returns the full catalog, newest first.
func (s *CatalogService) List(ctx context.Context) ([]entity.Movie, error) {
	var cached []entity.Movie
	if err := s.cache.Get(ctx, catalogCacheKey, &cached); err == nil {
		return cached, nil
	}

	movies, err := s.movies.ListAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	_ = s.cache.Set(ctx, catalogCacheKey, movies, catalogCacheTTL)
	return movies, nil
}

// Search filters by case-insensitive substring over title or
// description. An empty term returns the full catalog.
func (s *CatalogService) Search(ctx context.Context, term string) ([]entity.Movie, error) {
	if term == "" {
		return s.List(ctx)
	}

	movies, err := s.movies.Search(term)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}
	return movies, nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*entity.Movie, error) {
	movie, err := s.movies.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: movie %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load movie: %w", err)
	}
	return movie, nil
}

// Download resolves a fresh access URL for the stored file and bumps
// the record's counter. URL resolution fails clearly when the stored
// path is absent.
func (s *CatalogService) Download(ctx context.Context, id uuid.UUID) (*DownloadGrant, error) {
	movie, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	expiry := time.Duration(s.cfg.Upload.URLExpire) * time.Second
	url, err := s.storage.ResolveURL(ctx, movie.FilePath, expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve download URL: %w", err)
	}

	if err := s.movies.IncrementDownloadCount(movie.ID); err != nil {
		return nil, fmt.Errorf("failed to increment download count: %w", err)
	}
	_ = s.cache.Delete(ctx, catalogCacheKey)

	return &DownloadGrant{
		URL:      url,
		Filename: movie.Filename,
	}, nil
}
