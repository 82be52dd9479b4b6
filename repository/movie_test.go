package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cinevault/cinevault/entity"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache DB keeps gorm's pooled connections on the
	// same in-memory database; the name isolates parallel tests.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Movie{}, &entity.UploadSession{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		_ = sqlDB.Close()
	})
	return db
}

func seedMovie(t *testing.T, repo *MovieRepository, title, description string, createdAt time.Time) *entity.Movie {
	t.Helper()
	movie := &entity.Movie{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Filename:    "clip.mp4",
		FilePath:    "movies/" + title + "/clip.mp4",
		FileSize:    1024,
		UploadedBy:  uuid.New(),
		CreatedAt:   createdAt,
	}
	require.NoError(t, repo.Create(movie))
	return movie
}

func TestMovieRepository_ListAllNewestFirst(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	base := time.Now().Add(-time.Hour)
	seedMovie(t, repo, "oldest", "first in", base)
	seedMovie(t, repo, "middle", "second in", base.Add(10*time.Minute))
	seedMovie(t, repo, "newest", "last in", base.Add(20*time.Minute))

	movies, err := repo.ListAll()
	require.NoError(t, err)
	require.Len(t, movies, 3)

	assert.Equal(t, "newest", movies[0].Title)
	assert.Equal(t, "middle", movies[1].Title)
	assert.Equal(t, "oldest", movies[2].Title)
}

func TestMovieRepository_SearchCaseInsensitive(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	now := time.Now()
	seedMovie(t, repo, "The Matrix", "a hacker discovers reality", now.Add(-2*time.Minute))
	seedMovie(t, repo, "Inception", "dreams within DREAMS", now.Add(-time.Minute))
	seedMovie(t, repo, "Alien", "in space no one can hear you", now)

	byTitle, err := repo.Search("MATRIX")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "The Matrix", byTitle[0].Title)

	byDescription, err := repo.Search("dreams")
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, "Inception", byDescription[0].Title)

	none, err := repo.Search("godzilla")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMovieRepository_SearchEmptyTermReturnsAll(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	seedMovie(t, repo, "one", "first", time.Now().Add(-time.Minute))
	seedMovie(t, repo, "two", "second", time.Now())

	all, err := repo.Search("   ")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMovieRepository_IncrementDownloadCount(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	now := time.Now()
	first := seedMovie(t, repo, "first", "counter target", now.Add(-time.Minute))
	second := seedMovie(t, repo, "second", "left alone", now)

	require.NoError(t, repo.IncrementDownloadCount(first.ID))
	require.NoError(t, repo.IncrementDownloadCount(first.ID))

	got, err := repo.FindByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.DownloadCount)

	other, err := repo.FindByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.DownloadCount)
}

func TestMovieRepository_FindByIDMissing(t *testing.T) {
	repo := NewMovieRepository(newTestDB(t))

	_, err := repo.FindByID(uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
