package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cinevault/cinevault/config"
	"github.com/cinevault/cinevault/entity"
	infraPkg "github.com/cinevault/cinevault/infra"
	"github.com/cinevault/cinevault/infra/produce"
	"github.com/cinevault/cinevault/repository"
	"github.com/cinevault/cinevault/service"
	"github.com/cinevault/cinevault/utils"
)

// In-process stand-ins for the storage, thumbnail and messaging
// infrastructure so handler behavior can be exercised end to end.

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (s *memStore) PutObject(_ context.Context, key string, reader io.Reader, _ int64, _ string, _ func(transferred, total int64)) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

func (s *memStore) ResolveURL(_ context.Context, key string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("object %s does not exist", key)
	}
	return "https://assets.test/" + key, nil
}

type memThumbnailer struct{}

func (memThumbnailer) Generate(context.Context, string) ([]byte, error) {
	return []byte("jpeg-bytes"), nil
}

type memPublisher struct{}

func (memPublisher) PublishMovieUploaded(context.Context, produce.MovieUploadedMessage) error {
	return nil
}

func (memPublisher) PublishReconcileUpload(context.Context, produce.ReconcileUploadMessage) error {
	return nil
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return fmt.Errorf("cache miss")
	}
	return json.Unmarshal(data, dest)
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

type testEnv struct {
	ctrl   *Controller
	repo   *repository.Repository
	store  *memStore
	userID uuid.UUID
}

func testConfig() *config.Config {
	env := &config.EnvConfig{}
	env.JWT.SecretKey = "controller-test-secret"
	env.JWT.Expire = 3600
	env.Upload.MaxFileSize = 64 * 1024 * 1024
	env.Upload.URLExpire = 3600
	return &config.Config{EnvConfig: env}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	cfg := testConfig()
	repo := repository.NewRepository(db)
	store := newMemStore()
	cache := newMemCache()

	infra := &infraPkg.Infra{
		Logger: &infraPkg.LoggerClient{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))},
	}

	svc := &service.Services{
		Auth:    service.NewAuthService(cfg.EnvConfig, repo.UserRepo, cache),
		Catalog: service.NewCatalogService(cfg.EnvConfig, repo.MovieRepo, store, cache),
		Upload:  service.NewUploadOrchestrator(cfg.EnvConfig, repo, store, memThumbnailer{}, memPublisher{}, cache),
	}

	return &testEnv{
		ctrl:   NewController(cfg, infra, repo, svc),
		repo:   repo,
		store:  store,
		userID: uuid.New(),
	}
}

// perform runs one handler with an authenticated context.
func (e *testEnv) perform(method, target string, body io.Reader, contentType string, params gin.Params, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, body)
	if contentType != "" {
		c.Request.Header.Set("Content-Type", contentType)
	}
	c.Params = params
	c.Set("user_id", e.userID.String())
	handler(c)
	return w
}

func (e *testEnv) seedMovie(t *testing.T, title, description string) *entity.Movie {
	t.Helper()
	movie := &entity.Movie{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Filename:    "clip.mp4",
		FileSize:    512,
		UploadedBy:  e.userID,
		CreatedAt:   time.Now(),
	}
	movie.FilePath = service.FileKey(movie.ID, movie.Filename)
	e.store.objects[movie.FilePath] = []byte("stored")
	require.NoError(t, e.repo.MovieRepo.Create(movie))
	return movie
}

func multipartVideo(t *testing.T, title, description, filename, contentType string, payload []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	require.NoError(t, writer.WriteField("title", title))
	require.NoError(t, writer.WriteField("description", description))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func TestListMovies(t *testing.T) {
	env := newTestEnv(t)
	env.seedMovie(t, "Alien", "crew meets a xenomorph")
	env.seedMovie(t, "The Matrix", "a hacker story")

	w := env.perform(http.MethodGet, "/api/v1/movies/", nil, "", nil, env.ctrl.ListMovies)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Movies []json.RawMessage `json:"movies"`
		Total  int               `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
}

func TestListMoviesWithSearch(t *testing.T) {
	env := newTestEnv(t)
	env.seedMovie(t, "Alien", "crew meets a xenomorph")
	env.seedMovie(t, "The Matrix", "a hacker story")

	w := env.perform(http.MethodGet, "/api/v1/movies/?search=matrix", nil, "", nil, env.ctrl.ListMovies)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestGetMovie(t *testing.T) {
	env := newTestEnv(t)
	movie := env.seedMovie(t, "Alien", "crew meets a xenomorph")

	params := gin.Params{{Key: "id", Value: movie.ID.String()}}
	w := env.perform(http.MethodGet, "/api/v1/movies/"+movie.ID.String(), nil, "", params, env.ctrl.GetMovie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Alien", resp["title"])
}

func TestGetMovieNotFound(t *testing.T) {
	env := newTestEnv(t)

	params := gin.Params{{Key: "id", Value: uuid.NewString()}}
	w := env.perform(http.MethodGet, "/api/v1/movies/missing", nil, "", params, env.ctrl.GetMovie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetMovieBadID(t *testing.T) {
	env := newTestEnv(t)

	params := gin.Params{{Key: "id", Value: "not-a-uuid"}}
	w := env.perform(http.MethodGet, "/api/v1/movies/not-a-uuid", nil, "", params, env.ctrl.GetMovie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadMovieIncrementsCounter(t *testing.T) {
	env := newTestEnv(t)
	movie := env.seedMovie(t, "Alien", "crew meets a xenomorph")

	params := gin.Params{{Key: "id", Value: movie.ID.String()}}
	w := env.perform(http.MethodGet, "/api/v1/movies/x/download", nil, "", params, env.ctrl.DownloadMovie)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://assets.test/"+movie.FilePath, resp.URL)
	assert.Equal(t, "clip.mp4", resp.Filename)

	got, err := env.repo.MovieRepo.FindByID(movie.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.DownloadCount)
}

func TestUploadMovie(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartVideo(t, "Uploaded", "fresh from a test", "fresh.mp4", "video/mp4", []byte("video payload"))

	w := env.perform(http.MethodPost, "/api/v1/movies/", body, contentType, nil, env.ctrl.UploadMovie)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Upload-Id"))

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Uploaded", resp["title"])
	assert.Equal(t, "fresh.mp4", resp["filename"])

	movies, err := env.repo.MovieRepo.ListAll()
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, env.userID, movies[0].UploadedBy)
}

func TestUploadMovieRejectsBadContentType(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartVideo(t, "Nope", "wrong kind of file", "nope.gif", "image/gif", []byte("gif payload"))

	w := env.perform(http.MethodPost, "/api/v1/movies/", body, contentType, nil, env.ctrl.UploadMovie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	movies, err := env.repo.MovieRepo.ListAll()
	require.NoError(t, err)
	assert.Empty(t, movies)
}

func TestUploadMovieRequiresFields(t *testing.T) {
	env := newTestEnv(t)
	body, contentType := multipartVideo(t, "", "", "clip.mp4", "video/mp4", []byte("video payload"))

	w := env.perform(http.MethodPost, "/api/v1/movies/", body, contentType, nil, env.ctrl.UploadMovie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	registerBody := bytes.NewBufferString(`{"email":"viewer@example.com","password":"hunter22","confirm_password":"hunter22"}`)
	w := env.perform(http.MethodPost, "/api/v1/auth/register", registerBody, "application/json", nil, env.ctrl.Register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	loginBody := bytes.NewBufferString(`{"email":"viewer@example.com","password":"hunter22"}`)
	w = env.perform(http.MethodPost, "/api/v1/auth/login", loginBody, "application/json", nil, env.ctrl.Login)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	parsed, err := utils.ParseToken(resp.Token, env.ctrl.Config.EnvConfig)
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	wrongBody := bytes.NewBufferString(`{"email":"viewer@example.com","password":"wrong"}`)
	w = env.perform(http.MethodPost, "/api/v1/auth/login", wrongBody, "application/json", nil, env.ctrl.Login)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	mismatchBody := bytes.NewBufferString(`{"email":"other@example.com","password":"hunter22","confirm_password":"different"}`)
	w = env.perform(http.MethodPost, "/api/v1/auth/register", mismatchBody, "application/json", nil, env.ctrl.Register)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	duplicateBody := bytes.NewBufferString(`{"email":"viewer@example.com","password":"hunter22","confirm_password":"hunter22"}`)
	w = env.perform(http.MethodPost, "/api/v1/auth/register", duplicateBody, "application/json", nil, env.ctrl.Register)
	assert.Equal(t, http.StatusConflict, w.Code)
}
