package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memorybox/service/internal/config"
	"github.com/memorybox/service/internal/storage"
)

// fakeStorage implements storage.Storage for handler tests.
type fakeStorage struct {
	fakeStore // records deletions

	uploads   int
	uploadErr error
	lastKey   string
}

func (f *fakeStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*storage.UploadResult, error) {
	f.uploads++
	f.lastKey = key
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return nil, err
	}
	return &storage.UploadResult{URL: "http://cdn.test/memories/" + key, ObjectID: key}, nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "http://cdn.test/memories/" + key
}

func testConfig() *config.Config {
	return &config.Config{AppEnv: "test", MaxUploadMB: 50}
}

func newTestRouter(repo *fakeRepo, store *fakeStorage, cfg *config.Config) http.Handler {
	h := NewHandler(NewService(repo, store), store, cfg)
	r := chi.NewRouter()
	r.Get("/memories", h.List)
	r.Get("/memories/search", h.Search)
	r.Get("/memories/{id}", h.Get)
	r.Post("/memories", h.Create)
	r.Put("/memories/{id}", h.Update)
	r.Delete("/memories/{id}", h.Delete)
	return r
}

type multipartBody struct {
	buf bytes.Buffer
	w   *multipart.Writer
}

func newMultipartBody() *multipartBody {
	b := &multipartBody{}
	b.w = multipart.NewWriter(&b.buf)
	return b
}

func (b *multipartBody) field(name, value string) *multipartBody {
	_ = b.w.WriteField(name, value)
	return b
}

func (b *multipartBody) file(name, filename, contentType string, content []byte) *multipartBody {
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+name+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, _ := b.w.CreatePart(hdr)
	_, _ = part.Write(content)
	return b
}

func (b *multipartBody) request(method, target string) *http.Request {
	_ = b.w.Close()
	req := httptest.NewRequest(method, target, &b.buf)
	req.Header.Set("Content-Type", b.w.FormDataContentType())
	return req
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestCreateHandlerSuccess(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	req := newMultipartBody().
		field("title", "Sunset").
		field("description", "Beach at dusk").
		field("tags", "beach,sunset").
		file("media", "sunset.jpg", "image/jpeg", []byte("jpegdata")).
		request(http.MethodPost, "/memories")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var m Memory
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, "Sunset", m.Title)
	assert.Equal(t, MediaTypeImage, m.MediaType)
	assert.Equal(t, []string{"beach", "sunset"}, m.Tags)
	assert.Equal(t, "http://cdn.test/memories/"+store.lastKey, m.MediaURL)
	require.NotNil(t, m.StorageObjectID)
	assert.Equal(t, store.lastKey, *m.StorageObjectID)
}

func TestCreateHandlerNoFile(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	req := newMultipartBody().
		field("title", "Sunset").
		field("description", "Beach at dusk").
		request(http.MethodPost, "/memories")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_FILE_UPLOADED", decodeEnvelope(t, rec).Error)
	assert.Zero(t, store.uploads, "no upload without a file")
	assert.Zero(t, repo.createCalls, "no repository call without a file")
}

func TestCreateHandlerMissingFieldsCleansUpUpload(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	req := newMultipartBody().
		file("media", "sunset.jpg", "image/jpeg", []byte("jpegdata")).
		request(http.MethodPost, "/memories")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_REQUIRED_FIELDS", decodeEnvelope(t, rec).Error)
	assert.Equal(t, 1, store.uploads)
	assert.Equal(t, []string{store.lastKey}, store.deleted, "uploaded blob must be cleaned up")
	assert.Zero(t, repo.createCalls)
}

func TestCreateHandlerRejectsUnsupportedMediaType(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	req := newMultipartBody().
		field("title", "Sunset").
		field("description", "Beach at dusk").
		file("media", "notes.pdf", "application/pdf", []byte("%PDF")).
		request(http.MethodPost, "/memories")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", decodeEnvelope(t, rec).Error)
	assert.Zero(t, store.uploads)
}

func TestCreateHandlerRejectsOversizedUpload(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{}
	cfg := testConfig()
	cfg.MaxUploadMB = 1
	router := newTestRouter(repo, store, cfg)

	req := newMultipartBody().
		field("title", "Sunset").
		field("description", "Beach at dusk").
		file("media", "big.mp4", "video/mp4", bytes.Repeat([]byte("x"), 2<<20)).
		request(http.MethodPost, "/memories")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE_TOO_LARGE", decodeEnvelope(t, rec).Error)
	assert.Zero(t, store.uploads)
}

func TestListHandlerReturnsCount(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/memories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Count)
	assert.Zero(t, *env.Count)
}

func TestGetHandlerNotFound(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/memories/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchHandlerRequiresQuery(t *testing.T) {
	router := newTestRouter(&fakeRepo{}, &fakeStorage{}, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/memories/search", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateHandlerMetadataOnly(t *testing.T) {
	repo := &fakeRepo{getFn: func(ctx context.Context, id string) (*Memory, error) {
		return existingMemory(), nil
	}}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	req := newMultipartBody().
		field("title", "Dawn").
		request(http.MethodPut, "/memories/id-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var m Memory
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &m))
	assert.Equal(t, "Dawn", m.Title)
	assert.Equal(t, "Beach at dusk", m.Description)
	assert.Zero(t, store.uploads)
	assert.Empty(t, store.deleted)
}

func TestDeleteHandlerNotFound(t *testing.T) {
	repo := &fakeRepo{}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/memories/does-not-exist", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, store.deleted, "no object-store calls for a missing record")
	assert.Empty(t, store.deletedURLs)
}

func TestDeleteHandlerSuccess(t *testing.T) {
	repo := &fakeRepo{getFn: func(ctx context.Context, id string) (*Memory, error) {
		return existingMemory(), nil
	}}
	store := &fakeStorage{}
	router := newTestRouter(repo, store, testConfig())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/memories/id-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{}`, string(env.Data))
	assert.Equal(t, []string{"old.jpg"}, store.deleted)
}
