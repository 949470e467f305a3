package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasworks/portfolio-backend/internal/media"
)

// fakeRepo is an in-memory Repository used to exercise the handlers
// without a database.
type fakeRepo struct {
	projects  []Project
	createErr error
	listErr   error
}

func (f *fakeRepo) Create(_ context.Context, in CreateInput) (*Project, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := Project{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Categories:  in.Categories,
		Media:       in.Media,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Media == nil {
		p.Media = []media.Item{}
	}
	f.projects = append(f.projects, p)
	return &p, nil
}

func (f *fakeRepo) List(_ context.Context, category string) ([]Project, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Project, 0, len(f.projects))
	for _, p := range f.projects {
		if category == "" || contains(p.Categories, category) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid project id %q: %w", id, err)
	}
	for i := range f.projects {
		if f.projects[i].ID == id {
			return &f.projects[i], nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) AllCategories(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range f.projects {
		for _, c := range p.Categories {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func newTestRouter(t *testing.T, repo Repository) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	store, err := media.NewStore(dir, zerolog.Nop())
	require.NoError(t, err)

	r := gin.New()
	h := NewHandler(repo, store, 64<<20, zerolog.Nop())
	Register(r.Group("/api/projects"), h)
	return r, dir
}

func multipartBody(t *testing.T, fields map[string]string, fileNames ...string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, name := range fileNames {
		fw, err := w.CreateFormFile("media", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("binary content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateProject_WithMedia(t *testing.T) {
	repo := &fakeRepo{}
	router, _ := newTestRouter(t, repo)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Villa A",
		"description": "Seafront villa",
		"categories":  `["lux","villa"]`,
	}, "front view.jpg", "pool.jpg")

	req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var p Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Villa A", p.Title)
	assert.Equal(t, "Seafront villa", p.Description)
	assert.Equal(t, []string{"lux", "villa"}, p.Categories)

	require.Len(t, p.Media, 2)
	for i, m := range p.Media {
		assert.Equal(t, i, m.Index)
		assert.Contains(t, m.FileLink, "http://"+req.Host+"/uploads/")
	}
	// whitespace in the original name never reaches the link
	assert.NotContains(t, p.Media[0].FileLink, " ")
}

func TestCreateProject_CommaSeparatedCategories(t *testing.T) {
	repo := &fakeRepo{}
	router, _ := newTestRouter(t, repo)

	body, contentType := multipartBody(t, map[string]string{
		"title":      "Loft",
		"categories": "urban, loft",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var p Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, []string{"urban", "loft"}, p.Categories)
	assert.Empty(t, p.Media)
}

func TestListProjects_FilterAndVocabulary(t *testing.T) {
	repo := &fakeRepo{}
	router, _ := newTestRouter(t, repo)

	seed := []CreateInput{
		{Title: "Villa A", Categories: []string{"lux", "villa"}},
		{Title: "Loft B", Categories: []string{"urban"}},
		{Title: "Villa C", Categories: []string{"villa"}},
	}
	for _, in := range seed {
		_, err := repo.Create(context.Background(), in)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/projects?category=villa", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

	require.Len(t, resp.Projects, 2)
	assert.Equal(t, "Villa A", resp.Projects[0].Title)
	assert.Equal(t, "Villa C", resp.Projects[1].Title)

	// vocabulary covers the whole corpus, not the filtered subset
	assert.ElementsMatch(t, []string{"lux", "villa", "urban"}, resp.AllCategories)
}

func TestListProjects_NoFilter(t *testing.T) {
	repo := &fakeRepo{}
	router, _ := newTestRouter(t, repo)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(context.Background(), CreateInput{Title: fmt.Sprintf("p%d", i)})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Projects, 3)
	assert.Empty(t, resp.AllCategories)
}

func TestGetProject_RoundTrip(t *testing.T) {
	repo := &fakeRepo{}
	router, _ := newTestRouter(t, repo)

	body, contentType := multipartBody(t, map[string]string{
		"title":       "Villa A",
		"description": "desc",
		"categories":  `["lux"]`,
	}, "photo.jpg")

	req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	var created Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	req = httptest.NewRequest(http.MethodGet, "/api/projects/"+created.ID, nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched Project
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Title, fetched.Title)
	assert.Equal(t, created.Description, fetched.Description)
	assert.Equal(t, created.Categories, fetched.Categories)
	assert.Equal(t, created.Media, fetched.Media)
}

func TestGetProject_NotFound(t *testing.T) {
	repo := &fakeRepo{}
	router, _ := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Not found", resp["message"])
}

func TestGetProject_MalformedID(t *testing.T) {
	repo := &fakeRepo{}
	router, _ := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/projects/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "invalid project id")
}

func TestCreateProject_RepoFailureLeavesFilesOnDisk(t *testing.T) {
	repo := &fakeRepo{createErr: errors.New("storage unavailable")}
	router, dir := newTestRouter(t, repo)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Doomed",
	}, "a.jpg", "b.jpg")

	req := httptest.NewRequest(http.MethodPost, "/api/projects", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	// orphan policy: written files survive the failed persistence
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestListProjects_RepoError(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	router, _ := newTestRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Contains(t, resp["error"], "connection refused")
}
