package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/atlasworks/portfolio-backend/internal/media"
)

// Repository is the persistence surface the handlers need. *Repo satisfies
// it; tests inject an in-memory implementation.
type Repository interface {
	Create(ctx context.Context, in CreateInput) (*Project, error)
	List(ctx context.Context, category string) ([]Project, error)
	GetByID(ctx context.Context, id string) (*Project, error)
	AllCategories(ctx context.Context) ([]string, error)
}

type Handler struct {
	repo      Repository
	media     *media.Store
	maxUpload int64
	log       zerolog.Logger
}

func NewHandler(repo Repository, store *media.Store, maxUpload int64, log zerolog.Logger) *Handler {
	return &Handler{
		repo:      repo,
		media:     store,
		maxUpload: maxUpload,
		log:       log.With().Str("component", "projects").Logger(),
	}
}

// Register attaches project routes to the given router group.
func Register(rg *gin.RouterGroup, h *Handler) {
	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
}

// ListResponse is the GET /api/projects payload. AllCategories always
// covers the whole corpus regardless of the category filter.
type ListResponse struct {
	Projects      []Project `json:"projects"`
	AllCategories []string  `json:"allCategories"`
}

// create godoc
// @Summary Create a new project with media files
// @Tags projects
// @Accept multipart/form-data
// @Produce json
// @Param title formData string false "Project title"
// @Param description formData string false "Project description"
// @Param categories formData string false "JSON array of categories, or comma-separated string"
// @Param media formData file false "Media files, repeatable"
// @Success 201 {object} Project
// @Failure 500 {object} map[string]string
// @Router /projects [post]
func (h *Handler) create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	form, err := c.MultipartForm()
	if err != nil {
		h.fail(c, err)
		return
	}

	items, err := h.media.SaveAll(requestBaseURL(c), form.File["media"])
	if err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.repo.Create(c.Request.Context(), CreateInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Categories:  ParseCategories(c.PostForm("categories")),
		Media:       items,
	})
	if err != nil {
		// files already stored stay on disk
		h.fail(c, err)
		return
	}

	h.log.Info().Str("id", p.ID).Int("media", len(p.Media)).Msg("project created")
	c.JSON(http.StatusCreated, p)
}

// list godoc
// @Summary List projects with optional category filter
// @Tags projects
// @Produce json
// @Param category query string false "Filter by exact category"
// @Success 200 {object} ListResponse
// @Failure 500 {object} map[string]string
// @Router /projects [get]
func (h *Handler) list(c *gin.Context) {
	ctx := c.Request.Context()

	items, err := h.repo.List(ctx, c.Query("category"))
	if err != nil {
		h.fail(c, err)
		return
	}

	cats, err := h.repo.AllCategories(ctx)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Projects: items, AllCategories: cats})
}

// get godoc
// @Summary Get a project by ID
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} Project
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /projects/{id} [get]
func (h *Handler) get(c *gin.Context) {
	p, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// requestBaseURL rebuilds the public base URL from the request itself; the
// store has no configured base URL of its own.
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
