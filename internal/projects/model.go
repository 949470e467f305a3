package projects

import (
	"errors"
	"time"

	"github.com/atlasworks/portfolio-backend/internal/media"
)

// ErrNotFound is returned when no project exists for a given id.
var ErrNotFound = errors.New("project not found")

// Project is a single portfolio item. Categories keep their write-time
// order and duplicates; media items are owned by the project and ordered
// by their index.
type Project struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Categories  []string     `json:"categories"`
	Media       []media.Item `json:"media"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// CreateInput carries everything needed to persist a new project. The
// media descriptors are produced by the media store before persistence.
type CreateInput struct {
	Title       string
	Description string
	Categories  []string
	Media       []media.Item
}
