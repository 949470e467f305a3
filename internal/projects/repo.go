package projects

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlasworks/portfolio-backend/internal/media"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// Create persists a project and its media rows in one transaction. A
// failure rolls the whole record back; no partial project becomes visible.
func (r *Repo) Create(ctx context.Context, in CreateInput) (*Project, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	p := &Project{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Categories:  in.Categories,
		Media:       in.Media,
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	if p.Media == nil {
		p.Media = []media.Item{}
	}

	const q = `
insert into projects (id, title, description, categories)
values ($1::uuid, $2, $3, $4)
returning created_at, updated_at;
`
	if err := tx.QueryRow(ctx, q, p.ID, p.Title, p.Description, p.Categories).
		Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}

	const mq = `
insert into project_media (project_id, idx, file_link, file_type)
values ($1::uuid, $2, $3, $4);
`
	for _, m := range p.Media {
		if _, err := tx.Exec(ctx, mq, p.ID, m.Index, m.FileLink, m.FileType); err != nil {
			return nil, fmt.Errorf("insert media %d: %w", m.Index, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// List returns projects in insertion order, each with its media loaded.
// When category is non-empty only projects whose categories contain the
// exact value are returned.
func (r *Repo) List(ctx context.Context, category string) ([]Project, error) {
	const all = `
select id, title, description, categories, created_at, updated_at
from projects
order by created_at;
`
	const filtered = `
select id, title, description, categories, created_at, updated_at
from projects
where $1 = any(categories)
order by created_at;
`
	var (
		rows pgx.Rows
		err  error
	)
	if category == "" {
		rows, err = r.db.Query(ctx, all)
	} else {
		rows, err = r.db.Query(ctx, filtered, category)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachMedia(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns the project for the given id, ErrNotFound when no row
// matches, and a plain error for a malformed id or storage failure.
func (r *Repo) GetByID(ctx context.Context, id string) (*Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid project id %q: %w", id, err)
	}

	const q = `
select id, title, description, categories, created_at, updated_at
from projects
where id = $1::uuid;
`
	var p Project
	err := r.db.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.Title, &p.Description, &p.Categories, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	p.Media = []media.Item{}

	list := []Project{p}
	if err := r.attachMedia(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

// AllCategories computes the distinct category vocabulary across the whole
// corpus. It is recomputed on every call; nothing is materialized.
func (r *Repo) AllCategories(ctx context.Context) ([]string, error) {
	const q = `select distinct unnest(categories) from projects;`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0, 16)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanProject(rows pgx.Rows) (*Project, error) {
	var p Project
	if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Categories, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.Categories == nil {
		p.Categories = []string{}
	}
	p.Media = []media.Item{}
	return &p, nil
}

// attachMedia loads media rows for every listed project in one query.
func (r *Repo) attachMedia(ctx context.Context, list []Project) error {
	if len(list) == 0 {
		return nil
	}

	ids := make([]string, 0, len(list))
	byID := make(map[string]*Project, len(list))
	for i := range list {
		ids = append(ids, list[i].ID)
		byID[list[i].ID] = &list[i]
	}

	const q = `
select project_id, idx, file_link, file_type
from project_media
where project_id = any($1::uuid[])
order by project_id, idx;
`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			projectID string
			item      media.Item
		)
		if err := rows.Scan(&projectID, &item.Index, &item.FileLink, &item.FileType); err != nil {
			return err
		}
		if p, ok := byID[projectID]; ok {
			p.Media = append(p.Media, item)
		}
	}
	return rows.Err()
}
