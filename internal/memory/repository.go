// Package memory manages memory records: metadata persistence and the
// lifecycle coordination that keeps records and their stored media consistent.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Media types a memory can hold.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

const (
	maxTitleLen       = 100
	maxDescriptionLen = 1000
)

// Memory is a single stored memory: user-supplied metadata plus a reference
// to the media object held in the object store.
type Memory struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Tags        []string `json:"tags"`
	MediaURL    string   `json:"mediaUrl"`
	MediaType   string   `json:"mediaType"`
	// StorageObjectID is the object-store key needed to delete the media
	// later. Nil on legacy records that predate object-id tracking.
	StorageObjectID *string   `json:"storageObjectId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ErrNotFound is returned when a memory does not exist.
var ErrNotFound = errors.New("memory not found")

// ErrDuplicateTitle is returned when a uniqueness constraint on the title is
// violated. No such constraint ships by default, but the repository still
// classifies it correctly if an operator adds one.
var ErrDuplicateTitle = errors.New("a memory with this title already exists")

// ValidationError reports a field constraint violation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// validate enforces the field constraints of a memory record.
func validate(m *Memory) error {
	if strings.TrimSpace(m.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	if utf8.RuneCountInString(m.Title) > maxTitleLen {
		return &ValidationError{Field: "title", Reason: fmt.Sprintf("title cannot be more than %d characters", maxTitleLen)}
	}
	if utf8.RuneCountInString(m.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Reason: fmt.Sprintf("description cannot be more than %d characters", maxDescriptionLen)}
	}
	if m.MediaURL == "" {
		return &ValidationError{Field: "mediaUrl", Reason: "media URL is required"}
	}
	if m.MediaType != MediaTypeImage && m.MediaType != MediaTypeVideo {
		return &ValidationError{Field: "mediaType", Reason: "media type must be image or video"}
	}
	return nil
}

// ParseTags splits a comma-separated tag string into trimmed non-empty tokens.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

const memoryColumns = `id, title, description, location, tags, media_url, media_type, storage_object_id, created_at, updated_at`

// Repository handles all memory database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create validates and inserts a new memory, returning the stored record.
func (r *Repository) Create(ctx context.Context, m *Memory) (*Memory, error) {
	if err := validate(m); err != nil {
		return nil, err
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}

	created := &Memory{}
	err := r.db.QueryRow(ctx,
		`INSERT INTO memories (title, description, location, tags, media_url, media_type, storage_object_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+memoryColumns,
		m.Title, m.Description, m.Location, m.Tags, m.MediaURL, m.MediaType, m.StorageObjectID,
	).Scan(scanTargets(created)...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, fmt.Errorf("insert memory: %w", err)
	}
	return created, nil
}

// GetByID fetches a memory by its UUID.
func (r *Repository) GetByID(ctx context.Context, id string) (*Memory, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	m := &Memory{}
	err := r.db.QueryRow(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE id = $1`,
		id,
	).Scan(scanTargets(m)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get memory by id: %w", err)
	}
	return m, nil
}

// List returns all memories, newest first.
func (r *Repository) List(ctx context.Context) ([]*Memory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// Search returns memories whose title, description, or tags contain the
// query, newest first.
func (r *Repository) Search(ctx context.Context, query string) ([]*Memory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+memoryColumns+` FROM memories
		 WHERE title ILIKE '%' || $1 || '%'
		    OR description ILIKE '%' || $1 || '%'
		    OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE '%' || $1 || '%')
		 ORDER BY created_at DESC`,
		query,
	)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

// Update validates and saves the full record, returning the stored version.
func (r *Repository) Update(ctx context.Context, m *Memory) (*Memory, error) {
	if err := validate(m); err != nil {
		return nil, err
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		return nil, ErrNotFound
	}

	updated := &Memory{}
	err := r.db.QueryRow(ctx,
		`UPDATE memories
		 SET title = $2, description = $3, location = $4, tags = $5,
		     media_url = $6, media_type = $7, storage_object_id = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+memoryColumns,
		m.ID, m.Title, m.Description, m.Location, m.Tags, m.MediaURL, m.MediaType, m.StorageObjectID,
	).Scan(scanTargets(updated)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateTitle
		}
		return nil, fmt.Errorf("update memory: %w", err)
	}
	return updated, nil
}

// Delete removes a memory by its UUID.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTargets(m *Memory) []any {
	return []any{
		&m.ID, &m.Title, &m.Description, &m.Location, &m.Tags,
		&m.MediaURL, &m.MediaType, &m.StorageObjectID, &m.CreatedAt, &m.UpdatedAt,
	}
}

func collect(rows pgx.Rows) ([]*Memory, error) {
	memories := []*Memory{}
	for rows.Next() {
		m := &Memory{}
		if err := rows.Scan(scanTargets(m)...); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		memories = append(memories, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}
	return memories, nil
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
