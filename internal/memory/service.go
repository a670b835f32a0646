package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/memorybox/service/internal/metrics"
)

// ErrNoMedia is returned when a create request carries no media file.
var ErrNoMedia = errors.New("no media file uploaded")

// ErrMissingFields is returned when a create request lacks title or description.
var ErrMissingFields = errors.New("title and description are required")

// UploadedMedia references a blob that has already been stored: the handler
// streams the multipart file to the object store before invoking the service.
type UploadedMedia struct {
	URL       string
	ObjectID  string
	MediaType string
}

// CreateInput carries the validated fields of a create request.
type CreateInput struct {
	Title       string
	Description string
	Location    string
	Tags        []string
	Media       *UploadedMedia
}

// UpdateInput carries the optional field changes of an update request.
// Empty strings and a nil Tags slice mean "no change", not "clear".
type UpdateInput struct {
	Title       string
	Description string
	Location    string
	Tags        []string
	Media       *UploadedMedia
}

// repository is the persistence surface the service depends on.
type repository interface {
	Create(ctx context.Context, m *Memory) (*Memory, error)
	GetByID(ctx context.Context, id string) (*Memory, error)
	List(ctx context.Context) ([]*Memory, error)
	Search(ctx context.Context, query string) ([]*Memory, error)
	Update(ctx context.Context, m *Memory) (*Memory, error)
	Delete(ctx context.Context, id string) error
}

// blobStore is the object-store surface the service depends on.
type blobStore interface {
	Delete(ctx context.Context, objectID string) error
	DeleteByURL(ctx context.Context, url string) error
}

// Service coordinates the memory lifecycle across the metadata repository and
// the object store so that neither is left referencing the other's failures.
type Service struct {
	repo  repository
	store blobStore
}

// NewService creates a new memory Service.
func NewService(repo repository, store blobStore) *Service {
	return &Service{repo: repo, store: store}
}

// Create persists a new memory for an already-uploaded media blob. If
// validation or persistence fails, the uploaded blob is deleted so it is not
// orphaned.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Memory, error) {
	if in.Media == nil {
		return nil, ErrNoMedia
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		s.discard(ctx, in.Media.ObjectID, "")
		return nil, ErrMissingFields
	}

	location := strings.TrimSpace(in.Location)
	if location == "" {
		location = "Unknown"
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	objectID := in.Media.ObjectID
	m := &Memory{
		Title:           title,
		Description:     description,
		Location:        location,
		Tags:            tags,
		MediaURL:        in.Media.URL,
		MediaType:       in.Media.MediaType,
		StorageObjectID: &objectID,
	}

	created, err := s.repo.Create(ctx, m)
	if err != nil {
		s.discard(ctx, in.Media.ObjectID, "")
		var ve *ValidationError
		if errors.As(err, &ve) || errors.Is(err, ErrDuplicateTitle) {
			return nil, err
		}
		return nil, fmt.Errorf("create memory: %w", err)
	}
	return created, nil
}

// GetByID returns a single memory.
func (s *Service) GetByID(ctx context.Context, id string) (*Memory, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns all memories, newest first.
func (s *Service) List(ctx context.Context) ([]*Memory, error) {
	return s.repo.List(ctx)
}

// Search returns memories matching the free-text query, newest first.
func (s *Service) Search(ctx context.Context, query string) ([]*Memory, error) {
	return s.repo.Search(ctx, query)
}

// Update applies the provided field changes to an existing memory. When a
// replacement blob is supplied, the old blob is deleted only after the new
// reference is durably saved, so the record never points at a missing object.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Memory, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if in.Media != nil {
			s.discard(ctx, in.Media.ObjectID, "")
		}
		return nil, err
	}

	if t := strings.TrimSpace(in.Title); t != "" {
		m.Title = t
	}
	if d := strings.TrimSpace(in.Description); d != "" {
		m.Description = d
	}
	if l := strings.TrimSpace(in.Location); l != "" {
		m.Location = l
	}
	if in.Tags != nil {
		m.Tags = in.Tags
	}

	var oldObjectID, oldURL string
	if in.Media != nil {
		if m.StorageObjectID != nil {
			oldObjectID = *m.StorageObjectID
		} else {
			oldURL = m.MediaURL
		}
		objectID := in.Media.ObjectID
		m.MediaURL = in.Media.URL
		m.MediaType = in.Media.MediaType
		m.StorageObjectID = &objectID
	}

	updated, err := s.repo.Update(ctx, m)
	if err != nil {
		if in.Media != nil {
			s.discard(ctx, in.Media.ObjectID, "")
		}
		var ve *ValidationError
		if errors.As(err, &ve) || errors.Is(err, ErrDuplicateTitle) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update memory: %w", err)
	}

	if in.Media != nil {
		s.discard(ctx, oldObjectID, oldURL)
	}
	return updated, nil
}

// Delete removes a memory. The blob deletion is advisory: its failure is
// logged but never blocks the authoritative record deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if m.StorageObjectID != nil && *m.StorageObjectID != "" {
		s.discard(ctx, *m.StorageObjectID, "")
	} else if m.MediaURL != "" {
		log.Warn().Str("id", m.ID).Msg("memory has no storage object id, falling back to media url")
		s.discard(ctx, "", m.MediaURL)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete memory: %w", err)
	}
	return nil
}

// discard deletes a blob best-effort, by object id when available and by URL
// as a degraded fallback. Compensating cleanup must never mask the primary
// error, so failures are logged and dropped.
func (s *Service) discard(ctx context.Context, objectID, mediaURL string) {
	var err error
	switch {
	case objectID != "":
		err = s.store.Delete(ctx, objectID)
	case mediaURL != "":
		err = s.store.DeleteByURL(ctx, mediaURL)
	default:
		return
	}
	if err != nil {
		metrics.BlobDeleteFailures.Inc()
		log.Warn().Err(err).
			Str("object_id", objectID).
			Str("media_url", mediaURL).
			Msg("best-effort blob delete failed")
	}
}
