package memory

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/memorybox/service/internal/config"
	"github.com/memorybox/service/internal/response"
	"github.com/memorybox/service/internal/storage"
)

// multipartMemory caps how much of a parsed form is held in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// Handler holds HTTP handlers for memory endpoints.
type Handler struct {
	svc   *Service
	store storage.Storage
	cfg   *config.Config
}

// NewHandler creates a new memory Handler.
func NewHandler(svc *Service, store storage.Storage, cfg *config.Config) *Handler {
	return &Handler{svc: svc, store: store, cfg: cfg}
}

// Create godoc
//
//	@Summary		Create a memory
//	@Description	Uploads a media file and stores a new memory record.
//	@Tags			memories
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			title		formData	string	true	"Title (max 100 chars)"
//	@Param			description	formData	string	true	"Description (max 1000 chars)"
//	@Param			location	formData	string	false	"Location"
//	@Param			tags		formData	string	false	"Comma-separated tags"
//	@Param			media		formData	file	true	"Image or video file"
//	@Success		201			{object}	response.Envelope{data=Memory}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/memories [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.writeParseError(w, err)
		return
	}

	file, header, err := r.FormFile("media")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.BadRequest(w, "Please upload a file", "NO_FILE_UPLOADED")
			return
		}
		response.BadRequest(w, "Invalid media field", "VALIDATION_ERROR")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	mediaType, ok := mediaTypeFor(contentType)
	if !ok {
		response.BadRequest(w, "Only image and video files are allowed", "UNSUPPORTED_MEDIA_TYPE")
		return
	}

	res, err := h.store.Upload(r.Context(), objectKey(header.Filename), file, header.Size, contentType)
	if err != nil {
		log.Error().Err(err).Msg("media upload failed")
		response.InternalError(w)
		return
	}

	in := CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
		Media: &UploadedMedia{
			URL:       res.URL,
			ObjectID:  res.ObjectID,
			MediaType: mediaType,
		},
	}
	if v := r.FormValue("tags"); v != "" {
		in.Tags = ParseTags(v)
	}

	m, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, "Memory created successfully", m)
}

// List godoc
//
//	@Summary	List memories
//	@Tags		memories
//	@Produce	json
//	@Success	200	{object}	response.Envelope{data=[]Memory}
//	@Failure	500	{object}	response.Envelope
//	@Router		/memories [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	memories, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.List(w, len(memories), memories)
}

// Search godoc
//
//	@Summary	Search memories
//	@Tags		memories
//	@Produce	json
//	@Param		q	query		string	true	"Free-text query over title, description, and tags"
//	@Success	200	{object}	response.Envelope{data=[]Memory}
//	@Failure	400	{object}	response.Envelope
//	@Router		/memories/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		response.BadRequest(w, "Query parameter q is required", "VALIDATION_ERROR")
		return
	}
	memories, err := h.svc.Search(r.Context(), query)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.List(w, len(memories), memories)
}

// Get godoc
//
//	@Summary	Get a memory
//	@Tags		memories
//	@Produce	json
//	@Param		id	path		string	true	"Memory ID"
//	@Success	200	{object}	response.Envelope{data=Memory}
//	@Failure	404	{object}	response.Envelope
//	@Router		/memories/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, "", m)
}

// Update godoc
//
//	@Summary		Update a memory
//	@Description	Updates metadata fields and optionally replaces the media file. Empty fields are left unchanged.
//	@Tags			memories
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id			path		string	true	"Memory ID"
//	@Param			title		formData	string	false	"Title"
//	@Param			description	formData	string	false	"Description"
//	@Param			location	formData	string	false	"Location"
//	@Param			tags		formData	string	false	"Comma-separated tags"
//	@Param			media		formData	file	false	"Replacement image or video file"
//	@Success		200			{object}	response.Envelope{data=Memory}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Router			/memories/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		h.writeParseError(w, err)
		return
	}

	in := UpdateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Location:    r.FormValue("location"),
	}
	if v := r.FormValue("tags"); v != "" {
		in.Tags = ParseTags(v)
	}

	file, header, err := r.FormFile("media")
	switch {
	case err == nil:
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		mediaType, ok := mediaTypeFor(contentType)
		if !ok {
			response.BadRequest(w, "Only image and video files are allowed", "UNSUPPORTED_MEDIA_TYPE")
			return
		}

		res, err := h.store.Upload(r.Context(), objectKey(header.Filename), file, header.Size, contentType)
		if err != nil {
			log.Error().Err(err).Msg("media upload failed")
			response.InternalError(w)
			return
		}
		in.Media = &UploadedMedia{URL: res.URL, ObjectID: res.ObjectID, MediaType: mediaType}
	case errors.Is(err, http.ErrMissingFile):
		// metadata-only update
	default:
		response.BadRequest(w, "Invalid media field", "VALIDATION_ERROR")
		return
	}

	m, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, "Memory updated successfully", m)
}

// Delete godoc
//
//	@Summary	Delete a memory
//	@Tags		memories
//	@Produce	json
//	@Security	BearerAuth
//	@Param		id	path		string	true	"Memory ID"
//	@Success	200	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/memories/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, "Memory deleted successfully", struct{}{})
}

// writeParseError maps multipart parsing failures, distinguishing oversized
// uploads from malformed bodies.
func (h *Handler) writeParseError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.BadRequest(w,
			fmt.Sprintf("File exceeds the %d MB upload limit", h.cfg.MaxUploadMB),
			"FILE_TOO_LARGE")
		return
	}
	response.BadRequest(w, "Invalid multipart form", "VALIDATION_ERROR")
}

// writeError maps service errors to HTTP responses with stable error codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNoMedia):
		response.BadRequest(w, "Please upload a file", "NO_FILE_UPLOADED")
	case errors.Is(err, ErrMissingFields):
		response.BadRequest(w, "Title and description are required", "MISSING_REQUIRED_FIELDS")
	case errors.Is(err, ErrDuplicateTitle):
		response.BadRequest(w, "A memory with this title already exists", "DUPLICATE_TITLE")
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, "Memory not found")
	case errors.As(err, &ve):
		response.FailWithDetails(w, http.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", ve.Error())
	default:
		log.Error().Err(err).Msg("memory operation failed")
		if h.cfg.IsProduction() {
			response.InternalError(w)
			return
		}
		response.FailWithDetails(w, http.StatusInternalServerError,
			"An unexpected error occurred", "SERVER_ERROR", err.Error())
	}
}

// mediaTypeFor derives the stored media type from a declared MIME type.
func mediaTypeFor(contentType string) (string, bool) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return MediaTypeImage, true
	case strings.HasPrefix(contentType, "video/"):
		return MediaTypeVideo, true
	default:
		return "", false
	}
}

// objectKey mints a unique object-store key, keeping the original extension.
func objectKey(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}
