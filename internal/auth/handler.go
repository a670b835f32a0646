package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/memorybox/service/internal/response"
	"github.com/memorybox/service/internal/user"
)

// Handler holds HTTP handlers for authentication endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// Register godoc
//
//	@Summary		Register a new account
//	@Description	Creates a user account and returns a bearer token.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		registerRequest	true	"Account details"
//	@Success		201		{object}	response.Envelope{data=tokenResponse}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Router			/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", "VALIDATION_ERROR")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, "Email and password are required", "MISSING_REQUIRED_FIELDS")
		return
	}

	token, u, err := h.svc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, ErrWeakPassword):
			response.BadRequest(w, err.Error(), "VALIDATION_ERROR")
		case errors.Is(err, user.ErrAlreadyExists):
			response.Conflict(w, "An account with this email already exists", "DUPLICATE_EMAIL")
		default:
			response.InternalError(w)
		}
		return
	}

	response.Created(w, "Account created successfully", tokenResponse{Token: token, User: u})
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Verifies credentials and returns a bearer token.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=tokenResponse}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", "VALIDATION_ERROR")
		return
	}
	if req.Email == "" || req.Password == "" {
		response.BadRequest(w, "Email and password are required", "MISSING_REQUIRED_FIELDS")
		return
	}

	token, u, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Unauthorized(w, "Invalid email or password")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, "Logged in successfully", tokenResponse{Token: token, User: u})
}
