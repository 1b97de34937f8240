package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jayyveer/yarnbykrosh/internal/identity"
)

// AuthService is the slice of the identity service the auth endpoints use.
type AuthService interface {
	SignUp(ctx context.Context, email, name, password string) (*identity.User, string, error)
	SignIn(ctx context.Context, email, password string) (*identity.User, string, error)
	SignOut(ctx context.Context, token string) error
	Role(ctx context.Context, userID uuid.UUID) (identity.AdminRole, bool, error)
}

type AuthHandler struct {
	svc AuthService
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type credentialsDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type sessionResponseDTO struct {
	User  *identity.User `json:"user"`
	Token string         `json:"token"`
}

type meResponseDTO struct {
	User    *identity.User     `json:"user"`
	IsAdmin bool               `json:"is_admin"`
	Role    identity.AdminRole `json:"role,omitempty"`
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, token, err := h.svc.SignUp(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, sessionResponseDTO{User: user, Token: token})
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	user, token, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponseDTO{User: user, Token: token})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
		return
	}

	if err := h.svc.SignOut(r.Context(), token); err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Me returns the caller's account plus the admin flag the storefront uses
// to show or hide the back-office entry.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "missing user authentication")
		return
	}

	role, isAdmin, err := h.svc.Role(r.Context(), user.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meResponseDTO{User: user, IsAdmin: isAdmin, Role: role})
}
