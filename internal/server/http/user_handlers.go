package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aziztraorebf-ctrl/arbitragevault-bookfinder/internal/domain"
)

// createUserRequest is the JSON request body for creating a user.
type createUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=200"`
	Role  string `json:"role" validate:"required,oneof=admin sourcer"`
}

// updateUserRequest is the JSON request body for updating a user.
type updateUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=200"`
	Role  string `json:"role" validate:"required,oneof=admin sourcer"`
}

// createUser handles POST /api/v1/users.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	user := &domain.User{
		Email: req.Email,
		Name:  req.Name,
		Role:  domain.UserRole(req.Role),
	}

	if err := s.userRepo.Create(r.Context(), user); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// getUser handles GET /api/v1/users/{userID}.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, chi.URLParam(r, "userID"), "user_id")
	if !ok {
		return
	}

	user, err := s.userRepo.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// listUsers handles GET /api/v1/users.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	page, err := s.userRepo.List(r.Context(), parsePageRequest(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// updateUser handles PUT /api/v1/users/{userID}.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, chi.URLParam(r, "userID"), "user_id")
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON request body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		writeValidationError(w, err)
		return
	}

	user := &domain.User{
		ID:    id,
		Email: req.Email,
		Name:  req.Name,
		Role:  domain.UserRole(req.Role),
	}

	if err := s.userRepo.Update(r.Context(), user); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// deleteUser handles DELETE /api/v1/users/{userID}.
// Users still referenced by batches cannot be deleted.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, chi.URLParam(r, "userID"), "user_id")
	if !ok {
		return
	}

	if err := s.userRepo.Delete(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
