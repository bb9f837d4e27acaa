package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/booklend/internal/middleware"
	"github.com/crucial707/booklend/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Users   *repo.UserRepo
	Borrows *repo.BorrowRepo
	Audit   *repo.AuditRepo
}

// ==========================
// Update User (self only; role is immutable)
// ==========================
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	callerID, ok := middleware.GetUserID(r.Context())
	if !ok || callerID != id {
		JSONError(w, "you can only update your own account", http.StatusForbidden)
		return
	}

	var input struct {
		Name     string `json:"name" validate:"omitempty,max=255"`
		Password string `json:"password" validate:"omitempty,min=8,max=72"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var hash string
	if input.Password != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		hash = string(b)
	}

	user, err := h.Users.Update(r.Context(), id, input.Name, hash)
	if errors.Is(err, repo.ErrUserNotFound) {
		JSONError(w, "user not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("update user failed", "user_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), callerID, "update", "user", id, "")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}

// ==========================
// Delete User (self only; refused while the account has open loans)
// ==========================
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	callerID, ok := middleware.GetUserID(r.Context())
	if !ok || callerID != id {
		JSONError(w, "you can only delete your own account", http.StatusForbidden)
		return
	}

	open, err := h.Borrows.CountOpen(r.Context(), id)
	if err != nil {
		slog.Error("delete user: count open loans failed", "user_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if open > 0 {
		JSONError(w, "return all borrowed books before deleting the account", http.StatusConflict)
		return
	}

	if err := h.Users.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			JSONError(w, "user not found", http.StatusNotFound)
			return
		}
		slog.Error("delete user failed", "user_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), callerID, "delete", "user", id, "")
	}

	JSONMessage(w, "user deleted successfully", http.StatusOK)
}
