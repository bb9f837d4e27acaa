package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/booklend/internal/middleware"
	"github.com/crucial707/booklend/internal/models"
	"github.com/crucial707/booklend/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type BookHandler struct {
	Books   *repo.BookRepo
	Borrows *repo.BorrowRepo
	Audit   *repo.AuditRepo
}

//
// ==========================
// Create Book (author role only)
// ==========================
//

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	role, _ := middleware.GetRole(r.Context())
	if role != models.RoleAuthor {
		JSONError(w, "only authors can create books", http.StatusForbidden)
		return
	}

	var input struct {
		Title string `json:"title" validate:"required,min=1,max=255"`
		Genre string `json:"genre" validate:"required,min=1,max=100"`
		Stock int    `json:"stock" validate:"gte=0"`
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

	callerID, _ := middleware.GetUserID(r.Context())

	book, err := h.Books.Create(r.Context(), input.Title, input.Genre, input.Stock, callerID)
	if err != nil {
		slog.Error("create book failed", "author_id", callerID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), callerID, "create", "book", book.ID, book.Title)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(book)
}

//
// ==========================
// List Books (optional genre / title filters; author name joined)
// ==========================
//

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	genre := r.URL.Query().Get("genre")
	title := r.URL.Query().Get("title")

	books, err := h.Books.List(r.Context(), genre, title)
	if err != nil {
		slog.Error("list books failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []models.BookWithAuthor{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

//
// ==========================
// List Books By Author
// ==========================
//

func (h *BookHandler) ListBooksByAuthor(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "authorId")
	authorID, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid author id", http.StatusBadRequest)
		return
	}

	books, err := h.Books.ListByAuthor(r.Context(), authorID)
	if err != nil {
		slog.Error("list books by author failed", "author_id", authorID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []models.Book{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(books)
}

//
// ==========================
// Get Book By ID
// ==========================
//

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid book id", http.StatusBadRequest)
		return
	}

	book, err := h.Books.GetByIDWithAuthor(r.Context(), id)
	if errors.Is(err, repo.ErrBookNotFound) {
		JSONError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("get book failed", "book_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(book)
}

//
// ==========================
// Update Book (owning author only; partial patch)
// ==========================
//

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid book id", http.StatusBadRequest)
		return
	}

	book, err := h.Books.GetByID(r.Context(), id)
	if errors.Is(err, repo.ErrBookNotFound) {
		JSONError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("update book: load failed", "book_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if !h.callerOwnsBook(r, book) {
		JSONError(w, "only the author can update their books", http.StatusForbidden)
		return
	}

	var input struct {
		Title *string `json:"title" validate:"omitempty,min=1,max=255"`
		Genre *string `json:"genre" validate:"omitempty,min=1,max=100"`
		Stock *int    `json:"stock" validate:"omitempty,gte=0"`
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

	updated, err := h.Books.UpdateByID(r.Context(), id, input.Title, input.Genre, input.Stock)
	if errors.Is(err, repo.ErrBookNotFound) {
		JSONError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("update book failed", "book_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		callerID, _ := middleware.GetUserID(r.Context())
		_ = h.Audit.Log(r.Context(), callerID, "update", "book", id, "")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

//
// ==========================
// Delete Book (owning author only; refused while copies are on loan)
// ==========================
//

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		JSONError(w, "invalid book id", http.StatusBadRequest)
		return
	}

	book, err := h.Books.GetByID(r.Context(), id)
	if errors.Is(err, repo.ErrBookNotFound) {
		JSONError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("delete book: load failed", "book_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if !h.callerOwnsBook(r, book) {
		JSONError(w, "only the author can delete their books", http.StatusForbidden)
		return
	}

	onLoan, err := h.Borrows.HasOpenForBook(r.Context(), id)
	if err != nil {
		slog.Error("delete book: open loan check failed", "book_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if onLoan {
		JSONError(w, "book has copies on loan", http.StatusConflict)
		return
	}

	if err := h.Books.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrBookNotFound) {
			JSONError(w, "book not found", http.StatusNotFound)
			return
		}
		slog.Error("delete book failed", "book_id", id, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if h.Audit != nil {
		callerID, _ := middleware.GetUserID(r.Context())
		_ = h.Audit.Log(r.Context(), callerID, "delete", "book", id, book.Title)
	}

	JSONMessage(w, "book deleted successfully", http.StatusOK)
}

// callerOwnsBook reports whether the request comes from the book's owning author.
func (h *BookHandler) callerOwnsBook(r *http.Request, book models.Book) bool {
	role, _ := middleware.GetRole(r.Context())
	callerID, _ := middleware.GetUserID(r.Context())
	return role == models.RoleAuthor && callerID == book.AuthorID
}
