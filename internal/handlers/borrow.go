package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/booklend/internal/metrics"
	"github.com/crucial707/booklend/internal/middleware"
	"github.com/crucial707/booklend/internal/models"
	"github.com/crucial707/booklend/internal/repo"
	"github.com/go-chi/chi/v5"
)

// ==========================
// BorrowHandler
// ==========================
type BorrowHandler struct {
	Borrows *repo.BorrowRepo
	Audit   *repo.AuditRepo
}

// ==========================
// Borrow Book (reader role only)
// ==========================
func (h *BorrowHandler) BorrowBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.Atoi(chi.URLParam(r, "bookId"))
	if err != nil {
		JSONError(w, "invalid book id", http.StatusBadRequest)
		return
	}

	role, _ := middleware.GetRole(r.Context())
	if role != models.RoleReader {
		JSONError(w, "only readers can borrow books", http.StatusForbidden)
		return
	}
	callerID, _ := middleware.GetUserID(r.Context())

	err = h.Borrows.Borrow(r.Context(), callerID, bookID)
	switch {
	case errors.Is(err, repo.ErrBorrowLimit):
		metrics.RecordBorrowRejection("limit_exceeded")
		JSONError(w, "you have reached the maximum limit of borrowed books (5)", http.StatusBadRequest)
		return
	case errors.Is(err, repo.ErrBookNotFound):
		metrics.RecordBorrowRejection("not_found")
		JSONError(w, "book not found", http.StatusNotFound)
		return
	case errors.Is(err, repo.ErrOutOfStock):
		metrics.RecordBorrowRejection("out_of_stock")
		JSONError(w, "book is out of stock", http.StatusBadRequest)
		return
	case err != nil:
		slog.Error("borrow failed", "user_id", callerID, "book_id", bookID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.BorrowsTotal.Inc()
	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), callerID, "borrow", "book", bookID, "")
	}

	JSONMessage(w, "book borrowed successfully", http.StatusOK)
}

// ==========================
// Return Book
// ==========================
func (h *BorrowHandler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := strconv.Atoi(chi.URLParam(r, "bookId"))
	if err != nil {
		JSONError(w, "invalid book id", http.StatusBadRequest)
		return
	}

	callerID, _ := middleware.GetUserID(r.Context())

	err = h.Borrows.Return(r.Context(), callerID, bookID)
	switch {
	case errors.Is(err, repo.ErrNoActiveBorrow):
		JSONError(w, "no active borrow record found for this book", http.StatusNotFound)
		return
	case errors.Is(err, repo.ErrBookNotFound):
		JSONError(w, "book not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("return failed", "user_id", callerID, "book_id", bookID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.ReturnsTotal.Inc()
	if h.Audit != nil {
		_ = h.Audit.Log(r.Context(), callerID, "return", "book", bookID, "")
	}

	JSONMessage(w, "book returned successfully", http.StatusOK)
}

// ==========================
// My Books (open loans only)
// ==========================
func (h *BorrowHandler) MyBooks(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	records, err := h.Borrows.ListOpenByUser(r.Context(), callerID)
	if err != nil {
		slog.Error("list open loans failed", "user_id", callerID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.BorrowRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// ==========================
// History (open and closed loans, newest first)
// ==========================
func (h *BorrowHandler) History(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.GetUserID(r.Context())

	records, err := h.Borrows.HistoryByUser(r.Context(), callerID)
	if err != nil {
		slog.Error("list borrow history failed", "user_id", callerID, "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.BorrowRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
