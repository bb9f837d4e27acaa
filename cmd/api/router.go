package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/crucial707/booklend/internal/config"
	"github.com/crucial707/booklend/internal/handlers"
	mw "github.com/crucial707/booklend/internal/middleware"
	"github.com/crucial707/booklend/internal/repo"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// newRouter builds the full API router. Kept separate from main so the
// integration tests can run the router against a mocked DB.
func newRouter(db *sql.DB, cfg config.Config) http.Handler {
	userRepo := repo.NewUserRepo(db)
	bookRepo := repo.NewBookRepo(db)
	borrowRepo := repo.NewBorrowRepo(db)
	auditRepo := repo.NewAuditRepo(db)

	ttl := time.Duration(cfg.JWTExpireHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	authH := &handlers.AuthHandler{Users: userRepo, Secret: []byte(cfg.JWTSecret), TokenTTL: ttl}
	userH := &handlers.UserHandler{Users: userRepo, Borrows: borrowRepo, Audit: auditRepo}
	bookH := &handlers.BookHandler{Books: bookRepo, Borrows: borrowRepo, Audit: auditRepo}
	borrowH := &handlers.BorrowHandler{Borrows: borrowRepo, Audit: auditRepo}

	requireAuth := mw.JWT([]byte(cfg.JWTSecret))
	authLimiter := mw.AuthRateLimiter()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(mw.RequestLog)
	r.Use(mw.Recoverer)
	r.Use(mw.Prometheus)
	r.Use(mw.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(mw.CORS(cfg.CORSAllowedOrigins))
	r.Use(mw.MaxBytes(mw.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api", apiIndex)

	r.Route("/api/users", func(r chi.Router) {
		r.With(authLimiter.Middleware).Post("/register", authH.Register)
		r.With(authLimiter.Middleware).Post("/login", authH.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/{id}", userH.UpdateUser)
			r.Delete("/{id}", userH.DeleteUser)
		})
	})

	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", bookH.ListBooks)
		r.Get("/author/{authorId}", bookH.ListBooksByAuthor)
		r.Get("/{id}", bookH.GetBook)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", bookH.CreateBook)
			r.Put("/{id}", bookH.UpdateBook)
			r.Delete("/{id}", bookH.DeleteBook)
		})
	})

	r.Route("/api/borrow", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/my-books", borrowH.MyBooks)
		r.Get("/history", borrowH.History)
		r.Post("/return/{bookId}", borrowH.ReturnBook)
		r.Post("/{bookId}", borrowH.BorrowBook)
	})

	return r
}

// apiIndex documents the API surface, mirroring what the service exposes.
func apiIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Welcome to the Booklend API",
		"endpoints": map[string]interface{}{
			"users": map[string]string{
				"register": "POST /api/users/register",
				"login":    "POST /api/users/login",
				"update":   "PUT /api/users/{id}",
				"delete":   "DELETE /api/users/{id}",
			},
			"books": map[string]string{
				"create":      "POST /api/books",
				"getAll":      "GET /api/books?genre=&title=",
				"getByAuthor": "GET /api/books/author/{authorId}",
				"getById":     "GET /api/books/{id}",
				"update":      "PUT /api/books/{id}",
				"delete":      "DELETE /api/books/{id}",
			},
			"borrow": map[string]string{
				"borrowBook": "POST /api/borrow/{bookId}",
				"returnBook": "POST /api/borrow/return/{bookId}",
				"myBooks":    "GET /api/borrow/my-books",
				"history":    "GET /api/borrow/history",
			},
		},
	})
}
