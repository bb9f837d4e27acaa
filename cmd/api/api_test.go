package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/booklend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// TestAPI_LoginThenBorrow is an integration test: it builds the full router with a
// sqlmock-backed DB, logs in to get a JWT, then borrows a book with the token.
func TestAPI_LoginThenBorrow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// Login: GetByUsername("integration")
	mock.ExpectQuery(`SELECT id, username, name, password_hash, role, created_at`).
		WithArgs("integration").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "name", "password_hash", "role", "created_at"}).
			AddRow(7, "integration", "Integration", string(hash), "reader", created))

	// POST /api/borrow/3: single transaction with a row lock on the book
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM borrowed_books`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT stock FROM books WHERE id = \$1 FOR UPDATE`).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"stock"}).AddRow(2))
	mock.ExpectExec(`INSERT INTO borrowed_books`).
		WithArgs(7, 3).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE books SET stock = stock - 1`).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	cfg := config.Config{
		JWTSecret:      "test-secret-for-integration",
		JWTExpireHours: 1,
	}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	// 1) Login
	loginBody, _ := json.Marshal(map[string]string{"username": "integration", "password": "password123"})
	loginResp, err := http.Post(srv.URL+"/api/users/login", "application/json", bytes.NewReader(loginBody))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer loginResp.Body.Close()
	if loginResp.StatusCode != http.StatusOK {
		t.Fatalf("login status: got %d, want 200", loginResp.StatusCode)
	}
	var loginOut struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(loginResp.Body).Decode(&loginOut); err != nil || loginOut.Token == "" {
		t.Fatalf("login response: %v", err)
	}

	// 2) POST /api/borrow/3 with Bearer token
	req, _ := http.NewRequest("POST", srv.URL+"/api/borrow/3", nil)
	req.Header.Set("Authorization", "Bearer "+loginOut.Token)
	borrowResp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("borrow request: %v", err)
	}
	defer borrowResp.Body.Close()
	if borrowResp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/borrow/3 status: got %d, want 200", borrowResp.StatusCode)
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(borrowResp.Body).Decode(&out); err != nil {
		t.Fatalf("decode borrow response: %v", err)
	}
	if out.Message != "book borrowed successfully" {
		t.Errorf("unexpected message: %q", out.Message)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_BorrowWithoutToken checks that the borrow routes are behind auth.
func TestAPI_BorrowWithoutToken(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x", JWTExpireHours: 1}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/borrow/3", "application/json", nil)
	if err != nil {
		t.Fatalf("borrow request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("POST /api/borrow/3 status: got %d, want 401", resp.StatusCode)
	}
}

// TestAPI_ListBooksIsPublic checks that the catalog is readable without a token.
func TestAPI_ListBooksIsPublic(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT b.id, b.title, b.genre, b.stock, b.author_id, b.created_at, u.name`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "genre", "stock", "author_id", "created_at", "name"}).
			AddRow(1, "Dune", "SciFi", 3, 1, created, "Frank"))

	cfg := config.Config{JWTSecret: "x", JWTExpireHours: 1}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/books")
	if err != nil {
		t.Fatalf("books request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/books status: got %d, want 200", resp.StatusCode)
	}
	var books []struct {
		ID         int    `json:"id"`
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
		t.Fatalf("decode books: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Dune" {
		t.Errorf("unexpected books: %+v", books)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// TestAPI_Health is a quick smoke test for the health endpoint.
func TestAPI_Health(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x", JWTExpireHours: 1}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status: got %d, want 200", resp.StatusCode)
	}
}

// TestAPI_Ready checks that /ready pings the DB and returns 200 when DB is reachable.
func TestAPI_Ready(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "x", JWTExpireHours: 1}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/ready")
	if err != nil {
		t.Fatalf("ready request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /ready status: got %d, want 200", resp.StatusCode)
	}
}
