package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crucial707/booklend/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

var jwtTestSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestJWT_NoHeader(t *testing.T) {
	handler := JWT(jwtTestSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/borrow/my-books", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

func TestJWT_InvalidToken(t *testing.T) {
	handler := JWT(jwtTestSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/api/borrow/my-books", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestJWT_WrongSecret(t *testing.T) {
	handler := JWT(jwtTestSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	signed := signToken(t, []byte("other-secret"), jwt.MapClaims{
		"user_id": 7,
		"role":    "reader",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/api/borrow/my-books", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestJWT_ExpiredToken(t *testing.T) {
	handler := JWT(jwtTestSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	signed := signToken(t, jwtTestSecret, jwt.MapClaims{
		"user_id": 7,
		"role":    "reader",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/api/borrow/my-books", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestJWT_UnknownRole(t *testing.T) {
	handler := JWT(jwtTestSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	signed := signToken(t, jwtTestSecret, jwt.MapClaims{
		"user_id": 7,
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/api/borrow/my-books", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rr.Code)
	}
}

func TestJWT_PropagatesIdentity(t *testing.T) {
	var gotID int
	var gotRole models.Role
	handler := JWT(jwtTestSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
		gotRole, _ = GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	signed := signToken(t, jwtTestSecret, jwt.MapClaims{
		"user_id": 7,
		"role":    "author",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	req := httptest.NewRequest("GET", "/api/books", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if gotID != 7 {
		t.Errorf("user id: got %d, want 7", gotID)
	}
	if gotRole != models.RoleAuthor {
		t.Errorf("role: got %q, want %q", gotRole, models.RoleAuthor)
	}
}
