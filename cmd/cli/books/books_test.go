package books

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/crucial707/booklend/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestListBooks_TableOutput(t *testing.T) {
	books := []models.BookWithAuthor{
		{Book: models.Book{ID: 1, Title: "Dune", Genre: "SciFi", Stock: 3}, AuthorName: "Frank"},
		{Book: models.Book{ID: 2, Title: "Hyperion", Genre: "SciFi", Stock: 1}, AuthorName: "Dan"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/books" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(books)
	}))
	defer srv.Close()

	t.Setenv("BOOKLEND_API_URL", srv.URL)

	cmd := listBooksCmd()

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, "Dune") || !strings.Contains(out, "Hyperion") {
		t.Fatalf("expected book titles in output, got: %s", out)
	}
}

func TestListBooks_FiltersForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("genre"); got != "SciFi" {
			t.Errorf("genre query: got %q, want SciFi", got)
		}
		if got := r.URL.Query().Get("title"); got != "Dun" {
			t.Errorf("title query: got %q, want Dun", got)
		}
		_ = json.NewEncoder(w).Encode([]models.BookWithAuthor{})
	}))
	defer srv.Close()

	t.Setenv("BOOKLEND_API_URL", srv.URL)

	cmd := listBooksCmd()
	_ = cmd.Flags().Set("genre", "SciFi")
	_ = cmd.Flags().Set("title", "Dun")

	captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})
}

func TestListBooks_JSONOutput(t *testing.T) {
	books := []models.BookWithAuthor{
		{Book: models.Book{ID: 1, Title: "Dune", Genre: "SciFi", Stock: 3}, AuthorName: "Frank"},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/books" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(books)
	}))
	defer srv.Close()

	t.Setenv("BOOKLEND_API_URL", srv.URL)

	cmd := listBooksCmd()
	_ = cmd.Flags().Set("json", "true")

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, `"title": "Dune"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
}

func TestUpdateBook_SendsOnlyChangedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" || r.URL.Path != "/api/books/1" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if _, ok := payload["stock"]; !ok {
			t.Error("expected stock in payload")
		}
		if _, ok := payload["title"]; ok {
			t.Error("title must not be sent when the flag is unset")
		}
		_ = json.NewEncoder(w).Encode(models.Book{ID: 1, Title: "Dune", Stock: 10})
	}))
	defer srv.Close()

	t.Setenv("BOOKLEND_API_URL", srv.URL)
	t.Setenv("HOME", t.TempDir())
	writeTestToken(t)

	cmd := updateBookCmd()
	_ = cmd.Flags().Set("stock", "10")

	captureOutput(t, func() {
		cmd.Run(cmd, []string{"1"})
	})
}

func writeTestToken(t *testing.T) {
	t.Helper()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("UserHomeDir: %v", err)
	}
	if err := os.WriteFile(home+"/.booklend_token", []byte("test-token"), 0600); err != nil {
		t.Fatalf("write token: %v", err)
	}
}
