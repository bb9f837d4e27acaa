package books

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/crucial707/booklend/cmd/cli/config"
	"github.com/crucial707/booklend/cmd/cli/output"
	"github.com/crucial707/booklend/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Books
// ==========================
func InitBooks(rootCmd *cobra.Command) {

	booksCmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage the catalog",
	}

	booksCmd.AddCommand(
		listBooksCmd(),
		getBookCmd(),
		createBookCmd(),
		updateBookCmd(),
		deleteBookCmd(),
	)

	rootCmd.AddCommand(booksCmd)
}

// ==========================
// LIST
// ==========================
func listBooksCmd() *cobra.Command {
	var genre, title string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books in the catalog",
		Run: func(cmd *cobra.Command, args []string) {
			q := url.Values{}
			if genre != "" {
				q.Set("genre", genre)
			}
			if title != "" {
				q.Set("title", title)
			}
			path := "/api/books"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			resp, err := http.Get(config.APIURL() + path)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var books []models.BookWithAuthor
			if err := json.NewDecoder(resp.Body).Decode(&books); err != nil {
				fmt.Println("Failed to decode response:", err)
				return
			}

			if asJSON {
				b, _ := json.MarshalIndent(books, "", "  ")
				fmt.Println(string(b))
				return
			}

			rows := make([][]interface{}, 0, len(books))
			for _, b := range books {
				rows = append(rows, []interface{}{b.ID, b.Title, b.Genre, b.AuthorName, b.Stock})
			}
			output.RenderTable([]string{"ID", "Title", "Genre", "Author", "Stock"}, rows)
		},
	}

	cmd.Flags().StringVar(&genre, "genre", "", "filter by exact genre")
	cmd.Flags().StringVar(&title, "title", "", "filter by title substring")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")

	return cmd
}

// ==========================
// GET
// ==========================
func getBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get [id]",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			resp, err := http.Get(config.APIURL() + "/api/books/" + args[0])
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
		},
	}
}

// ==========================
// CREATE (author accounts)
// ==========================
func createBookCmd() *cobra.Command {

	var title string
	var genre string
	var stock int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a book (author accounts)",
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.LoadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			payload := map[string]interface{}{
				"title": title,
				"genre": genre,
				"stock": stock,
			}

			body, _ := json.Marshal(payload)

			req, _ := http.NewRequest("POST", config.APIURL()+"/api/books", bytes.NewBuffer(body))
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "book title")
	cmd.Flags().StringVar(&genre, "genre", "", "book genre")
	cmd.Flags().IntVar(&stock, "stock", 1, "number of copies")

	return cmd
}

// ==========================
// UPDATE (owning author)
// ==========================
func updateBookCmd() *cobra.Command {

	var title string
	var genre string
	var stock int

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a book you own",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.LoadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			// Only send the fields that were set so the server patches the rest.
			payload := map[string]interface{}{}
			if cmd.Flags().Changed("title") {
				payload["title"] = title
			}
			if cmd.Flags().Changed("genre") {
				payload["genre"] = genre
			}
			if cmd.Flags().Changed("stock") {
				payload["stock"] = stock
			}
			if len(payload) == 0 {
				fmt.Println("Nothing to update")
				return
			}

			body, _ := json.Marshal(payload)

			req, _ := http.NewRequest("PUT", config.APIURL()+"/api/books/"+args[0], bytes.NewBuffer(body))
			req.Header.Set("Authorization", "Bearer "+token)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			var out any
			json.NewDecoder(resp.Body).Decode(&out)
			b, _ := json.MarshalIndent(out, "", "  ")
			fmt.Println(string(b))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&genre, "genre", "", "new genre")
	cmd.Flags().IntVar(&stock, "stock", 0, "new stock count")

	return cmd
}

// ==========================
// DELETE (owning author)
// ==========================
func deleteBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a book you own",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {

			token, err := config.LoadToken()
			if err != nil {
				fmt.Println("Please login first")
				return
			}

			if _, err := strconv.Atoi(args[0]); err != nil {
				fmt.Println("Book id must be a number")
				return
			}

			req, _ := http.NewRequest("DELETE", config.APIURL()+"/api/books/"+args[0], nil)
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				fmt.Println(err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				fmt.Println("Book deleted")
			} else {
				var out struct {
					Message string `json:"message"`
				}
				json.NewDecoder(resp.Body).Decode(&out)
				fmt.Println("Failed to delete book:", out.Message)
			}
		},
	}
}
