package borrow

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/crucial707/booklend/cmd/cli/config"
	"github.com/crucial707/booklend/cmd/cli/output"
	"github.com/crucial707/booklend/internal/models"
	"github.com/spf13/cobra"
)

// ==========================
// Init Borrow
// ==========================
func InitBorrow(rootCmd *cobra.Command) {

	borrowCmd := &cobra.Command{
		Use:   "borrow",
		Short: "Borrow and return books (reader accounts)",
	}

	borrowCmd.AddCommand(
		borrowBookCmd(),
		returnBookCmd(),
		myBooksCmd(),
		historyCmd(),
	)

	rootCmd.AddCommand(borrowCmd)
}

// ==========================
// BORROW
// ==========================
func borrowBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "book [id]",
		Short: "Borrow a book",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postWithToken("/api/borrow/" + args[0])
		},
	}
}

// ==========================
// RETURN
// ==========================
func returnBookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return [id]",
		Short: "Return a borrowed book",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			postWithToken("/api/borrow/return/" + args[0])
		},
	}
}

// ==========================
// MY BOOKS (open loans)
// ==========================
func myBooksCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "my-books",
		Short: "List books you currently hold",
		Run: func(cmd *cobra.Command, args []string) {
			listLoans("/api/borrow/my-books", asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")
	return cmd
}

// ==========================
// HISTORY
// ==========================
func historyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show your borrow history, newest first",
		Run: func(cmd *cobra.Command, args []string) {
			listLoans("/api/borrow/history", asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON instead of a table")
	return cmd
}

func postWithToken(path string) {
	token, err := config.LoadToken()
	if err != nil {
		fmt.Println("Please login first")
		return
	}

	req, _ := http.NewRequest("POST", config.APIURL()+path, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer resp.Body.Close()

	var out struct {
		Message string `json:"message"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	fmt.Println(out.Message)
}

func listLoans(path string, asJSON bool) {
	token, err := config.LoadToken()
	if err != nil {
		fmt.Println("Please login first")
		return
	}

	req, _ := http.NewRequest("GET", config.APIURL()+path, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer resp.Body.Close()

	var records []models.BorrowRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		fmt.Println("Failed to decode response:", err)
		return
	}

	if asJSON {
		b, _ := json.MarshalIndent(records, "", "  ")
		fmt.Println(string(b))
		return
	}

	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		returned := "-"
		if rec.ReturnDate != nil {
			returned = rec.ReturnDate.Format("2006-01-02")
		}
		rows = append(rows, []interface{}{
			rec.BookID, rec.Title, rec.AuthorName,
			rec.BorrowDate.Format("2006-01-02"), returned,
		})
	}
	output.RenderTable([]string{"Book", "Title", "Author", "Borrowed", "Returned"}, rows)
}
