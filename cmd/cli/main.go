package main

import (
	"fmt"
	"os"

	"github.com/crucial707/booklend/cmd/cli/auth"
	"github.com/crucial707/booklend/cmd/cli/books"
	"github.com/crucial707/booklend/cmd/cli/borrow"
	"github.com/crucial707/booklend/cmd/cli/root"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	books.InitBooks(rootCmd)
	borrow.InitBorrow(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
