package models

import "time"

// BorrowedBook is one loan. ReturnDate is nil while the loan is open.
// Rows are never deleted; closed rows are the borrow history.
type BorrowedBook struct {
	ID         int        `json:"id"`
	UserID     int        `json:"user_id"`
	BookID     int        `json:"book_id"`
	BorrowDate time.Time  `json:"borrow_date"`
	ReturnDate *time.Time `json:"return_date"`
}

// BorrowRecord is a loan joined with its book and the book's author name.
// Book fields are empty when the book was deleted after the loan closed.
type BorrowRecord struct {
	BorrowedBook
	Title      string `json:"title"`
	Genre      string `json:"genre"`
	AuthorName string `json:"author_name"`
}
