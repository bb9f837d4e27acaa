package models

import "time"

// Book is one title in the catalog. Stock is the number of copies not
// currently on loan and never goes below zero.
type Book struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Genre     string    `json:"genre"`
	Stock     int       `json:"stock"`
	AuthorID  int       `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookWithAuthor is a Book joined with the owning author's display name.
type BookWithAuthor struct {
	Book
	AuthorName string `json:"author_name"`
}
