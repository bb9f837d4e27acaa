package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/crucial707/booklend/internal/models"
)

// ========================
// REPOSITORY STRUCT
// ========================

type BookRepo struct {
	DB *sql.DB
}

func NewBookRepo(db *sql.DB) *BookRepo {
	return &BookRepo{DB: db}
}

// ========================
// CREATE BOOK
// ========================

func (r *BookRepo) Create(ctx context.Context, title, genre string, stock, authorID int) (models.Book, error) {
	var book models.Book
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO books (title, genre, stock, author_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, title, genre, stock, author_id, created_at`,
		title, genre, stock, authorID,
	).Scan(
		&book.ID,
		&book.Title,
		&book.Genre,
		&book.Stock,
		&book.AuthorID,
		&book.CreatedAt,
	)
	return book, err
}

// ========================
// GET BOOK BY ID
// ========================

func (r *BookRepo) GetByID(ctx context.Context, id int) (models.Book, error) {
	var book models.Book
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, title, genre, stock, author_id, created_at
		 FROM books
		 WHERE id = $1`,
		id,
	).Scan(
		&book.ID,
		&book.Title,
		&book.Genre,
		&book.Stock,
		&book.AuthorID,
		&book.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return book, ErrBookNotFound
	}
	return book, err
}

// ========================
// GET BOOK BY ID WITH AUTHOR NAME
// ========================

func (r *BookRepo) GetByIDWithAuthor(ctx context.Context, id int) (models.BookWithAuthor, error) {
	var book models.BookWithAuthor
	err := r.DB.QueryRowContext(ctx,
		`SELECT b.id, b.title, b.genre, b.stock, b.author_id, b.created_at, u.name
		 FROM books b
		 JOIN users u ON u.id = b.author_id
		 WHERE b.id = $1`,
		id,
	).Scan(
		&book.ID,
		&book.Title,
		&book.Genre,
		&book.Stock,
		&book.AuthorID,
		&book.CreatedAt,
		&book.AuthorName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return book, ErrBookNotFound
	}
	return book, err
}

// ========================
// LIST BOOKS (optional genre / title filters)
// ========================

// List returns all books joined with the author's display name. genre filters
// by exact match, title by case-sensitive substring. Empty filters match all.
func (r *BookRepo) List(ctx context.Context, genre, title string) ([]models.BookWithAuthor, error) {
	query := `SELECT b.id, b.title, b.genre, b.stock, b.author_id, b.created_at, u.name
	          FROM books b
	          JOIN users u ON u.id = b.author_id`

	var conds []string
	var args []interface{}
	if genre != "" {
		args = append(args, genre)
		conds = append(conds, fmt.Sprintf("b.genre = $%d", len(args)))
	}
	if title != "" {
		args = append(args, "%"+title+"%")
		conds = append(conds, fmt.Sprintf("b.title LIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.id"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.BookWithAuthor
	for rows.Next() {
		var b models.BookWithAuthor
		if err := rows.Scan(&b.ID, &b.Title, &b.Genre, &b.Stock, &b.AuthorID, &b.CreatedAt, &b.AuthorName); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// ========================
// LIST BOOKS BY AUTHOR
// ========================

func (r *BookRepo) ListByAuthor(ctx context.Context, authorID int) ([]models.Book, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, title, genre, stock, author_id, created_at
		 FROM books
		 WHERE author_id = $1
		 ORDER BY id`,
		authorID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Genre, &b.Stock, &b.AuthorID, &b.CreatedAt); err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// ========================
// UPDATE BOOK BY ID (partial patch; nil fields keep the current value)
// ========================

func (r *BookRepo) UpdateByID(ctx context.Context, id int, title, genre *string, stock *int) (models.Book, error) {
	var book models.Book
	err := r.DB.QueryRowContext(ctx,
		`UPDATE books
		 SET title = COALESCE($1, title),
		     genre = COALESCE($2, genre),
		     stock = COALESCE($3, stock)
		 WHERE id = $4
		 RETURNING id, title, genre, stock, author_id, created_at`,
		title, genre, stock, id,
	).Scan(
		&book.ID,
		&book.Title,
		&book.Genre,
		&book.Stock,
		&book.AuthorID,
		&book.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return book, ErrBookNotFound
	}
	return book, err
}

// ========================
// DELETE BOOK BY ID
// ========================

func (r *BookRepo) DeleteByID(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrBookNotFound
	}
	return nil
}
