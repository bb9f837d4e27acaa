package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crucial707/booklend/internal/models"
)

// MaxOpenBorrows is the per-user limit of simultaneously open loans.
const MaxOpenBorrows = 5

// ==========================
// BorrowRepo
// ==========================
type BorrowRepo struct {
	DB *sql.DB
}

func NewBorrowRepo(db *sql.DB) *BorrowRepo {
	return &BorrowRepo{DB: db}
}

// ==========================
// Borrow
// ==========================

// Borrow opens a loan for (userID, bookID) and decrements the book's stock.
// The whole check-then-write sequence runs in one transaction with the book
// row locked, so two borrows of the last copy cannot both succeed.
// Returns ErrBorrowLimit, ErrBookNotFound, or ErrOutOfStock on rejection.
func (r *BorrowRepo) Borrow(ctx context.Context, userID, bookID int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var open int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrowed_books WHERE user_id = $1 AND return_date IS NULL`,
		userID,
	).Scan(&open)
	if err != nil {
		return err
	}
	if open >= MaxOpenBorrows {
		return ErrBorrowLimit
	}

	var stock int
	err = tx.QueryRowContext(ctx,
		`SELECT stock FROM books WHERE id = $1 FOR UPDATE`,
		bookID,
	).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBookNotFound
	}
	if err != nil {
		return err
	}
	if stock < 1 {
		return ErrOutOfStock
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO borrowed_books (user_id, book_id) VALUES ($1, $2)`,
		userID, bookID,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE books SET stock = stock - 1 WHERE id = $1`,
		bookID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ==========================
// Return
// ==========================

// Return closes the open loan for (userID, bookID) and increments the book's
// stock, in one transaction. Returns ErrNoActiveBorrow when the caller has no
// open loan for the book and ErrBookNotFound when the book row is gone.
// Returning an already-returned book is ErrNoActiveBorrow, not a double increment.
func (r *BorrowRepo) Return(ctx context.Context, userID, bookID int) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var loanID int
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM borrowed_books
		 WHERE user_id = $1 AND book_id = $2 AND return_date IS NULL
		 FOR UPDATE`,
		userID, bookID,
	).Scan(&loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoActiveBorrow
	}
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE books SET stock = stock + 1 WHERE id = $1`,
		bookID,
	)
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

	if _, err := tx.ExecContext(ctx,
		`UPDATE borrowed_books SET return_date = now() WHERE id = $1`,
		loanID,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ==========================
// Counts
// ==========================

// CountOpen returns how many loans userID currently has open.
func (r *BorrowRepo) CountOpen(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrowed_books WHERE user_id = $1 AND return_date IS NULL`,
		userID,
	).Scan(&count)
	return count, err
}

// CountAllOpen returns the number of open loans across all users.
func (r *BorrowRepo) CountAllOpen(ctx context.Context) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrowed_books WHERE return_date IS NULL`,
	).Scan(&count)
	return count, err
}

// HasOpenForBook reports whether any user currently holds the book.
func (r *BorrowRepo) HasOpenForBook(ctx context.Context, bookID int) (bool, error) {
	var count int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM borrowed_books WHERE book_id = $1 AND return_date IS NULL`,
		bookID,
	).Scan(&count)
	return count > 0, err
}

// ==========================
// Listings
// ==========================

const borrowRecordColumns = `bb.id, bb.user_id, bb.book_id, bb.borrow_date, bb.return_date,
	       COALESCE(b.title, ''), COALESCE(b.genre, ''), COALESCE(u.name, '')`

// ListOpenByUser returns the caller's open loans joined with book and author name.
func (r *BorrowRepo) ListOpenByUser(ctx context.Context, userID int) ([]models.BorrowRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+borrowRecordColumns+`
		 FROM borrowed_books bb
		 LEFT JOIN books b ON b.id = bb.book_id
		 LEFT JOIN users u ON u.id = b.author_id
		 WHERE bb.user_id = $1 AND bb.return_date IS NULL
		 ORDER BY bb.borrow_date DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBorrowRecords(rows)
}

// HistoryByUser returns all of the caller's loans, open and closed, newest first.
func (r *BorrowRepo) HistoryByUser(ctx context.Context, userID int) ([]models.BorrowRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+borrowRecordColumns+`
		 FROM borrowed_books bb
		 LEFT JOIN books b ON b.id = bb.book_id
		 LEFT JOIN users u ON u.id = b.author_id
		 WHERE bb.user_id = $1
		 ORDER BY bb.borrow_date DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBorrowRecords(rows)
}

// ListOverdue returns open loans borrowed before the cutoff, oldest first.
func (r *BorrowRepo) ListOverdue(ctx context.Context, cutoff time.Time) ([]models.BorrowRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+borrowRecordColumns+`
		 FROM borrowed_books bb
		 LEFT JOIN books b ON b.id = bb.book_id
		 LEFT JOIN users u ON u.id = b.author_id
		 WHERE bb.return_date IS NULL AND bb.borrow_date < $1
		 ORDER BY bb.borrow_date`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBorrowRecords(rows)
}

func scanBorrowRecords(rows *sql.Rows) ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	for rows.Next() {
		var rec models.BorrowRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.BookID, &rec.BorrowDate, &rec.ReturnDate,
			&rec.Title, &rec.Genre, &rec.AuthorName,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
