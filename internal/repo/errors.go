package repo

import "errors"

// Sentinel errors for business-rule rejections. Handlers map these to HTTP statuses.
var (
	ErrBookNotFound   = errors.New("book not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrOutOfStock     = errors.New("book is out of stock")
	ErrBorrowLimit    = errors.New("borrow limit reached")
	ErrNoActiveBorrow = errors.New("no active borrow record")
)
