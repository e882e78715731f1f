package domain

import "context"

// LoanTx is the view of the store a caller gets inside a per-book
// transaction. The existence check and the create execute as one atomic
// unit against it.
type LoanTx interface {
	FindOpenLoanForBook(ctx context.Context, bookID string) (*Loan, error)
	CreateLoan(ctx context.Context, loan *Loan) error
}

// LoanStore is the persistence contract for loan records. Implementations
// must serialize WithLoanTransaction calls for the same book id, and report
// any backend failure wrapped in ErrStoreUnavailable.
type LoanStore interface {
	GetLoan(ctx context.Context, id string) (*Loan, error)
	// FindOpenLoanForBook returns the non-terminal loan for the book, or
	// nil when the book has none.
	FindOpenLoanForBook(ctx context.Context, bookID string) (*Loan, error)
	// UpdateLoan applies mutate to the stored record under per-record
	// atomicity and returns the updated copy. A mutate error aborts the
	// update and is returned unchanged.
	UpdateLoan(ctx context.Context, id string, mutate func(*Loan) error) (*Loan, error)
	ListLoansForBook(ctx context.Context, bookID string) ([]*Loan, error)
	ListLoansForUser(ctx context.Context, userID uint) ([]*Loan, error)
	ListLoans(ctx context.Context, state LoanState, offset, limit int) ([]*Loan, int64, error)
	WithLoanTransaction(ctx context.Context, bookID string, fn func(tx LoanTx) error) error
}
