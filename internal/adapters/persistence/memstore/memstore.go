// Package memstore is the in-memory reference implementation of the loan
// store contract. It backs the lifecycle tests and dev tooling; production
// uses the GORM repository.
package memstore

import (
	"context"
	"sort"
	"sync"

	"shelfmate/internal/core/domain"
)

// LoanStore holds all loan records in memory. Per-book mutexes serialize
// WithLoanTransaction so concurrent borrow attempts for one book cannot
// interleave between the existence check and the create.
type LoanStore struct {
	mu    sync.RWMutex
	loans map[string]*domain.Loan

	lockMu    sync.Mutex
	bookLocks map[string]*sync.Mutex
}

// New creates an empty store.
func New() *LoanStore {
	return &LoanStore{
		loans:     make(map[string]*domain.Loan),
		bookLocks: make(map[string]*sync.Mutex),
	}
}

func (s *LoanStore) bookLock(bookID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	if l, ok := s.bookLocks[bookID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.bookLocks[bookID] = l
	return l
}

// GetLoan returns a copy of the loan by id.
func (s *LoanStore) GetLoan(_ context.Context, id string) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loan, ok := s.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	return loan.Clone(), nil
}

// FindOpenLoanForBook returns the non-terminal loan for the book, or nil.
func (s *LoanStore) FindOpenLoanForBook(_ context.Context, bookID string) (*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findOpenLocked(bookID), nil
}

func (s *LoanStore) findOpenLocked(bookID string) *domain.Loan {
	for _, loan := range s.loans {
		if loan.BookID == bookID && !loan.State.IsTerminal() {
			return loan.Clone()
		}
	}
	return nil
}

// UpdateLoan applies mutate to the stored record atomically.
func (s *LoanStore) UpdateLoan(_ context.Context, id string, mutate func(*domain.Loan) error) (*domain.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loan, ok := s.loans[id]
	if !ok {
		return nil, domain.ErrLoanNotFound
	}
	updated := loan.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	s.loans[id] = updated
	return updated.Clone(), nil
}

// ListLoansForBook returns all loans for a book.
func (s *LoanStore) ListLoansForBook(_ context.Context, bookID string) ([]*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Loan, 0)
	for _, loan := range s.loans {
		if loan.BookID == bookID {
			out = append(out, loan.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

// ListLoansForUser returns all loans of a user.
func (s *LoanStore) ListLoansForUser(_ context.Context, userID uint) ([]*domain.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Loan, 0)
	for _, loan := range s.loans {
		if loan.UserID == userID {
			out = append(out, loan.Clone())
		}
	}
	sortByCreated(out)
	return out, nil
}

// ListLoans lists loans newest first, optionally filtered by state. A
// limit <= 0 returns everything.
func (s *LoanStore) ListLoans(_ context.Context, state domain.LoanState, offset, limit int) ([]*domain.Loan, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := make([]*domain.Loan, 0)
	for _, loan := range s.loans {
		if state == "" || loan.State == state {
			all = append(all, loan.Clone())
		}
	}
	sortByCreated(all)
	total := int64(len(all))
	if offset >= len(all) {
		return []*domain.Loan{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

// WithLoanTransaction serializes fn against all other transactions for the
// same book id.
func (s *LoanStore) WithLoanTransaction(_ context.Context, bookID string, fn func(tx domain.LoanTx) error) error {
	lock := s.bookLock(bookID)
	lock.Lock()
	defer lock.Unlock()
	return fn(&loanTx{store: s, bookID: bookID})
}

// Reset clears all state.
func (s *LoanStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans = make(map[string]*domain.Loan)
}

type loanTx struct {
	store  *LoanStore
	bookID string
}

func (tx *loanTx) FindOpenLoanForBook(ctx context.Context, bookID string) (*domain.Loan, error) {
	return tx.store.FindOpenLoanForBook(ctx, bookID)
}

func (tx *loanTx) CreateLoan(_ context.Context, loan *domain.Loan) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if _, exists := tx.store.loans[loan.ID]; exists {
		return domain.ErrDuplicateEntry
	}
	tx.store.loans[loan.ID] = loan.Clone()
	return nil
}

func sortByCreated(loans []*domain.Loan) {
	sort.Slice(loans, func(i, j int) bool {
		if loans[i].CreatedAt.Equal(loans[j].CreatedAt) {
			return loans[i].ID > loans[j].ID
		}
		return loans[i].CreatedAt.After(loans[j].CreatedAt)
	})
}
