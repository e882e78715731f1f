package memstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfmate/internal/adapters/persistence/memstore"
	"shelfmate/internal/core/domain"
)

func seedLoan(t *testing.T, store *memstore.LoanStore, loan *domain.Loan) {
	t.Helper()
	err := store.WithLoanTransaction(context.Background(), loan.BookID, func(tx domain.LoanTx) error {
		return tx.CreateLoan(context.Background(), loan)
	})
	require.NoError(t, err)
}

func TestGetLoanNotFound(t *testing.T) {
	store := memstore.New()
	_, err := store.GetLoan(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestCreateRejectsDuplicateID(t *testing.T) {
	store := memstore.New()
	loan := &domain.Loan{ID: "loan-1", BookID: "book-1", State: domain.LoanPendingApproval}
	seedLoan(t, store, loan)

	err := store.WithLoanTransaction(context.Background(), "book-1", func(tx domain.LoanTx) error {
		return tx.CreateLoan(context.Background(), loan)
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
}

func TestUpdateLoanAbortsOnMutatorError(t *testing.T) {
	store := memstore.New()
	seedLoan(t, store, &domain.Loan{ID: "loan-1", BookID: "book-1", State: domain.LoanPendingApproval})

	boom := errors.New("boom")
	_, err := store.UpdateLoan(context.Background(), "loan-1", func(l *domain.Loan) error {
		l.State = domain.LoanActive
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The stored record is untouched after an aborted update.
	stored, err := store.GetLoan(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanPendingApproval, stored.State)
}

func TestReturnedCopiesAreIsolated(t *testing.T) {
	store := memstore.New()
	seedLoan(t, store, &domain.Loan{ID: "loan-1", BookID: "book-1", State: domain.LoanPendingApproval})

	got, err := store.GetLoan(context.Background(), "loan-1")
	require.NoError(t, err)
	got.State = domain.LoanReturned

	stored, err := store.GetLoan(context.Background(), "loan-1")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanPendingApproval, stored.State)
}

func TestFindOpenLoanForBook(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	open, err := store.FindOpenLoanForBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Nil(t, open)

	seedLoan(t, store, &domain.Loan{ID: "loan-1", BookID: "book-1", State: domain.LoanReturned})
	open, err = store.FindOpenLoanForBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Nil(t, open, "terminal loans do not count as open")

	seedLoan(t, store, &domain.Loan{ID: "loan-2", BookID: "book-1", State: domain.LoanLost})
	open, err = store.FindOpenLoanForBook(ctx, "book-1")
	require.NoError(t, err)
	require.NotNil(t, open, "a lost loan still blocks the book")
	assert.Equal(t, "loan-2", open.ID)
}

func TestListLoansPagination(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedLoan(t, store, &domain.Loan{
			ID:        fmt.Sprintf("loan-%d", i),
			BookID:    fmt.Sprintf("book-%d", i),
			State:     domain.LoanActive,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	page, total, err := store.ListLoans(ctx, domain.LoanActive, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, "loan-4", page[0].ID, "newest first")
	assert.Equal(t, "loan-3", page[1].ID)

	page, _, err = store.ListLoans(ctx, domain.LoanActive, 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "loan-0", page[0].ID)

	page, total, err = store.ListLoans(ctx, domain.LoanActive, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, page)

	// limit <= 0 returns everything
	page, _, err = store.ListLoans(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 5)
}

func TestWithLoanTransactionSerializesPerBook(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	created := make([]bool, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.WithLoanTransaction(ctx, "book-1", func(tx domain.LoanTx) error {
				open, err := tx.FindOpenLoanForBook(ctx, "book-1")
				if err != nil {
					return err
				}
				if open != nil {
					return domain.ErrAlreadyBorrowed
				}
				created[i] = true
				return tx.CreateLoan(ctx, &domain.Loan{
					ID:     fmt.Sprintf("loan-%d", i),
					BookID: "book-1",
					State:  domain.LoanPendingApproval,
				})
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, ok := range created {
		if ok {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}
