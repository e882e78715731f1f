package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfmate/internal/adapters/persistence/memstore"
	"shelfmate/internal/core/domain"
	"shelfmate/internal/core/services"
)

// fakeClock pins the current time for deterministic lifecycle tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeBonus answers the bonus-extension lookup with a fixed value and
// records consults and burns.
type fakeBonus struct {
	granted  bool
	consults int
	consumed int
}

func (b *fakeBonus) HasExtensionBonus(_ context.Context, _ uint) (bool, error) {
	b.consults++
	return b.granted, nil
}

func (b *fakeBonus) ConsumeExtensionBonus(_ context.Context, _ uint) error {
	b.consumed++
	b.granted = false
	return nil
}

// recordingSink collects emitted lifecycle events.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.LoanEvent
}

func (s *recordingSink) Notify(_ context.Context, event domain.LoanEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) kinds() []domain.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventKind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

type fixture struct {
	svc   *services.LoanService
	store *memstore.LoanStore
	clock *fakeClock
	bonus *fakeBonus
	sink  *recordingSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := memstore.New()
	bonus := &fakeBonus{}
	sink := &recordingSink{}
	svc := services.NewLoanService(store, clock, sink, bonus, services.LoanPolicy{
		LoanPeriodDays: 14,
		FinePerDay:     5,
	})
	return &fixture{svc: svc, store: store, clock: clock, bonus: bonus, sink: sink}
}

// activeLoan drives a fresh loan through borrow and approval.
func (f *fixture) activeLoan(t *testing.T, bookID string, userID uint) *domain.Loan {
	t.Helper()
	ctx := context.Background()
	loan, err := f.svc.RequestBorrow(ctx, bookID, userID)
	require.NoError(t, err)
	loan, err = f.svc.ApproveBorrow(ctx, loan.ID)
	require.NoError(t, err)
	return loan
}

func TestBorrowLifecycleHappyPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	loan, err := f.svc.RequestBorrow(ctx, "book-1", 7)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanPendingApproval, loan.State)
	assert.Nil(t, loan.BorrowedAt)
	assert.Nil(t, loan.DueAt)

	loan, err = f.svc.ApproveBorrow(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, loan.State)
	require.NotNil(t, loan.BorrowedAt)
	require.NotNil(t, loan.DueAt)
	assert.Equal(t, f.clock.Now().Add(14*24*time.Hour), *loan.DueAt)

	loan, err = f.svc.RequestReturn(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanPendingReturn, loan.State)

	loan, err = f.svc.ApproveReturn(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, loan.State)
	require.NotNil(t, loan.ReturnedAt)
	assert.Nil(t, loan.FineAmount)

	assert.Equal(t, []domain.EventKind{
		domain.EventBorrowRequested,
		domain.EventBorrowApproved,
		domain.EventReturnRequested,
		domain.EventReturnApproved,
	}, f.sink.kinds())
}

func TestBorrowBlockedWhileOpenLoanExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// A pending request already blocks a second borrow.
	first, err := f.svc.RequestBorrow(ctx, "book-1", 1)
	require.NoError(t, err)

	_, err = f.svc.RequestBorrow(ctx, "book-1", 2)
	assert.ErrorIs(t, err, domain.ErrAlreadyBorrowed)

	// Rejection frees the book again.
	_, err = f.svc.RejectBorrow(ctx, first.ID)
	require.NoError(t, err)

	_, err = f.svc.RequestBorrow(ctx, "book-1", 2)
	assert.NoError(t, err)
}

func TestConcurrentBorrowOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.RequestBorrow(ctx, "book-1", uint(i+1))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyBorrowed)
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestApproveRequiresPendingState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)

	_, err := f.svc.ApproveBorrow(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.RejectBorrow(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.ApproveBorrow(ctx, "no-such-loan")
	assert.ErrorIs(t, err, domain.ErrLoanNotFound)
}

func TestExtensionFirstIsFree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)
	originalDue := *loan.DueAt

	loan, err := f.svc.RequestExtension(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanExtensionGranted, loan.State)
	assert.True(t, loan.Extended)
	assert.Equal(t, 1, loan.ExtensionCount)
	assert.Equal(t, originalDue.Add(14*24*time.Hour), *loan.DueAt)

	// The rewards subsystem must not be consulted for the free extension.
	assert.Zero(t, f.bonus.consults)
}

func TestSecondExtensionNeedsBonus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)

	loan, err := f.svc.RequestExtension(ctx, loan.ID)
	require.NoError(t, err)

	// Without an entitlement the second extension is refused.
	_, err = f.svc.RequestExtension(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrExtensionNotAllowed)
	assert.Equal(t, 1, f.bonus.consults)

	// With one it goes through and the entitlement is burned, but never a
	// third extension.
	f.bonus.granted = true
	loan, err = f.svc.RequestExtension(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loan.ExtensionCount)
	assert.Equal(t, 1, f.bonus.consumed)

	_, err = f.svc.RequestExtension(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrExtensionNotAllowed)
	assert.Equal(t, 1, f.bonus.consumed)
}

func TestExtensionRequiresOpenLoan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.RequestBorrow(ctx, "book-1", 1)
	require.NoError(t, err)

	_, err = f.svc.RequestExtension(ctx, pending.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	loan := f.activeLoan(t, "book-2", 1)
	_, err = f.svc.RequestReturn(ctx, loan.ID)
	require.NoError(t, err)

	_, err = f.svc.RequestExtension(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestOverdueReturnAssessesFine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)

	// Five days past due at return approval time.
	f.clock.Advance(19 * 24 * time.Hour)

	loan, err := f.svc.RequestReturn(ctx, loan.ID)
	require.NoError(t, err)
	loan, err = f.svc.ApproveReturn(ctx, loan.ID)
	require.NoError(t, err)

	require.NotNil(t, loan.FineAmount)
	assert.Equal(t, 25.0, *loan.FineAmount)
	assert.False(t, loan.FinePaid)
	assert.Contains(t, f.sink.kinds(), domain.EventFineAssessed)
}

func TestFineStaysLiveUntilPaid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)

	f.clock.Advance(16 * 24 * time.Hour) // two days overdue
	assert.Equal(t, 10.0, f.svc.FineOwed(loan))

	f.clock.Advance(24 * time.Hour) // three days overdue
	assert.Equal(t, 15.0, f.svc.FineOwed(loan))

	paid, err := f.svc.MarkFinePaid(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, paid.FinePaid)
	require.NotNil(t, paid.FineAmount)
	assert.Equal(t, 15.0, *paid.FineAmount)
	require.NotNil(t, paid.FinePaidAt)

	// Frozen from here on, no matter how much time passes.
	f.clock.Advance(30 * 24 * time.Hour)
	assert.Equal(t, 15.0, f.svc.FineOwed(paid))

	_, err = f.svc.MarkFinePaid(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrNoFineDue)
}

func TestPaidFineStaysFrozenAfterReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)

	f.clock.Advance(19 * 24 * time.Hour) // five days overdue

	paid, err := f.svc.MarkFinePaid(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, paid.FinePaid)
	require.NotNil(t, paid.FineAmount)
	assert.Equal(t, 25.0, *paid.FineAmount)

	// Returning the book two days later must not reopen or grow the fine.
	f.clock.Advance(2 * 24 * time.Hour)
	returned, err := f.svc.RequestReturn(ctx, loan.ID)
	require.NoError(t, err)
	returned, err = f.svc.ApproveReturn(ctx, returned.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.LoanReturned, returned.State)
	assert.True(t, returned.FinePaid)
	require.NotNil(t, returned.FineAmount)
	assert.Equal(t, 25.0, *returned.FineAmount)
	assert.Equal(t, 25.0, f.svc.FineOwed(returned))
	assert.NotContains(t, f.sink.kinds(), domain.EventFineAssessed)

	_, err = f.svc.MarkFinePaid(ctx, returned.ID)
	assert.ErrorIs(t, err, domain.ErrNoFineDue)
}

func TestMarkFinePaidWithoutFine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)

	_, err := f.svc.MarkFinePaid(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrNoFineDue)
}

func TestLostAndFoundPreservesDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)
	originalDue := *loan.DueAt

	loan, err := f.svc.MarkLost(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanLost, loan.State)

	status, err := f.svc.BookStatus(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusLost, status)

	// A lost book still blocks new borrows.
	_, err = f.svc.RequestBorrow(ctx, "book-1", 2)
	assert.ErrorIs(t, err, domain.ErrAlreadyBorrowed)

	f.clock.Advance(3 * 24 * time.Hour)
	loan, err = f.svc.MarkFound(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanActive, loan.State)
	assert.Equal(t, originalDue, *loan.DueAt)

	// The recovered loan returns like any active one.
	loan, err = f.svc.RequestReturn(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanPendingReturn, loan.State)
	loan, err = f.svc.ApproveReturn(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanReturned, loan.State)
}

func TestLostBeforeApprovalGetsFreshPeriodWhenFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.RequestBorrow(ctx, "book-1", 1)
	require.NoError(t, err)

	lost, err := f.svc.MarkLost(ctx, pending.ID)
	require.NoError(t, err)
	assert.Nil(t, lost.DueAt)

	f.clock.Advance(48 * time.Hour)
	found, err := f.svc.MarkFound(ctx, lost.ID)
	require.NoError(t, err)
	require.NotNil(t, found.BorrowedAt)
	require.NotNil(t, found.DueAt)
	assert.Equal(t, f.clock.Now(), *found.BorrowedAt)
	assert.Equal(t, f.clock.Now().Add(14*24*time.Hour), *found.DueAt)
}

func TestMarkLostRejectsClosedLoans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	loan := f.activeLoan(t, "book-1", 1)

	_, err := f.svc.RequestReturn(ctx, loan.ID)
	require.NoError(t, err)
	_, err = f.svc.ApproveReturn(ctx, loan.ID)
	require.NoError(t, err)

	_, err = f.svc.MarkLost(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.MarkFound(ctx, loan.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestBookStatusProjection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.svc.BookStatus(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, status)

	pending, err := f.svc.RequestBorrow(ctx, "book-1", 1)
	require.NoError(t, err)

	// Pending approval keeps the shelf status available.
	status, err = f.svc.BookStatus(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAvailable, status)

	_, err = f.svc.ApproveBorrow(ctx, pending.ID)
	require.NoError(t, err)

	status, err = f.svc.BookStatus(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusBorrowed, status)
}

func TestOverdueLoans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	overdueLoan := f.activeLoan(t, "book-1", 1)

	f.clock.Advance(15 * 24 * time.Hour)
	onTime := f.activeLoan(t, "book-2", 2)

	got, err := f.svc.OverdueLoans(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, overdueLoan.ID, got[0].ID)
	assert.NotEqual(t, onTime.ID, got[0].ID)
}

func TestListLoansFiltersByState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.activeLoan(t, "book-1", 1)
	_, err := f.svc.RequestBorrow(ctx, "book-2", 2)
	require.NoError(t, err)

	active, total, err := f.svc.ListLoans(ctx, domain.LoanActive, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, active, 1)
	assert.Equal(t, domain.LoanActive, active[0].State)

	all, total, err := f.svc.ListLoans(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}
