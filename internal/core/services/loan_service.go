package services

import (
	"context"
	"log"

	"shelfmate/internal/core/domain"

	"github.com/google/uuid"
)

// LoanService enforces the borrow/return/extension/loss state machine. All
// business rules live here; handlers and stores carry none of them.
type LoanService struct {
	store  domain.LoanStore
	clock  Clock
	notify NotificationSink
	bonus  BonusLookup
	policy LoanPolicy
}

// NewLoanService creates a new loan lifecycle service
func NewLoanService(store domain.LoanStore, clock Clock, notify NotificationSink, bonus BonusLookup, policy LoanPolicy) *LoanService {
	if clock == nil {
		clock = SystemClock{}
	}
	if policy.LoanPeriodDays <= 0 {
		policy.LoanPeriodDays = DefaultLoanPolicy.LoanPeriodDays
	}
	if policy.FinePerDay <= 0 {
		policy.FinePerDay = DefaultLoanPolicy.FinePerDay
	}
	return &LoanService{
		store:  store,
		clock:  clock,
		notify: notify,
		bonus:  bonus,
		policy: policy,
	}
}

// Policy returns the injected loan policy.
func (s *LoanService) Policy() LoanPolicy {
	return s.policy
}

// RequestBorrow opens a borrow request for a book. The existence check and
// the record creation run inside one per-book transaction so two users
// cannot both pass the availability check.
func (s *LoanService) RequestBorrow(ctx context.Context, bookID string, userID uint) (*domain.Loan, error) {
	var created *domain.Loan

	err := s.store.WithLoanTransaction(ctx, bookID, func(tx domain.LoanTx) error {
		open, err := tx.FindOpenLoanForBook(ctx, bookID)
		if err != nil {
			return err
		}
		if open != nil {
			return domain.ErrAlreadyBorrowed
		}

		now := s.clock.Now()
		loan := &domain.Loan{
			ID:        uuid.NewString(),
			BookID:    bookID,
			UserID:    userID,
			State:     domain.LoanPendingApproval,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.CreateLoan(ctx, loan); err != nil {
			return err
		}
		created = loan
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventBorrowRequested, created)
	return created, nil
}

// ApproveBorrow activates a pending borrow request and starts the loan
// period.
func (s *LoanService) ApproveBorrow(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.store.UpdateLoan(ctx, loanID, func(l *domain.Loan) error {
		if l.State != domain.LoanPendingApproval {
			return domain.ErrInvalidTransition
		}
		now := s.clock.Now()
		due := now.Add(s.policy.Period())
		l.State = domain.LoanActive
		l.BorrowedAt = &now
		l.DueAt = &due
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventBorrowApproved, loan)
	return loan, nil
}

// RejectBorrow closes a pending borrow request without activating it.
func (s *LoanService) RejectBorrow(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.store.UpdateLoan(ctx, loanID, func(l *domain.Loan) error {
		if l.State != domain.LoanPendingApproval {
			return domain.ErrInvalidTransition
		}
		l.State = domain.LoanRejected
		l.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventBorrowRejected, loan)
	return loan, nil
}

// RequestExtension postpones the due date by one loan period. Ordinarily a
// loan can be extended once; a bonus entitlement from the rewards subsystem
// allows exactly one more, so never more than two in total.
func (s *LoanService) RequestExtension(ctx context.Context, loanID string) (*domain.Loan, error) {
	current, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	hasBonus := false
	if current.ExtensionCount > 0 && s.bonus != nil {
		// Only consult the rewards subsystem when the free extension is
		// already spent; its availability must not gate the first one.
		hasBonus, err = s.bonus.HasExtensionBonus(ctx, current.UserID)
		if err != nil {
			return nil, err
		}
	}

	usedBonus := false
	loan, err := s.store.UpdateLoan(ctx, loanID, func(l *domain.Loan) error {
		if l.State != domain.LoanActive && l.State != domain.LoanExtensionGranted {
			return domain.ErrInvalidTransition
		}
		if l.ExtensionCount > 0 {
			if !hasBonus || l.ExtensionCount >= 2 {
				return domain.ErrExtensionNotAllowed
			}
			usedBonus = true
		}
		due := l.DueAt.Add(s.policy.Period())
		l.DueAt = &due
		l.Extended = true
		l.ExtensionCount++
		l.State = domain.LoanExtensionGranted
		l.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if usedBonus {
		// The extension already stands; a failed burn just leaves the
		// entitlement reusable.
		if err := s.bonus.ConsumeExtensionBonus(ctx, loan.UserID); err != nil {
			log.Printf("⚠️ Failed to consume extension bonus for user %d: %v", loan.UserID, err)
		}
	}

	s.emit(ctx, domain.EventExtensionGranted, loan)
	return loan, nil
}

// RequestReturn flags an active loan for return; staff confirm it via
// ApproveReturn.
func (s *LoanService) RequestReturn(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.store.UpdateLoan(ctx, loanID, func(l *domain.Loan) error {
		if l.State != domain.LoanActive && l.State != domain.LoanExtensionGranted {
			return domain.ErrInvalidTransition
		}
		l.State = domain.LoanPendingReturn
		l.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventReturnRequested, loan)
	return loan, nil
}

// ApproveReturn closes the loan. An overdue loan gets a fine assessed from
// the fine policy; the amount stays live until MarkFinePaid freezes it. A
// fine already settled while the loan was out stays frozen at the paid
// amount.
func (s *LoanService) ApproveReturn(ctx context.Context, loanID string) (*domain.Loan, error) {
	fineAssessed := false
	loan, err := s.store.UpdateLoan(ctx, loanID, func(l *domain.Loan) error {
		if l.State != domain.LoanPendingReturn {
			return domain.ErrInvalidTransition
		}
		now := s.clock.Now()
		l.State = domain.LoanReturned
		l.ReturnedAt = &now
		l.UpdatedAt = now
		if !l.FinePaid && l.DueAt != nil && l.DueAt.Before(now) {
			amount := domain.ComputeFine(*l.DueAt, now, s.policy.FinePerDay)
			l.FineAmount = &amount
			fineAssessed = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventReturnApproved, loan)
	if fineAssessed {
		s.emit(ctx, domain.EventFineAssessed, loan)
	}
	return loan, nil
}

// MarkLost records the book as lost. Allowed from any non-terminal state;
// the loan keeps blocking the book until it is found or written off.
func (s *LoanService) MarkLost(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.store.UpdateLoan(ctx, loanID, func(l *domain.Loan) error {
		if l.State.IsTerminal() || l.State == domain.LoanLost {
			return domain.ErrInvalidTransition
		}
		l.State = domain.LoanLost
		l.UpdatedAt = s.clock.Now()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventBookLost, loan)
	return loan, nil
}

// MarkFound recovers a lost book back into an active loan. The original due
// date is preserved; a loan lost before it was ever approved starts a fresh
// loan period instead.
func (s *LoanService) MarkFound(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.store.UpdateLoan(ctx, loanID, func(l *domain.Loan) error {
		if l.State != domain.LoanLost {
			return domain.ErrInvalidTransition
		}
		now := s.clock.Now()
		if l.DueAt == nil {
			due := now.Add(s.policy.Period())
			l.BorrowedAt = &now
			l.DueAt = &due
		}
		l.State = domain.LoanActive
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventBookFound, loan)
	return loan, nil
}

// MarkFinePaid settles the fine owed on a loan and freezes the amount. The
// state of the loan is left untouched.
func (s *LoanService) MarkFinePaid(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.store.UpdateLoan(ctx, loanID, func(l *domain.Loan) error {
		if l.FinePaid {
			return domain.ErrNoFineDue
		}
		now := s.clock.Now()
		amount := domain.CurrentFine(l, now, s.policy.FinePerDay)
		if amount <= 0 {
			return domain.ErrNoFineDue
		}
		l.FineAmount = &amount
		l.FinePaid = true
		l.FinePaidAt = &now
		l.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, domain.EventFinePaid, loan)
	return loan, nil
}

// GetLoan returns a loan by id.
func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	return s.store.GetLoan(ctx, loanID)
}

// LoansForUser returns all loans of a user, newest first per store order.
func (s *LoanService) LoansForUser(ctx context.Context, userID uint) ([]*domain.Loan, error) {
	return s.store.ListLoansForUser(ctx, userID)
}

// ListLoans lists loans, optionally filtered by state.
func (s *LoanService) ListLoans(ctx context.Context, state domain.LoanState, page, limit int) ([]*domain.Loan, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.store.ListLoans(ctx, state, (page-1)*limit, limit)
}

// BookStatus projects the catalog status of a book from its loan records.
func (s *LoanService) BookStatus(ctx context.Context, bookID string) (domain.CatalogStatus, error) {
	loans, err := s.store.ListLoansForBook(ctx, bookID)
	if err != nil {
		return "", err
	}
	return domain.StatusOf(loans), nil
}

// FineOwed returns the live fine on a loan as of now.
func (s *LoanService) FineOwed(loan *domain.Loan) float64 {
	return domain.CurrentFine(loan, s.clock.Now(), s.policy.FinePerDay)
}

// OverdueLoans returns active loans whose due date has passed as of now.
func (s *LoanService) OverdueLoans(ctx context.Context) ([]*domain.Loan, error) {
	now := s.clock.Now()
	overdue := make([]*domain.Loan, 0)
	for _, state := range []domain.LoanState{domain.LoanActive, domain.LoanExtensionGranted} {
		loans, _, err := s.store.ListLoans(ctx, state, 0, 0)
		if err != nil {
			return nil, err
		}
		for _, l := range loans {
			if l.DueAt != nil && l.DueAt.Before(now) {
				overdue = append(overdue, l)
			}
		}
	}
	return overdue, nil
}

func (s *LoanService) emit(ctx context.Context, kind domain.EventKind, loan *domain.Loan) {
	if s.notify == nil {
		return
	}
	s.notify.Notify(ctx, domain.LoanEvent{
		Kind:   kind,
		LoanID: loan.ID,
		BookID: loan.BookID,
		UserID: loan.UserID,
	})
}
