package repositories

import (
	"context"
	"errors"
	"fmt"

	"shelfmate/internal/adapters/persistence/models"
	"shelfmate/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Terminal states, duplicated in SQL form for the open-loan lookup.
var terminalStates = []string{
	string(domain.LoanReturned),
	string(domain.LoanRejected),
}

// LoanRepository implements domain.LoanStore on MySQL. The per-book
// transaction locks the book row, so two borrow attempts for the same book
// serialize at the database.
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

var _ domain.LoanStore = (*LoanRepository)(nil)

// GetLoan gets a loan by ID
func (r *LoanRepository) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	var record models.LoanRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, storeErr(err)
	}
	return record.ToDomain(), nil
}

// FindOpenLoanForBook returns the non-terminal loan for a book, or nil.
func (r *LoanRepository) FindOpenLoanForBook(ctx context.Context, bookID string) (*domain.Loan, error) {
	return findOpenLoan(ctx, r.db, bookID)
}

func findOpenLoan(ctx context.Context, db *gorm.DB, bookID string) (*domain.Loan, error) {
	var record models.LoanRecord
	err := db.WithContext(ctx).
		Where("book_id = ? AND state NOT IN ?", bookID, terminalStates).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	return record.ToDomain(), nil
}

// UpdateLoan applies mutate to the record inside a transaction with the row
// locked. Mutator errors abort the update and pass through unchanged.
func (r *LoanRepository) UpdateLoan(ctx context.Context, id string, mutate func(*domain.Loan) error) (*domain.Loan, error) {
	var updated *domain.Loan

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record models.LoanRecord
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&record).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLoanNotFound
			}
			return storeErr(err)
		}

		loan := record.ToDomain()
		if err := mutate(loan); err != nil {
			return err
		}

		if err := tx.Save(models.LoanRecordFromDomain(loan)).Error; err != nil {
			return storeErr(err)
		}
		updated = loan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListLoansForBook returns all loans for a book, newest first.
func (r *LoanRepository) ListLoansForBook(ctx context.Context, bookID string) ([]*domain.Loan, error) {
	var records []*models.LoanRecord
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return toDomainLoans(records), nil
}

// ListLoansForUser returns all loans of a user, newest first.
func (r *LoanRepository) ListLoansForUser(ctx context.Context, userID uint) ([]*domain.Loan, error) {
	var records []*models.LoanRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, storeErr(err)
	}
	return toDomainLoans(records), nil
}

// ListLoans lists loans newest first, optionally filtered by state. A
// limit <= 0 returns everything.
func (r *LoanRepository) ListLoans(ctx context.Context, state domain.LoanState, offset, limit int) ([]*domain.Loan, int64, error) {
	var records []*models.LoanRecord
	var total int64

	query := r.db.WithContext(ctx).Model(&models.LoanRecord{})
	if state != "" {
		query = query.Where("state = ?", state)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}

	query = query.Order("created_at DESC").Offset(offset)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, storeErr(err)
	}
	return toDomainLoans(records), total, nil
}

// WithLoanTransaction runs fn in a database transaction holding an
// exclusive lock on the book row. All other transactions for the same book
// block until fn commits or rolls back.
func (r *LoanRepository) WithLoanTransaction(ctx context.Context, bookID string, fn func(tx domain.LoanTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book models.Book
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bookID).
			First(&book).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrBookNotFound
			}
			return storeErr(err)
		}
		return fn(&loanTx{db: tx})
	})
}

// loanTx is the transactional view handed to WithLoanTransaction callbacks.
type loanTx struct {
	db *gorm.DB
}

func (t *loanTx) FindOpenLoanForBook(ctx context.Context, bookID string) (*domain.Loan, error) {
	return findOpenLoan(ctx, t.db, bookID)
}

func (t *loanTx) CreateLoan(ctx context.Context, loan *domain.Loan) error {
	if err := t.db.WithContext(ctx).Create(models.LoanRecordFromDomain(loan)).Error; err != nil {
		return storeErr(err)
	}
	return nil
}

func toDomainLoans(records []*models.LoanRecord) []*domain.Loan {
	loans := make([]*domain.Loan, 0, len(records))
	for _, record := range records {
		loans = append(loans, record.ToDomain())
	}
	return loans
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
