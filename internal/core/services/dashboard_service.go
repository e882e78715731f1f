package services

import (
	"context"
	"time"

	"shelfmate/internal/core/domain"

	"gorm.io/gorm"
)

// DashboardService aggregates library statistics for the admin views
type DashboardService struct {
	db          *gorm.DB
	loanService *LoanService
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB, loanService *LoanService) *DashboardService {
	return &DashboardService{db: db, loanService: loanService}
}

// DashboardData represents admin dashboard data
type DashboardData struct {
	// User Statistics
	TotalUsers      int64 `json:"total_users"`
	TotalStudents   int64 `json:"total_students"`
	TotalLibrarians int64 `json:"total_librarians"`

	// Catalog & Loan Statistics
	TotalBooks      int64 `json:"total_books"`
	ActiveLoans     int64 `json:"active_loans"`
	PendingApproval int64 `json:"pending_approval"`
	PendingReturns  int64 `json:"pending_returns"`
	LostBooks       int64 `json:"lost_books"`
	OverdueLoans    int64 `json:"overdue_loans"`

	// Fine Statistics
	FinesOutstanding float64 `json:"fines_outstanding"`
	FinesCollected   float64 `json:"fines_collected"`

	// Monthly Statistics
	LoansThisMonth   int64 `json:"loans_this_month"`
	ReturnsThisMonth int64 `json:"returns_this_month"`

	// Recent Activity
	RecentLoans []LoanSummary `json:"recent_loans"`
}

// LoanSummary represents a loan in the recent-activity feed
type LoanSummary struct {
	ID        string     `json:"id"`
	BookTitle string     `json:"book_title"`
	Username  string     `json:"username"`
	State     string     `json:"state"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// GetDashboard returns admin dashboard data
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardData, error) {
	data := &DashboardData{}

	// User counts by role
	s.db.WithContext(ctx).Table("users").Where("deleted_at IS NULL").Count(&data.TotalUsers)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", "STUDENT").Count(&data.TotalStudents)
	s.db.WithContext(ctx).Table("users").Where("role = ? AND deleted_at IS NULL", "LIBRARIAN").Count(&data.TotalLibrarians)

	// Catalog size
	s.db.WithContext(ctx).Table("books").Where("deleted_at IS NULL").Count(&data.TotalBooks)

	// Loan counts by state
	borrowedStates := []string{
		string(domain.LoanActive),
		string(domain.LoanExtensionGranted),
	}
	s.db.WithContext(ctx).Table("loan_records").Where("state IN ?", borrowedStates).Count(&data.ActiveLoans)
	s.db.WithContext(ctx).Table("loan_records").Where("state = ?", domain.LoanPendingApproval).Count(&data.PendingApproval)
	s.db.WithContext(ctx).Table("loan_records").Where("state = ?", domain.LoanPendingReturn).Count(&data.PendingReturns)
	s.db.WithContext(ctx).Table("loan_records").Where("state = ?", domain.LoanLost).Count(&data.LostBooks)

	// Overdue: active loans past their due date
	now := time.Now()
	s.db.WithContext(ctx).Table("loan_records").
		Where("state IN ? AND due_at < ?", borrowedStates, now).
		Count(&data.OverdueLoans)

	// Collected fines are frozen amounts; outstanding ones are recomputed
	// live from the due date, so they come from the lifecycle service.
	s.db.WithContext(ctx).Table("loan_records").
		Where("fine_paid = ?", true).
		Select("COALESCE(SUM(fine_amount), 0)").
		Scan(&data.FinesCollected)

	outstanding, err := s.outstandingFines(ctx)
	if err != nil {
		return nil, err
	}
	data.FinesOutstanding = outstanding

	// This month statistics
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	s.db.WithContext(ctx).Table("loan_records").
		Where("created_at >= ?", startOfMonth).
		Count(&data.LoansThisMonth)
	s.db.WithContext(ctx).Table("loan_records").
		Where("returned_at >= ?", startOfMonth).
		Count(&data.ReturnsThisMonth)

	// Recent activity
	recent, err := s.recentLoans(ctx, 10)
	if err != nil {
		return nil, err
	}
	data.RecentLoans = recent

	return data, nil
}

func (s *DashboardService) outstandingFines(ctx context.Context) (float64, error) {
	overdue, err := s.loanService.OverdueLoans(ctx)
	if err != nil {
		return 0, err
	}

	var total float64
	for _, loan := range overdue {
		total += s.loanService.FineOwed(loan)
	}

	// Returned loans with an assessed, unpaid fine are overdue no longer
	// but still owe.
	var assessed float64
	s.db.WithContext(ctx).Table("loan_records").
		Where("state = ? AND fine_paid = ? AND fine_amount IS NOT NULL", domain.LoanReturned, false).
		Select("COALESCE(SUM(fine_amount), 0)").
		Scan(&assessed)

	return total + assessed, nil
}

func (s *DashboardService) recentLoans(ctx context.Context, limit int) ([]LoanSummary, error) {
	var summaries []LoanSummary
	err := s.db.WithContext(ctx).Table("loan_records").
		Select("loan_records.id, books.title AS book_title, users.username, loan_records.state, loan_records.due_at, loan_records.created_at").
		Joins("JOIN books ON books.id = loan_records.book_id").
		Joins("JOIN users ON users.id = loan_records.user_id").
		Order("loan_records.created_at DESC").
		Limit(limit).
		Scan(&summaries).Error
	if err != nil {
		return nil, err
	}
	if summaries == nil {
		summaries = []LoanSummary{}
	}
	return summaries, nil
}
