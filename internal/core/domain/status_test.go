package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shelfmate/internal/core/domain"
)

func loansIn(states ...domain.LoanState) []*domain.Loan {
	out := make([]*domain.Loan, 0, len(states))
	for _, s := range states {
		out = append(out, &domain.Loan{State: s})
	}
	return out
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name  string
		loans []*domain.Loan
		want  domain.CatalogStatus
	}{
		{
			name:  "no_loans",
			loans: nil,
			want:  domain.StatusAvailable,
		},
		{
			name:  "pending_approval_does_not_block_shelf_status",
			loans: loansIn(domain.LoanPendingApproval),
			want:  domain.StatusAvailable,
		},
		{
			name:  "active_loan",
			loans: loansIn(domain.LoanActive),
			want:  domain.StatusBorrowed,
		},
		{
			name:  "extension_granted_still_borrowed",
			loans: loansIn(domain.LoanExtensionGranted),
			want:  domain.StatusBorrowed,
		},
		{
			name:  "pending_return_still_borrowed",
			loans: loansIn(domain.LoanPendingReturn),
			want:  domain.StatusBorrowed,
		},
		{
			name:  "history_of_closed_loans",
			loans: loansIn(domain.LoanReturned, domain.LoanRejected, domain.LoanReturned),
			want:  domain.StatusAvailable,
		},
		{
			name:  "lost_wins_over_borrowed",
			loans: loansIn(domain.LoanReturned, domain.LoanLost),
			want:  domain.StatusLost,
		},
		{
			name:  "closed_history_plus_open_loan",
			loans: loansIn(domain.LoanReturned, domain.LoanActive),
			want:  domain.StatusBorrowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.StatusOf(tt.loans))
		})
	}
}

func TestLoanStateIsTerminal(t *testing.T) {
	assert.True(t, domain.LoanReturned.IsTerminal())
	assert.True(t, domain.LoanRejected.IsTerminal())

	// Lost keeps blocking the book, so it is not terminal.
	assert.False(t, domain.LoanLost.IsTerminal())
	assert.False(t, domain.LoanPendingApproval.IsTerminal())
	assert.False(t, domain.LoanActive.IsTerminal())
	assert.False(t, domain.LoanExtensionGranted.IsTerminal())
	assert.False(t, domain.LoanPendingReturn.IsTerminal())
}
