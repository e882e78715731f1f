package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shelfmate/internal/core/domain"
)

func TestComputeFine(t *testing.T) {
	due := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		now    time.Time
		perDay float64
		want   float64
	}{
		{
			name:   "before_due_date",
			now:    due.Add(-48 * time.Hour),
			perDay: 5,
			want:   0,
		},
		{
			name:   "exactly_at_due_date",
			now:    due,
			perDay: 5,
			want:   0,
		},
		{
			name:   "one_hour_late_counts_as_full_day",
			now:    due.Add(1 * time.Hour),
			perDay: 5,
			want:   5,
		},
		{
			name:   "five_days_late",
			now:    due.Add(5 * 24 * time.Hour),
			perDay: 5,
			want:   25,
		},
		{
			name:   "partial_sixth_day_rounds_up",
			now:    due.Add(5*24*time.Hour + time.Minute),
			perDay: 5,
			want:   30,
		},
		{
			name:   "different_rate",
			now:    due.Add(3 * 24 * time.Hour),
			perDay: 2.5,
			want:   7.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.ComputeFine(due, tt.now, tt.perDay)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrentFine(t *testing.T) {
	due := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := due.Add(4 * 24 * time.Hour)

	t.Run("unpaid_fine_is_recomputed", func(t *testing.T) {
		loan := &domain.Loan{DueAt: &due}
		assert.Equal(t, 20.0, domain.CurrentFine(loan, now, 5))

		// The live amount keeps growing until it is paid.
		later := now.Add(48 * time.Hour)
		assert.Equal(t, 30.0, domain.CurrentFine(loan, later, 5))
	})

	t.Run("paid_fine_is_frozen", func(t *testing.T) {
		frozen := 15.0
		loan := &domain.Loan{DueAt: &due, FineAmount: &frozen, FinePaid: true}

		later := now.Add(30 * 24 * time.Hour)
		assert.Equal(t, frozen, domain.CurrentFine(loan, later, 5))
	})

	t.Run("stale_stored_amount_is_ignored_while_unpaid", func(t *testing.T) {
		stale := 5.0
		loan := &domain.Loan{DueAt: &due, FineAmount: &stale, FinePaid: false}
		assert.Equal(t, 20.0, domain.CurrentFine(loan, now, 5))
	})

	t.Run("no_due_date_means_no_fine", func(t *testing.T) {
		loan := &domain.Loan{}
		assert.Equal(t, 0.0, domain.CurrentFine(loan, now, 5))
	})
}
