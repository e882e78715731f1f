package domain

import (
	"math"
	"time"
)

// ComputeFine returns the fine owed for a loan due at dueAt as of now, at
// perDay currency units per started day overdue. Zero when not overdue.
func ComputeFine(dueAt, now time.Time, perDay float64) float64 {
	if !now.After(dueAt) {
		return 0
	}
	days := math.Ceil(now.Sub(dueAt).Hours() / 24)
	return days * perDay
}

// CurrentFine returns the fine owed on a loan as of now. A paid fine is
// frozen at its stored amount; an unpaid one is always recomputed from the
// due date so displayed amounts never go stale.
func CurrentFine(loan *Loan, now time.Time, perDay float64) float64 {
	if loan.FinePaid {
		if loan.FineAmount != nil {
			return *loan.FineAmount
		}
		return 0
	}
	if loan.DueAt == nil {
		return 0
	}
	return ComputeFine(*loan.DueAt, now, perDay)
}
