package services

import (
	"context"
	"time"

	"shelfmate/internal/core/domain"
)

// Note: LoanService implementation is in loan_service.go
// Note: AuthService implementation is in auth_service.go

// Clock supplies the current time. Injected so lifecycle tests can pin it.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// NotificationSink receives lifecycle events. Fire-and-forget: a sink
// failure must never roll back the transition that produced the event.
type NotificationSink interface {
	Notify(ctx context.Context, event domain.LoanEvent)
}

// BonusLookup answers whether a user holds a bonus-extension entitlement and
// burns one once it has been spent. Owned by the rewards subsystem.
type BonusLookup interface {
	HasExtensionBonus(ctx context.Context, userID uint) (bool, error)
	ConsumeExtensionBonus(ctx context.Context, userID uint) error
}

// LoanPolicy is the injected configuration surface of the lifecycle manager.
type LoanPolicy struct {
	LoanPeriodDays int
	FinePerDay     float64
}

// Period returns the loan period as a duration.
func (p LoanPolicy) Period() time.Duration {
	return time.Duration(p.LoanPeriodDays) * 24 * time.Hour
}

// DefaultLoanPolicy matches the rates the library has always used.
var DefaultLoanPolicy = LoanPolicy{
	LoanPeriodDays: 14,
	FinePerDay:     5,
}

// CreateBookInput for creating a catalog item
type CreateBookInput struct {
	Title    string
	Author   string
	Category string
	ISBN     string
	Shelf    string
}

// UpdateBookInput for updating a catalog item
type UpdateBookInput struct {
	Title    *string
	Author   *string
	Category *string
	ISBN     *string
	Shelf    *string
}
