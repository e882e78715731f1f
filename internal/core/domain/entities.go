package domain

import "time"

// Role represents user role in the system
type Role string

const (
	RoleStudent   Role = "STUDENT"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// User represents a library account in the domain layer
type User struct {
	ID           uint
	Username     string
	Email        string
	Password     string // Hashed
	Role         Role
	StudentClass string
	StudentNo    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken represents a refresh token in the domain
type RefreshToken struct {
	ID        uint
	UserID    uint
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Book represents a catalog item
type Book struct {
	ID        string
	Title     string
	Author    string
	Category  string
	ISBN      string
	Shelf     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LoanState is the closed set of states a loan record moves through.
type LoanState string

const (
	LoanPendingApproval  LoanState = "PENDING_APPROVAL"
	LoanActive           LoanState = "ACTIVE"
	LoanExtensionGranted LoanState = "EXTENSION_GRANTED"
	LoanPendingReturn    LoanState = "PENDING_RETURN"
	LoanReturned         LoanState = "RETURNED"
	LoanRejected         LoanState = "REJECTED"
	LoanLost             LoanState = "LOST"
)

// IsTerminal reports whether the state is a final one. A LOST loan is not
// terminal: it still blocks the book and can be recovered via found.
func (s LoanState) IsTerminal() bool {
	return s == LoanReturned || s == LoanRejected
}

// Loan represents one borrow event of one book copy by one user.
type Loan struct {
	ID             string
	BookID         string
	UserID         uint
	State          LoanState
	BorrowedAt     *time.Time
	DueAt          *time.Time
	ReturnedAt     *time.Time
	Extended       bool
	ExtensionCount int
	FineAmount     *float64
	FinePaid       bool
	FinePaidAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the loan. Pointer fields are duplicated so a
// caller cannot mutate a stored record through a returned copy.
func (l *Loan) Clone() *Loan {
	cp := *l
	if l.BorrowedAt != nil {
		t := *l.BorrowedAt
		cp.BorrowedAt = &t
	}
	if l.DueAt != nil {
		t := *l.DueAt
		cp.DueAt = &t
	}
	if l.ReturnedAt != nil {
		t := *l.ReturnedAt
		cp.ReturnedAt = &t
	}
	if l.FinePaidAt != nil {
		t := *l.FinePaidAt
		cp.FinePaidAt = &t
	}
	if l.FineAmount != nil {
		f := *l.FineAmount
		cp.FineAmount = &f
	}
	return &cp
}

// EventKind identifies a loan lifecycle event emitted to the notification sink.
type EventKind string

const (
	EventBorrowRequested  EventKind = "borrow_requested"
	EventBorrowApproved   EventKind = "borrow_approved"
	EventBorrowRejected   EventKind = "borrow_rejected"
	EventExtensionGranted EventKind = "extension_granted"
	EventReturnRequested  EventKind = "return_requested"
	EventReturnApproved   EventKind = "return_approved"
	EventFineAssessed     EventKind = "fine_assessed"
	EventFinePaid         EventKind = "fine_paid"
	EventBookLost         EventKind = "book_lost"
	EventBookFound        EventKind = "book_found"
)

// LoanEvent is the payload handed to the notification sink after a
// successful transition.
type LoanEvent struct {
	Kind   EventKind
	LoanID string
	BookID string
	UserID uint
}
