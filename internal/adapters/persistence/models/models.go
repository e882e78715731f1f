package models

import (
	"time"

	"gorm.io/gorm"

	"shelfmate/internal/core/domain"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password     string         `gorm:"size:255;not null" json:"-"`
	Role         string         `gorm:"size:20;default:'STUDENT'" json:"role"`
	StudentClass string         `gorm:"size:20" json:"student_class"`
	StudentNo    string         `gorm:"size:20" json:"student_no"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID           uint      `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	StudentClass string    `json:"student_class,omitempty"`
	StudentNo    string    `json:"student_no,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role,
		StudentClass: u.StudentClass,
		StudentNo:    u.StudentNo,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog Tables
// ============================================================

// Book represents books table
type Book struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	Title     string         `gorm:"size:255;not null;index" json:"title"`
	Author    string         `gorm:"size:255;index" json:"author"`
	Category  string         `gorm:"size:100;index" json:"category"`
	ISBN      string         `gorm:"size:20" json:"isbn"`
	Shelf     string         `gorm:"size:20" json:"shelf"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string {
	return "books"
}

// BookResponse DTO; Status is projected from loan records, never stored.
type BookResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	ISBN      string    `json:"isbn,omitempty"`
	Shelf     string    `json:"shelf,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *Book) ToResponse() *BookResponse {
	return &BookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Category:  b.Category,
		ISBN:      b.ISBN,
		Shelf:     b.Shelf,
		CreatedAt: b.CreatedAt,
	}
}

func (b *Book) ToDomain() *domain.Book {
	return &domain.Book{
		ID:        b.ID,
		Title:     b.Title,
		Author:    b.Author,
		Category:  b.Category,
		ISBN:      b.ISBN,
		Shelf:     b.Shelf,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// ============================================================
// Loan Tables
// ============================================================

// LoanRecord represents loan_records table, one row per borrow event.
type LoanRecord struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	BookID         string     `gorm:"size:36;not null;index" json:"book_id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	State          string     `gorm:"size:20;not null;index" json:"state"`
	BorrowedAt     *time.Time `json:"borrowed_at"`
	DueAt          *time.Time `json:"due_at"`
	ReturnedAt     *time.Time `json:"returned_at"`
	Extended       bool       `gorm:"default:false" json:"extended"`
	ExtensionCount int        `gorm:"default:0" json:"extension_count"`
	FineAmount     *float64   `gorm:"type:decimal(10,2)" json:"fine_amount"`
	FinePaid       bool       `gorm:"default:false" json:"fine_paid"`
	FinePaidAt     *time.Time `json:"fine_paid_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Book           Book       `gorm:"foreignKey:BookID" json:"-"`
	User           User       `gorm:"foreignKey:UserID" json:"-"`
}

func (LoanRecord) TableName() string {
	return "loan_records"
}

func (r *LoanRecord) ToDomain() *domain.Loan {
	return &domain.Loan{
		ID:             r.ID,
		BookID:         r.BookID,
		UserID:         r.UserID,
		State:          domain.LoanState(r.State),
		BorrowedAt:     r.BorrowedAt,
		DueAt:          r.DueAt,
		ReturnedAt:     r.ReturnedAt,
		Extended:       r.Extended,
		ExtensionCount: r.ExtensionCount,
		FineAmount:     r.FineAmount,
		FinePaid:       r.FinePaid,
		FinePaidAt:     r.FinePaidAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// LoanRecordFromDomain maps a domain loan onto the persistence row.
func LoanRecordFromDomain(l *domain.Loan) *LoanRecord {
	return &LoanRecord{
		ID:             l.ID,
		BookID:         l.BookID,
		UserID:         l.UserID,
		State:          string(l.State),
		BorrowedAt:     l.BorrowedAt,
		DueAt:          l.DueAt,
		ReturnedAt:     l.ReturnedAt,
		Extended:       l.Extended,
		ExtensionCount: l.ExtensionCount,
		FineAmount:     l.FineAmount,
		FinePaid:       l.FinePaid,
		FinePaidAt:     l.FinePaidAt,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

// ============================================================
// Notification & Reward Tables
// ============================================================

// Notification represents in-app notifications
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Kind      string    `gorm:"size:30;not null" json:"kind"`
	LoanID    string    `gorm:"size:36;index" json:"loan_id,omitempty"`
	BookID    string    `gorm:"size:36" json:"book_id,omitempty"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// RewardEntitlement represents spin-wheel rewards granted to users. A
// borrow-extension entitlement unlocks the second loan extension.
type RewardEntitlement struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	Kind       string     `gorm:"size:30;not null;index" json:"kind"`
	GrantedAt  time.Time  `gorm:"autoCreateTime" json:"granted_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
	User       User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RewardEntitlement) TableName() string {
	return "reward_entitlements"
}

// Reward kinds
const (
	RewardBorrowExtension = "borrow-extension"
)

// AutoMigrate creates or updates all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Book{},
		&LoanRecord{},
		&Notification{},
		&RewardEntitlement{},
	)
}
