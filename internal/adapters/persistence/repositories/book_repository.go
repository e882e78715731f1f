package repositories

import (
	"context"

	"shelfmate/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BookRepository handles catalog data access
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create creates a new book
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID
func (r *BookRepository) GetByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Update updates a book
func (r *BookRepository) Update(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

// Delete soft deletes a book
func (r *BookRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{}).Error
}

// List lists books with pagination
func (r *BookRepository) List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	r.db.WithContext(ctx).Model(&models.Book{}).Count(&total)

	err := r.db.WithContext(ctx).
		Order("title ASC").
		Offset(offset).
		Limit(limit).
		Find(&books).Error

	return books, total, err
}

// Search searches books by title or author
func (r *BookRepository) Search(ctx context.Context, query string, limit int) ([]*models.Book, error) {
	var books []*models.Book
	like := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("title LIKE ? OR author LIKE ?", like, like).
		Order("title ASC").
		Limit(limit).
		Find(&books).Error
	return books, err
}
