package services

import (
	"context"
	"errors"

	"shelfmate/internal/adapters/persistence/models"
	"shelfmate/internal/adapters/persistence/repositories"
	"shelfmate/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService handles catalog business logic
type CatalogService struct {
	bookRepo    *repositories.BookRepository
	loanService *LoanService
}

// NewCatalogService creates a new catalog service
func NewCatalogService(bookRepo *repositories.BookRepository, loanService *LoanService) *CatalogService {
	return &CatalogService{
		bookRepo:    bookRepo,
		loanService: loanService,
	}
}

// Create creates a new catalog item
func (s *CatalogService) Create(ctx context.Context, input CreateBookInput) (*models.Book, error) {
	if input.Title == "" {
		return nil, domain.ErrInvalidInput
	}

	book := &models.Book{
		ID:       uuid.NewString(),
		Title:    input.Title,
		Author:   input.Author,
		Category: input.Category,
		ISBN:     input.ISBN,
		Shelf:    input.Shelf,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetByID gets a book by ID
func (s *CatalogService) GetByID(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book, nil
}

// Update updates a catalog item
func (s *CatalogService) Update(ctx context.Context, id string, input UpdateBookInput) (*models.Book, error) {
	book, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = *input.Title
	}
	if input.Author != nil {
		book.Author = *input.Author
	}
	if input.Category != nil {
		book.Category = *input.Category
	}
	if input.ISBN != nil {
		book.ISBN = *input.ISBN
	}
	if input.Shelf != nil {
		book.Shelf = *input.Shelf
	}

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// Delete removes a catalog item
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.bookRepo.Delete(ctx, id)
}

// List lists books with their projected status
func (s *CatalogService) List(ctx context.Context, page, limit int) ([]*models.BookResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	books, total, err := s.bookRepo.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.BookResponse, 0, len(books))
	for _, book := range books {
		resp := book.ToResponse()
		status, err := s.loanService.BookStatus(ctx, book.ID)
		if err != nil {
			return nil, 0, err
		}
		resp.Status = string(status)
		out = append(out, resp)
	}
	return out, total, nil
}

// Search searches books by title or author
func (s *CatalogService) Search(ctx context.Context, query string, limit int) ([]*models.Book, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.bookRepo.Search(ctx, query, limit)
}

// Status projects the externally visible status of a book
func (s *CatalogService) Status(ctx context.Context, bookID string) (domain.CatalogStatus, error) {
	if _, err := s.GetByID(ctx, bookID); err != nil {
		return "", err
	}
	return s.loanService.BookStatus(ctx, bookID)
}
