package handlers

import (
	"errors"
	"strings"

	"shelfmate/internal/core/domain"
	"shelfmate/internal/core/services"
	"shelfmate/internal/pkg/pagination"
	"shelfmate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// BookHandler handles catalog endpoints
type BookHandler struct {
	catalogService *services.CatalogService
}

// NewBookHandler creates a new book handler
func NewBookHandler(catalogService *services.CatalogService) *BookHandler {
	return &BookHandler{
		catalogService: catalogService,
	}
}

// CreateBookRequest represents create book request body
type CreateBookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
	ISBN     string `json:"isbn"`
	Shelf    string `json:"shelf"`
}

// UpdateBookRequest represents update book request body
type UpdateBookRequest struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	Category *string `json:"category"`
	ISBN     *string `json:"isbn"`
	Shelf    *string `json:"shelf"`
}

// Create adds a book to the catalog
// @Summary Create book
// @Description Add a new book to the catalog (Librarian/Admin only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateBookRequest true "Book data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /books [post]
func (h *BookHandler) Create(c *fiber.Ctx) error {
	var req CreateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Title) == "" {
		return response.BadRequest(c, "Title is required")
	}

	book, err := h.catalogService.Create(c.Context(), services.CreateBookInput{
		Title:    strings.TrimSpace(req.Title),
		Author:   strings.TrimSpace(req.Author),
		Category: strings.TrimSpace(req.Category),
		ISBN:     strings.TrimSpace(req.ISBN),
		Shelf:    strings.TrimSpace(req.Shelf),
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create book")
	}

	return response.Created(c, "Book created", fiber.Map{
		"book": book.ToResponse(),
	})
}

// List lists catalog books
// @Summary List books
// @Description List catalog books with projected availability status
// @Tags Books
// @Accept json
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /books [get]
func (h *BookHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	books, total, err := h.catalogService.List(c.Context(), params.Page, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list books")
	}

	return response.Success(c, "Books retrieved", fiber.Map{
		"books":      books,
		"pagination": pagination.GetMeta(params, total),
	})
}

// Search searches the catalog
// @Summary Search books
// @Description Search catalog by title, author or category
// @Tags Books
// @Accept json
// @Produce json
// @Param q query string true "Search query"
// @Success 200 {object} response.Response
// @Router /books/search [get]
func (h *BookHandler) Search(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return response.BadRequest(c, "Search query is required")
	}

	books, err := h.catalogService.Search(c.Context(), query, 50)
	if err != nil {
		return response.InternalServerError(c, "Failed to search books")
	}

	results := make([]interface{}, 0, len(books))
	for _, b := range books {
		results = append(results, b.ToResponse())
	}

	return response.Success(c, "Search results", fiber.Map{
		"books": results,
	})
}

// Get returns one book with its projected status
// @Summary Get book
// @Description Get a book by ID with current availability
// @Tags Books
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [get]
func (h *BookHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")

	book, err := h.catalogService.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to load book")
	}

	status, err := h.catalogService.Status(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to load book status")
	}

	resp := book.ToResponse()
	resp.Status = string(status)

	return response.Success(c, "Book retrieved", fiber.Map{
		"book": resp,
	})
}

// Status returns the projected availability of a book
// @Summary Book status
// @Description Get the current availability status of a book (available, borrowed, lost)
// @Tags Books
// @Accept json
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id}/status [get]
func (h *BookHandler) Status(c *fiber.Ctx) error {
	id := c.Params("id")

	status, err := h.catalogService.Status(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to load book status")
	}

	return response.Success(c, "Book status retrieved", fiber.Map{
		"status": string(status),
	})
}

// Update updates a catalog book
// @Summary Update book
// @Description Update book metadata (Librarian/Admin only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Param body body UpdateBookRequest true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [put]
func (h *BookHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateBookRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	book, err := h.catalogService.Update(c.Context(), id, services.UpdateBookInput{
		Title:    req.Title,
		Author:   req.Author,
		Category: req.Category,
		ISBN:     req.ISBN,
		Shelf:    req.Shelf,
	})
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to update book")
	}

	return response.Success(c, "Book updated", fiber.Map{
		"book": book.ToResponse(),
	})
}

// Delete removes a catalog book
// @Summary Delete book
// @Description Remove a book from the catalog (Librarian/Admin only)
// @Tags Books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.catalogService.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return response.NotFound(c, "Book not found")
		}
		return response.InternalServerError(c, "Failed to delete book")
	}

	return response.Success(c, "Book deleted", nil)
}
