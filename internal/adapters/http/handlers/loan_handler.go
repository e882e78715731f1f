package handlers

import (
	"errors"
	"time"

	"shelfmate/internal/core/domain"
	"shelfmate/internal/core/services"
	"shelfmate/internal/pkg/pagination"
	"shelfmate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan lifecycle endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{
		loanService: loanService,
	}
}

// BorrowRequest represents borrow request body
type BorrowRequest struct {
	BookID string `json:"book_id"`
}

// LoanResponse is the wire shape of a loan record. FineDue is recomputed at
// read time for unpaid overdue loans.
type LoanResponse struct {
	ID             string     `json:"id"`
	BookID         string     `json:"book_id"`
	UserID         uint       `json:"user_id"`
	State          string     `json:"state"`
	BorrowedAt     *time.Time `json:"borrowed_at,omitempty"`
	DueAt          *time.Time `json:"due_at,omitempty"`
	ReturnedAt     *time.Time `json:"returned_at,omitempty"`
	Extended       bool       `json:"extended"`
	ExtensionCount int        `json:"extension_count"`
	FineDue        float64    `json:"fine_due"`
	FineAmount     *float64   `json:"fine_amount,omitempty"`
	FinePaid       bool       `json:"fine_paid"`
	FinePaidAt     *time.Time `json:"fine_paid_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (h *LoanHandler) toResponse(loan *domain.Loan) *LoanResponse {
	return &LoanResponse{
		ID:             loan.ID,
		BookID:         loan.BookID,
		UserID:         loan.UserID,
		State:          string(loan.State),
		BorrowedAt:     loan.BorrowedAt,
		DueAt:          loan.DueAt,
		ReturnedAt:     loan.ReturnedAt,
		Extended:       loan.Extended,
		ExtensionCount: loan.ExtensionCount,
		FineDue:        h.loanService.FineOwed(loan),
		FineAmount:     loan.FineAmount,
		FinePaid:       loan.FinePaid,
		FinePaidAt:     loan.FinePaidAt,
		CreatedAt:      loan.CreatedAt,
	}
}

func (h *LoanHandler) toResponses(loans []*domain.Loan) []*LoanResponse {
	out := make([]*LoanResponse, 0, len(loans))
	for _, l := range loans {
		out = append(out, h.toResponse(l))
	}
	return out
}

// loanError maps domain errors onto HTTP responses
func loanError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound):
		return response.NotFound(c, "Loan not found")
	case errors.Is(err, domain.ErrBookNotFound):
		return response.NotFound(c, "Book not found")
	case errors.Is(err, domain.ErrAlreadyBorrowed):
		return response.Conflict(c, "Book is already borrowed or reserved")
	case errors.Is(err, domain.ErrInvalidTransition):
		return response.UnprocessableEntity(c, "Loan is not in a state that allows this action")
	case errors.Is(err, domain.ErrExtensionNotAllowed):
		return response.UnprocessableEntity(c, "Extension not allowed for this loan")
	case errors.Is(err, domain.ErrNoFineDue):
		return response.BadRequest(c, "No fine is due on this loan")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// Borrow requests a new loan
// @Summary Request borrow
// @Description Request to borrow a book; the loan starts pending approval
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BorrowRequest true "Book to borrow"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Borrow(c *fiber.Ctx) error {
	var req BorrowRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.BookID == "" {
		return response.BadRequest(c, "Book ID is required")
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loan, err := h.loanService.RequestBorrow(c.Context(), req.BookID, userID)
	if err != nil {
		return loanError(c, err, "Failed to request borrow")
	}

	return response.Created(c, "Borrow requested", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// My lists the current user's loans
// @Summary My loans
// @Description List the authenticated user's loan history, newest first
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /loans/my [get]
func (h *LoanHandler) My(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loans, err := h.loanService.LoansForUser(c.Context(), userID)
	if err != nil {
		return loanError(c, err, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved", fiber.Map{
		"loans": h.toResponses(loans),
	})
}

// List lists loans for staff
// @Summary List loans
// @Description List loans, optionally filtered by state (Librarian/Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param state query string false "Loan state filter"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	state := domain.LoanState(c.Query("state"))

	loans, total, err := h.loanService.ListLoans(c.Context(), state, params.Page, params.Limit)
	if err != nil {
		return loanError(c, err, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved", fiber.Map{
		"loans":      h.toResponses(loans),
		"pagination": pagination.GetMeta(params, total),
	})
}

// Overdue lists overdue loans
// @Summary Overdue loans
// @Description List open loans past their due date (Librarian/Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /loans/overdue [get]
func (h *LoanHandler) Overdue(c *fiber.Ctx) error {
	loans, err := h.loanService.OverdueLoans(c.Context())
	if err != nil {
		return loanError(c, err, "Failed to list overdue loans")
	}

	return response.Success(c, "Overdue loans retrieved", fiber.Map{
		"loans": h.toResponses(loans),
	})
}

// Get returns one loan
// @Summary Get loan
// @Description Get a loan by ID; students may only view their own loans
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	loan, err := h.loanService.GetLoan(c.Context(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to load loan")
	}

	if !h.canView(c, loan) {
		return response.Forbidden(c, "You don't have permission to view this loan")
	}

	return response.Success(c, "Loan retrieved", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// Approve approves a pending borrow
// @Summary Approve borrow
// @Description Approve a pending borrow request and start the loan clock (Librarian/Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/approve [post]
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	loan, err := h.loanService.ApproveBorrow(c.Context(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to approve borrow")
	}

	return response.Success(c, "Borrow approved", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// Reject rejects a pending borrow
// @Summary Reject borrow
// @Description Reject a pending borrow request (Librarian/Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/reject [post]
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	loan, err := h.loanService.RejectBorrow(c.Context(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to reject borrow")
	}

	return response.Success(c, "Borrow rejected", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// Extend extends an active loan
// @Summary Extend loan
// @Description Push the due date out by one loan period; the second extension needs a borrow-extension reward
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/extend [post]
func (h *LoanHandler) Extend(c *fiber.Ctx) error {
	loanID := c.Params("id")

	current, err := h.loanService.GetLoan(c.Context(), loanID)
	if err != nil {
		return loanError(c, err, "Failed to load loan")
	}
	if !h.canView(c, current) {
		return response.Forbidden(c, "You don't have permission to modify this loan")
	}

	loan, err := h.loanService.RequestExtension(c.Context(), loanID)
	if err != nil {
		return loanError(c, err, "Failed to extend loan")
	}

	return response.Success(c, "Loan extended", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// Return requests a return
// @Summary Request return
// @Description Mark a loan as pending return, awaiting librarian confirmation
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/return [post]
func (h *LoanHandler) Return(c *fiber.Ctx) error {
	loanID := c.Params("id")

	current, err := h.loanService.GetLoan(c.Context(), loanID)
	if err != nil {
		return loanError(c, err, "Failed to load loan")
	}
	if !h.canView(c, current) {
		return response.Forbidden(c, "You don't have permission to modify this loan")
	}

	loan, err := h.loanService.RequestReturn(c.Context(), loanID)
	if err != nil {
		return loanError(c, err, "Failed to request return")
	}

	return response.Success(c, "Return requested", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// ApproveReturn confirms a return
// @Summary Approve return
// @Description Confirm the book is back on the shelf; assesses a fine if the loan is overdue (Librarian/Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/return/approve [post]
func (h *LoanHandler) ApproveReturn(c *fiber.Ctx) error {
	loan, err := h.loanService.ApproveReturn(c.Context(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to approve return")
	}

	return response.Success(c, "Return approved", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// Lost marks a loaned book as lost
// @Summary Mark lost
// @Description Mark an open loan's book as lost (Librarian/Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/lost [post]
func (h *LoanHandler) Lost(c *fiber.Ctx) error {
	loan, err := h.loanService.MarkLost(c.Context(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to mark loan as lost")
	}

	return response.Success(c, "Book marked as lost", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// Found marks a lost book as found
// @Summary Mark found
// @Description Reactivate a lost loan after the book turns up (Librarian/Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /loans/{id}/found [post]
func (h *LoanHandler) Found(c *fiber.Ctx) error {
	loan, err := h.loanService.MarkFound(c.Context(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to mark loan as found")
	}

	return response.Success(c, "Book marked as found", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// PayFine records fine payment
// @Summary Pay fine
// @Description Record payment of the fine owed on a loan, freezing the amount (Librarian/Admin only)
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id}/fine/pay [post]
func (h *LoanHandler) PayFine(c *fiber.Ctx) error {
	loan, err := h.loanService.MarkFinePaid(c.Context(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to record fine payment")
	}

	return response.Success(c, "Fine paid", fiber.Map{
		"loan": h.toResponse(loan),
	})
}

// canView reports whether the caller may read the loan
func (h *LoanHandler) canView(c *fiber.Ctx, loan *domain.Loan) bool {
	role, _ := c.Locals("role").(string)
	if role == "LIBRARIAN" || role == "ADMIN" {
		return true
	}
	userID, _ := c.Locals("userID").(uint)
	return loan.UserID == userID
}

