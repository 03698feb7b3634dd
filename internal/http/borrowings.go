package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"librarium/internal/audit"
	"librarium/internal/auth"
	"librarium/internal/circulation"
)

// BorrowingsController serves the borrow/return operations and the loan
// report queries. Every borrow and return attempt lands in the audit trail.
type BorrowingsController struct {
	service *circulation.Service
	audit   *audit.Service
}

// NewBorrowingsController creates the borrowings controller.
func NewBorrowingsController(service *circulation.Service, auditService *audit.Service) *BorrowingsController {
	return &BorrowingsController{service: service, audit: auditService}
}

func respondResult(c *gin.Context, result circulation.Result) {
	status := http.StatusOK
	switch {
	case result.Status:
		status = http.StatusOK
	case result.Kind == circulation.KindInternal:
		status = http.StatusInternalServerError
	default:
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

type borrowRequest struct {
	BookID  string    `json:"book_id" binding:"required"`
	DueDate time.Time `json:"due_date" binding:"required"`
}

// Borrow lends a copy of a book to the authenticated borrower.
// POST /api/borrowings/borrow
func (bc *BorrowingsController) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id and due_date are required")
		return
	}

	borrowerID := auth.GetBorrowerID(c)
	result, err := bc.service.BorrowABook(borrowerID, req.BookID, req.DueDate)
	if err != nil {
		respondInternalError(c, err, "borrow a book")
		return
	}
	bc.audit.LogBorrow(borrowerID, req.BookID, result.Message, result.Status)
	respondResult(c, result)
}

type returnRequest struct {
	BookID string `json:"book_id" binding:"required"`
}

// Return closes the authenticated borrower's open loan of a book.
// POST /api/borrowings/return
func (bc *BorrowingsController) Return(c *gin.Context) {
	var req returnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id is required")
		return
	}

	borrowerID := auth.GetBorrowerID(c)
	result, err := bc.service.ReturnBook(borrowerID, req.BookID)
	if err != nil {
		respondInternalError(c, err, "return a book")
		return
	}
	bc.audit.LogReturn(borrowerID, req.BookID, result.Message, result.Status)
	respondResult(c, result)
}

// List returns all loan records with borrower/book projections.
// GET /api/borrowings
func (bc *BorrowingsController) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	views, err := bc.service.GetAll(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list borrowings")
		return
	}
	c.JSON(http.StatusOK, views)
}

// My returns all loans, open and closed, of the authenticated borrower.
// GET /api/borrowings/my
func (bc *BorrowingsController) My(c *gin.Context) {
	views, err := bc.service.GetByBorrowerID(auth.GetBorrowerID(c))
	if err != nil {
		respondInternalError(c, err, "list borrower loans")
		return
	}
	c.JSON(http.StatusOK, views)
}

// ByBook returns the full lending history of one book.
// GET /api/books/:id/borrowings
func (bc *BorrowingsController) ByBook(c *gin.Context) {
	views, err := bc.service.GetByBookID(c.Param("id"))
	if err != nil {
		respondInternalError(c, err, "list book loans")
		return
	}
	c.JSON(http.StatusOK, views)
}

// Overdue returns all open loans past their due date.
// GET /api/borrowings/overdue
func (bc *BorrowingsController) Overdue(c *gin.Context) {
	views, err := bc.service.GetOverdueBorrowings()
	if err != nil {
		respondInternalError(c, err, "list overdue borrowings")
		return
	}
	c.JSON(http.StatusOK, views)
}

// MyOverdue returns the authenticated borrower's open overdue loans.
// GET /api/borrowings/overdue/my
func (bc *BorrowingsController) MyOverdue(c *gin.Context) {
	views, err := bc.service.GetBorrowerOverdueBorrowings(auth.GetBorrowerID(c))
	if err != nil {
		respondInternalError(c, err, "list borrower overdue loans")
		return
	}
	c.JSON(http.StatusOK, views)
}

// Report returns loans checked out in a date window. Accepts either
// last_days=N or an explicit start/end pair (RFC 3339), plus only_overdue.
// GET /api/borrowings/report
func (bc *BorrowingsController) Report(c *gin.Context) {
	onlyOverdue := parseBoolQuery(c, "only_overdue")

	if daysStr := c.Query("last_days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil || days < 0 {
			respondBadRequest(c, "last_days must be a non-negative integer")
			return
		}
		views, err := bc.service.BorrowingsLastNDays(days, onlyOverdue)
		if err != nil {
			respondInternalError(c, err, "report borrowings")
			return
		}
		c.JSON(http.StatusOK, views)
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		respondBadRequest(c, "start must be an RFC 3339 timestamp")
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		respondBadRequest(c, "end must be an RFC 3339 timestamp")
		return
	}
	if end.Before(start) {
		respondBadRequest(c, "end must not be before start")
		return
	}

	views, err := bc.service.ReportStatus(start, end, onlyOverdue)
	if err != nil {
		respondInternalError(c, err, "report borrowings")
		return
	}
	c.JSON(http.StatusOK, views)
}
