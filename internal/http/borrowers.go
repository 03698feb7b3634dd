package http

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"librarium/internal/auth"
	"librarium/internal/database/borrowers"
)

// BorrowersController serves patron registration and account management.
type BorrowersController struct {
	repo       *borrowers.Repository
	bcryptCost int
}

// NewBorrowersController creates the borrower controller.
func NewBorrowersController(repo *borrowers.Repository, bcryptCost int) *BorrowersController {
	return &BorrowersController{repo: repo, bcryptCost: bcryptCost}
}

type registerBorrowerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new borrower account with a hashed password.
// POST /api/borrowers
func (bc *BorrowersController) Register(c *gin.Context) {
	var req registerBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password, bc.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
			respondBadRequest(c, err.Error())
			return
		}
		respondInternalError(c, err, "hash password")
		return
	}

	borrower, err := bc.repo.Create(req.Name, req.Email, hash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondBadRequest(c, "a borrower with this email already exists")
			return
		}
		respondInternalError(c, err, "register borrower")
		return
	}

	respondCreated(c, borrower)
}

// List returns all registered borrowers, or a single one when an email
// query parameter is given.
// GET /api/borrowers
func (bc *BorrowersController) List(c *gin.Context) {
	if email := c.Query("email"); email != "" {
		borrower, err := bc.repo.GetByEmail(email)
		if errors.Is(err, borrowers.ErrNotFound) {
			respondNotFound(c, "borrower")
			return
		}
		if err != nil {
			respondInternalError(c, err, "get borrower by email")
			return
		}
		c.JSON(200, borrower)
		return
	}

	found, err := bc.repo.List()
	if err != nil {
		respondInternalError(c, err, "list borrowers")
		return
	}
	c.JSON(200, found)
}

// Get returns one borrower account.
// GET /api/borrowers/:id
func (bc *BorrowersController) Get(c *gin.Context) {
	borrower, err := bc.repo.GetByID(c.Param("id"))
	if errors.Is(err, borrowers.ErrNotFound) {
		respondNotFound(c, "borrower")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get borrower")
		return
	}
	c.JSON(200, borrower)
}

type updateBorrowerRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Update modifies a borrower account, rehashing the password when one is
// supplied.
// PATCH /api/borrowers/:id
func (bc *BorrowersController) Update(c *gin.Context) {
	var req updateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	in := borrowers.UpdateInput{Name: req.Name, Email: req.Email}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password, bc.bcryptCost)
		if err != nil {
			respondBadRequest(c, err.Error())
			return
		}
		in.PasswordHash = &hash
	}

	borrower, err := bc.repo.Update(c.Param("id"), in)
	if errors.Is(err, borrowers.ErrNotFound) {
		respondNotFound(c, "borrower")
		return
	}
	if err != nil {
		respondInternalError(c, err, "update borrower")
		return
	}
	c.JSON(200, borrower)
}

// Delete removes a borrower and their loan history.
// DELETE /api/borrowers/:id
func (bc *BorrowersController) Delete(c *gin.Context) {
	err := bc.repo.Delete(c.Param("id"))
	if errors.Is(err, borrowers.ErrNotFound) {
		respondNotFound(c, "borrower")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete borrower")
		return
	}
	respondSuccess(c, "borrower deleted")
}
