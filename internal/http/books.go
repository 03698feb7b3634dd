package http

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"librarium/internal/database/books"
)

// BooksController serves catalog CRUD and search.
type BooksController struct {
	repo *books.Repository
}

// NewBooksController creates the catalog controller.
func NewBooksController(repo *books.Repository) *BooksController {
	return &BooksController{repo: repo}
}

type createBookRequest struct {
	Title             string `json:"title" binding:"required"`
	Author            string `json:"author" binding:"required"`
	ISBN              string `json:"isbn" binding:"required"`
	AvailableQuantity int    `json:"available_quantity" binding:"min=0"`
	ShelfLocation     string `json:"shelf_location"`
}

// Create adds a book to the catalog.
// POST /api/books
func (bc *BooksController) Create(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "title, author and isbn are required")
		return
	}

	book, err := bc.repo.Create(books.CreateInput{
		Title:             req.Title,
		Author:            req.Author,
		ISBN:              req.ISBN,
		AvailableQuantity: req.AvailableQuantity,
		ShelfLocation:     req.ShelfLocation,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			respondBadRequest(c, "a book with this ISBN already exists")
			return
		}
		respondInternalError(c, err, "create book")
		return
	}

	respondCreated(c, book)
}

// List returns catalog entries, optionally filtered by title, author or
// ISBN query parameters.
// GET /api/books
func (bc *BooksController) List(c *gin.Context) {
	if isbn := c.Query("isbn"); isbn != "" {
		book, err := bc.repo.GetByISBN(isbn)
		if errors.Is(err, books.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		if err != nil {
			respondInternalError(c, err, "get book by isbn")
			return
		}
		c.JSON(200, book)
		return
	}

	if title := c.Query("title"); title != "" {
		found, err := bc.repo.SearchByTitle(title)
		if err != nil {
			respondInternalError(c, err, "search books by title")
			return
		}
		c.JSON(200, found)
		return
	}

	if author := c.Query("author"); author != "" {
		found, err := bc.repo.SearchByAuthor(author)
		if err != nil {
			respondInternalError(c, err, "search books by author")
			return
		}
		c.JSON(200, found)
		return
	}

	limit, offset := parsePagination(c)
	found, err := bc.repo.List(limit, offset)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(200, found)
}

// Get returns one catalog entry.
// GET /api/books/:id
func (bc *BooksController) Get(c *gin.Context) {
	book, err := bc.repo.GetByID(c.Param("id"))
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(200, book)
}

type updateBookRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	ISBN          *string `json:"isbn"`
	ShelfLocation *string `json:"shelf_location"`
}

// Update modifies catalog fields of a book. The available quantity is not
// editable here; it only moves through borrow and return.
// PATCH /api/books/:id
func (bc *BooksController) Update(c *gin.Context) {
	var req updateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := bc.repo.Update(c.Param("id"), books.UpdateInput{
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		ShelfLocation: req.ShelfLocation,
	})
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "update book")
		return
	}
	c.JSON(200, book)
}

// Delete removes a book and its loan history.
// DELETE /api/books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	err := bc.repo.Delete(c.Param("id"))
	if errors.Is(err, books.ErrNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	respondSuccess(c, "book deleted")
}
