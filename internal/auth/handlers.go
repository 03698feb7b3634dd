package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"librarium/internal/database/borrowers"
)

// Controller serves login/logout for registered borrowers.
type Controller struct {
	borrowers *borrowers.Repository
	sessions  *SessionManager
}

// NewController creates the auth controller.
func NewController(repo *borrowers.Repository, sessions *SessionManager) *Controller {
	return &Controller{borrowers: repo, sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies the borrower's credentials and opens a session.
// POST /api/auth/login
func (ac *Controller) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	borrower, err := ac.borrowers.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, borrowers.ErrNotFound) {
			// Same response as a wrong password so the endpoint does not
			// leak which emails are registered.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		log.Printf("login lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if err := CheckPassword(req.Password, borrower.PasswordHash); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := ac.sessions.CreateSession(c.Request, borrower); err != nil {
		log.Printf("session creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged in", "borrower": borrower})
}

// Logout destroys the current session.
// POST /api/auth/logout
func (ac *Controller) Logout(c *gin.Context) {
	if err := ac.sessions.DestroySession(c.Request); err != nil {
		log.Printf("session destroy failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated borrower's account.
// GET /api/auth/me
func (ac *Controller) Me(c *gin.Context) {
	borrowerID := GetBorrowerID(c)
	borrower, err := ac.borrowers.GetByID(borrowerID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	c.JSON(http.StatusOK, borrower)
}

// RegisterRoutes attaches the auth endpoints to the router.
func (ac *Controller) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/auth/login", ac.Login)
	router.POST("/api/auth/logout", ac.Logout)
	router.GET("/api/auth/me", ac.sessions.RequireBorrower(), ac.Me)
}
