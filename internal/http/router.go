package http

import (
	"github.com/gin-gonic/gin"

	"librarium/internal/audit"
	"librarium/internal/auth"
	"librarium/internal/circulation"
	"librarium/internal/database"
	"librarium/internal/database/books"
	"librarium/internal/database/borrowers"
)

// RouterConfig contains all dependencies needed to create the HTTP router.
type RouterConfig struct {
	Database    *database.Database
	Circulation *circulation.Service
	Books       *books.Repository
	Borrowers   *borrowers.Repository
	Audit       *audit.Service
	Sessions    *auth.SessionManager
	BcryptCost  int
	Version     string
}

// NewRouter creates and configures the HTTP router with all endpoints.
// Catalog reads and borrower registration are public; everything touching
// loans requires a session.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cfg.Sessions.SessionLoadSave())

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	authController := auth.NewController(cfg.Borrowers, cfg.Sessions)
	authController.RegisterRoutes(router)

	booksController := NewBooksController(cfg.Books)
	router.GET("/api/books", booksController.List)
	router.GET("/api/books/:id", booksController.Get)

	borrowersController := NewBorrowersController(cfg.Borrowers, cfg.BcryptCost)
	router.POST("/api/borrowers", borrowersController.Register)

	borrowingsController := NewBorrowingsController(cfg.Circulation, cfg.Audit)

	authed := router.Group("/", cfg.Sessions.RequireBorrower())
	{
		authed.POST("/api/books", booksController.Create)
		authed.PATCH("/api/books/:id", booksController.Update)
		authed.DELETE("/api/books/:id", booksController.Delete)
		authed.GET("/api/books/:id/borrowings", borrowingsController.ByBook)

		authed.GET("/api/borrowers", borrowersController.List)
		authed.GET("/api/borrowers/:id", borrowersController.Get)
		authed.PATCH("/api/borrowers/:id", borrowersController.Update)
		authed.DELETE("/api/borrowers/:id", borrowersController.Delete)

		authed.POST("/api/borrowings/borrow", borrowingsController.Borrow)
		authed.POST("/api/borrowings/return", borrowingsController.Return)
		authed.GET("/api/borrowings", borrowingsController.List)
		authed.GET("/api/borrowings/my", borrowingsController.My)
		authed.GET("/api/borrowings/overdue", borrowingsController.Overdue)
		authed.GET("/api/borrowings/overdue/my", borrowingsController.MyOverdue)
		authed.GET("/api/borrowings/report", borrowingsController.Report)

		auditController := NewAuditController(cfg.Audit)
		authed.GET("/api/audit", auditController.GetAuditEvents)
	}

	return router
}
