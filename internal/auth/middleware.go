package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKeyBorrowerID is the gin context key holding the authenticated
// borrower's ID.
const ContextKeyBorrowerID = "borrower_id"

// GetBorrowerID extracts the authenticated borrower's ID from the gin
// context. Returns the empty string when unauthenticated.
func GetBorrowerID(c *gin.Context) string {
	id, _ := c.Get(ContextKeyBorrowerID)
	s, _ := id.(string)
	return s
}

// RequireBorrower returns a middleware that rejects requests without a
// valid session and injects the borrower ID into the gin context otherwise.
func (sm *SessionManager) RequireBorrower() gin.HandlerFunc {
	return func(c *gin.Context) {
		borrowerID := sm.GetBorrowerID(c.Request)
		if borrowerID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(ContextKeyBorrowerID, borrowerID)
		c.Next()
	}
}
