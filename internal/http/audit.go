package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"librarium/internal/audit"
	"librarium/internal/auth"
	"librarium/internal/entities"
)

// AuditController exposes the circulation audit trail.
type AuditController struct {
	auditService *audit.Service
}

// NewAuditController creates the audit controller.
func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

// GetAuditEvents returns the authenticated borrower's audit trail as JSON,
// optionally filtered by event type.
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	borrowerID := auth.GetBorrowerID(c)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}

	eventType := c.Query("type")
	offset := (page - 1) * limit

	var events []entities.AuditEvent
	var total int64
	var err error

	if eventType != "" {
		events, total, err = ac.auditService.GetEventsByType(entities.AuditEventType(eventType), borrowerID, limit, offset)
	} else {
		events, total, err = ac.auditService.GetEvents(borrowerID, limit, offset)
	}
	if err != nil {
		respondInternalError(c, err, "load audit events")
		return
	}

	totalPages := (int(total) + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	c.JSON(http.StatusOK, gin.H{
		"events":       events,
		"page":         page,
		"limit":        limit,
		"total_pages":  totalPages,
		"total_events": total,
	})
}
