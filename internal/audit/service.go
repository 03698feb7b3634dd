// Package audit records a trail of circulation activity: every borrow and
// return attempt, successful or rejected, with the outcome message.
package audit

import (
	"log"
	"time"

	"librarium/internal/database/audit"
	"librarium/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogBorrow records a borrow attempt and its outcome.
func (s *Service) LogBorrow(borrowerID, bookID, outcome string, success bool) {
	event := &entities.AuditEvent{
		BorrowerID:  borrowerID,
		EventType:   entities.AuditEventBorrow,
		Action:      "book_borrow",
		Description: truncate(outcome, 500),
		BookID:      bookID,
		Status:      entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// LogReturn records a return attempt and its outcome.
func (s *Service) LogReturn(borrowerID, bookID, outcome string, success bool) {
	event := &entities.AuditEvent{
		BorrowerID:  borrowerID,
		EventType:   entities.AuditEventReturn,
		Action:      "book_return",
		Description: truncate(outcome, 500),
		BookID:      bookID,
		Status:      entities.AuditStatusSuccess,
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}
	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(borrowerID string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(borrowerID, limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, borrowerID string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, borrowerID, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
