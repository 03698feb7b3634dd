package entities

import "time"

type AuditEventType string

const (
	AuditEventBorrow AuditEventType = "borrow"
	AuditEventReturn AuditEventType = "return"
)

type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailed  AuditStatus = "failed"
)

// AuditEvent is one entry in the circulation audit trail. Every borrow and
// return attempt is recorded, including rejected ones.
type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	BorrowerID  string         `gorm:"index;size:36" json:"borrower_id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`
	Description string         `gorm:"size:500" json:"description"`
	BookID      string         `gorm:"index;size:36" json:"book_id,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
