package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// NoticeRecorder persists the fact that a borrower was notified about one
// overdue loan. Implemented by the borrowings repository.
type NoticeRecorder interface {
	RecordNotice(borrowingID uint, borrowerID string) error
}

// OverdueNoticeTask notifies one borrower about one overdue loan. The
// sweep enqueues one task per loan so a failure retries in isolation.
type OverdueNoticeTask struct {
	BorrowingID uint   `json:"borrowing_id"`
	BorrowerID  string `json:"borrower_id"`
	BookTitle   string `json:"book_title"`
	DueDate     string `json:"due_date"`
}

// Config returns the queue configuration for overdue notice tasks.
func (t OverdueNoticeTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_notice",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueNoticeProcessor creates a processor function for OverdueNoticeTask.
func OverdueNoticeProcessor(recorder NoticeRecorder) backlite.QueueProcessor[OverdueNoticeTask] {
	return func(ctx context.Context, task OverdueNoticeTask) error {
		if recorder == nil {
			return fmt.Errorf("notice recorder not configured")
		}

		if err := recorder.RecordNotice(task.BorrowingID, task.BorrowerID); err != nil {
			return fmt.Errorf("record overdue notice: %w", err)
		}

		log.Printf("[TASK] Overdue notice for borrower %s: %q was due %s",
			task.BorrowerID, task.BookTitle, task.DueDate)
		return nil
	}
}

// NewOverdueNoticeQueue creates a backlite queue for overdue notices.
func NewOverdueNoticeQueue(recorder NoticeRecorder) backlite.Queue {
	return backlite.NewQueue(OverdueNoticeProcessor(recorder))
}
