// Package scheduler runs the periodic overdue sweep: it finds open loans
// past their due date that have no notice yet and enqueues one notice task
// per loan.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"librarium/internal/database/borrowings"
	"librarium/internal/tasks"
)

// OverdueSweepScheduler manages the periodic overdue scan.
type OverdueSweepScheduler struct {
	loans      *borrowings.Repository
	taskClient *tasks.Client
	schedule   string

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewOverdueSweepScheduler creates a new scheduler instance.
func NewOverdueSweepScheduler(loans *borrowings.Repository, taskClient *tasks.Client, schedule string) *OverdueSweepScheduler {
	return &OverdueSweepScheduler{
		loans:      loans,
		taskClient: taskClient,
		schedule:   schedule,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler.
func (s *OverdueSweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunSweep(); err != nil {
			log.Printf("Overdue sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule overdue sweep: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true
	log.Printf("Overdue sweep scheduler started with schedule '%s'", s.schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the scheduler and waits for an in-flight sweep to finish.
func (s *OverdueSweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.isRunning = false
	log.Printf("Overdue sweep scheduler stopped")
}

// RunSweep performs one scan and enqueues a notice task per overdue loan
// that has not been noticed yet. Exposed for manual triggering in tests.
func (s *OverdueSweepScheduler) RunSweep() error {
	overdue, err := s.loans.GetOverdueWithoutNotice(time.Now())
	if err != nil {
		return fmt.Errorf("query overdue loans: %w", err)
	}

	if len(overdue) == 0 {
		return nil
	}

	enqueued := 0
	for _, loan := range overdue {
		task := tasks.OverdueNoticeTask{
			BorrowingID: loan.ID,
			BorrowerID:  loan.BorrowerID,
			BookTitle:   loan.Book.Title,
			DueDate:     loan.DueDate.Format(time.RFC3339),
		}
		if _, err := s.taskClient.Add(task).Save(); err != nil {
			log.Printf("Failed to enqueue overdue notice for loan %d: %v", loan.ID, err)
			continue
		}
		enqueued++
	}

	log.Printf("Overdue sweep: %d loans overdue, %d notices enqueued", len(overdue), enqueued)
	return nil
}
