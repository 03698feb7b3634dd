// Package borrowings provides the loan record store.
//
// Loan rows are append-only except for the single Close mutation that sets
// the return date. Create and Close take an explicit *gorm.DB so the
// coordinator can run them inside one transaction together with the
// inventory ledger mutation.
package borrowings

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"librarium/internal/entities"
)

// ErrNotFound is returned when no loan record matches the lookup.
var ErrNotFound = errors.New("loan record not found")

// FindOpenLoan returns the open loan for the pair, if any. The lookup is
// advisory; the partial unique index on open loans is what actually keeps a
// pair from holding two open loans at once.
func FindOpenLoan(db *gorm.DB, bookID, borrowerID string) (*entities.Borrowing, error) {
	var loan entities.Borrowing
	err := db.Where("book_id = ? AND borrower_id = ? AND return_date IS NULL", bookID, borrowerID).
		First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// Create inserts a new open loan within the given transaction. The checkout
// date is the current time and the return date starts out null.
func Create(tx *gorm.DB, bookID, borrowerID string, dueDate time.Time) (*entities.Borrowing, error) {
	loan := &entities.Borrowing{
		BookID:       bookID,
		BorrowerID:   borrowerID,
		CheckoutDate: time.Now(),
		DueDate:      dueDate,
	}
	if err := tx.Create(loan).Error; err != nil {
		return nil, err
	}
	return loan, nil
}

// Close stamps the return date on an open loan within the given transaction.
// Closing an already-closed loan is a programming error surfaced as
// ErrNotFound.
func Close(tx *gorm.DB, loan *entities.Borrowing) error {
	now := time.Now()
	result := tx.Model(&entities.Borrowing{}).
		Where("id = ? AND return_date IS NULL", loan.ID).
		Update("return_date", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	loan.ReturnDate = &now
	return nil
}

// Repository handles loan record reads and overdue-notice bookkeeping.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loan record repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindOpenLoan returns the open loan for the pair, if any.
func (r *Repository) FindOpenLoan(bookID, borrowerID string) (*entities.Borrowing, error) {
	return FindOpenLoan(r.db, bookID, borrowerID)
}

func (r *Repository) withProjections() *gorm.DB {
	return r.db.Preload("Book").Preload("Borrower").Order("id ASC")
}

// GetAll returns all loan records in insertion order with book and borrower
// projections. A limit of -1 means unbounded.
func (r *Repository) GetAll(limit, offset int) ([]entities.Borrowing, error) {
	var loans []entities.Borrowing
	query := r.withProjections()
	if limit > -1 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&loans).Error
	return loans, err
}

// GetByBorrowerID returns all loans, open and closed, for one borrower.
func (r *Repository) GetByBorrowerID(borrowerID string) ([]entities.Borrowing, error) {
	var loans []entities.Borrowing
	err := r.withProjections().Where("borrower_id = ?", borrowerID).Find(&loans).Error
	return loans, err
}

// GetByBookID returns all loans, open and closed, for one book.
func (r *Repository) GetByBookID(bookID string) ([]entities.Borrowing, error) {
	var loans []entities.Borrowing
	err := r.withProjections().Where("book_id = ?", bookID).Find(&loans).Error
	return loans, err
}

// GetOverdue returns open loans whose due date has passed.
func (r *Repository) GetOverdue(now time.Time) ([]entities.Borrowing, error) {
	var loans []entities.Borrowing
	err := r.withProjections().
		Where("return_date IS NULL AND due_date < ?", now).
		Find(&loans).Error
	return loans, err
}

// GetBorrowerOverdue returns open overdue loans for one borrower.
func (r *Repository) GetBorrowerOverdue(borrowerID string, now time.Time) ([]entities.Borrowing, error) {
	var loans []entities.Borrowing
	err := r.withProjections().
		Where("return_date IS NULL AND due_date < ? AND borrower_id = ?", now, borrowerID).
		Find(&loans).Error
	return loans, err
}

// GetByCheckoutRange returns loans checked out within [start, end],
// optionally intersected with the overdue predicate.
func (r *Repository) GetByCheckoutRange(start, end time.Time, onlyOverdue bool, now time.Time) ([]entities.Borrowing, error) {
	var loans []entities.Borrowing
	query := r.withProjections().Where("checkout_date BETWEEN ? AND ?", start, end)
	if onlyOverdue {
		query = query.Where("return_date IS NULL AND due_date < ?", now)
	}
	err := query.Find(&loans).Error
	return loans, err
}

// GetOverdueWithoutNotice returns open overdue loans that the sweep has not
// yet produced a notice for.
func (r *Repository) GetOverdueWithoutNotice(now time.Time) ([]entities.Borrowing, error) {
	var loans []entities.Borrowing
	err := r.db.Preload("Book").Order("id ASC").
		Where("return_date IS NULL AND due_date < ?", now).
		Where("id NOT IN (?)", r.db.Model(&entities.OverdueNotice{}).Select("borrowing_id")).
		Find(&loans).Error
	return loans, err
}

// RecordNotice stores an overdue notice for a loan. Safe to call more than
// once for the same loan; the unique index turns replays into no-ops.
func (r *Repository) RecordNotice(borrowingID uint, borrowerID string) error {
	notice := &entities.OverdueNotice{
		BorrowingID: borrowingID,
		BorrowerID:  borrowerID,
		SentAt:      time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(notice).Error
}
