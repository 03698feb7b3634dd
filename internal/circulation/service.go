// Package circulation owns the borrowing lifecycle: it coordinates the
// inventory ledger and the loan record store so that a copy moving off or
// back onto the shelf and its loan row are never observable apart.
package circulation

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"

	"librarium/internal/database"
	"librarium/internal/database/books"
	"librarium/internal/database/borrowers"
	"librarium/internal/database/borrowings"
)

// errNoCopies aborts the borrow transaction when the conditional decrement
// finds no copy left, i.e. this call lost the race after passing the
// advisory availability check.
var errNoCopies = errors.New("no copies left at decrement time")

// errLoanAlreadyClosed aborts the return transaction when the loan was
// closed between the precondition read and the mutation.
var errLoanAlreadyClosed = errors.New("loan already closed")

// Service is the borrowing coordinator. All mutations of a single borrow or
// return call happen inside one transaction; precondition reads happen
// before it and are advisory.
type Service struct {
	db        *database.Database
	books     *books.Repository
	borrowers *borrowers.Repository
	loans     *borrowings.Repository
}

// NewService creates a borrowing coordinator on top of the shared database.
func NewService(db *database.Database) *Service {
	return &Service{
		db:        db,
		books:     books.NewRepository(db.DB),
		borrowers: borrowers.NewRepository(db.DB),
		loans:     borrowings.NewRepository(db.DB),
	}
}

// BorrowABook lends one copy of a book to a borrower until dueDate.
//
// Expected failures (unknown borrower or book, duplicate open loan, no
// copies, due date not in the future) come back as a false Result. The
// returned error is non-nil only when storage itself fails outside the
// transaction; transaction failures are logged and reported as a generic
// retryable Result.
func (s *Service) BorrowABook(borrowerID, bookID string, dueDate time.Time) (Result, error) {
	if _, err := s.borrowers.GetByID(borrowerID); err != nil {
		if errors.Is(err, borrowers.ErrNotFound) {
			return failure(KindUnknownUser, MsgUserNotAllowed), nil
		}
		return Result{}, err
	}

	if _, err := s.loans.FindOpenLoan(bookID, borrowerID); err == nil {
		return failure(KindDuplicateLoan, MsgAlreadyBorrowing), nil
	} else if !errors.Is(err, borrowings.ErrNotFound) {
		return Result{}, err
	}

	book, err := s.books.GetByID(bookID)
	if err != nil {
		if errors.Is(err, books.ErrNotFound) {
			return failure(KindUnknownBook, MsgBookMissing), nil
		}
		return Result{}, err
	}

	if !book.IsBorrowable() {
		return failure(KindNoCopies, MsgNoCopiesLeft), nil
	}

	if !dueDate.After(time.Now()) {
		return failure(KindInvalidDueDate, MsgDueDateInPast), nil
	}

	err = s.db.WithTransaction(func(tx *gorm.DB) error {
		if _, err := borrowings.Create(tx, bookID, borrowerID, dueDate); err != nil {
			return err
		}
		borrowed, err := books.BorrowCopy(tx, bookID)
		if err != nil {
			return err
		}
		if !borrowed {
			return errNoCopies
		}
		return nil
	})
	if errors.Is(err, errNoCopies) {
		// Lost the last copy to a concurrent borrower between the advisory
		// check and the decrement. The transaction rolled back; the caller
		// sees the same no-copies outcome as an empty shelf up front.
		return failure(KindNoCopies, MsgNoCopiesLeft), nil
	}
	if err != nil {
		log.Printf("borrowing book %s for borrower %s failed: %v", bookID, borrowerID, err)
		return failure(KindInternal, MsgBorrowFailed), nil
	}

	return success(MsgBorrowSuccess), nil
}

// ReturnBook closes the borrower's open loan of the book and puts the copy
// back on the shelf. Same failure taxonomy as BorrowABook.
func (s *Service) ReturnBook(borrowerID, bookID string) (Result, error) {
	loan, err := s.loans.FindOpenLoan(bookID, borrowerID)
	if err != nil {
		if errors.Is(err, borrowings.ErrNotFound) {
			return failure(KindNoActiveLoan, MsgNotBorrowed), nil
		}
		return Result{}, err
	}

	if _, err := s.books.GetByID(bookID); err != nil {
		if errors.Is(err, books.ErrNotFound) {
			return failure(KindUnknownBook, MsgBookMissing), nil
		}
		return Result{}, err
	}

	err = s.db.WithTransaction(func(tx *gorm.DB) error {
		if err := borrowings.Close(tx, loan); err != nil {
			if errors.Is(err, borrowings.ErrNotFound) {
				return errLoanAlreadyClosed
			}
			return err
		}
		return books.ReturnCopy(tx, bookID)
	})
	if errors.Is(err, errLoanAlreadyClosed) {
		return failure(KindNoActiveLoan, MsgNotBorrowed), nil
	}
	if err != nil {
		log.Printf("returning book %s for borrower %s failed: %v", bookID, borrowerID, err)
		return failure(KindInternal, MsgReturnFailed), nil
	}

	return success(MsgReturnSuccess), nil
}

// Loans exposes the underlying loan record repository for read-side
// consumers like the overdue sweep.
func (s *Service) Loans() *borrowings.Repository {
	return s.loans
}
