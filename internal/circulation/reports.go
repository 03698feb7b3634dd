package circulation

import (
	"time"

	"librarium/internal/entities"
)

// BorrowerView is the borrower projection embedded in a LoanView.
type BorrowerView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BookView is the book projection embedded in a LoanView.
type BookView struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	ISBN   string `json:"isbn"`
}

// LoanView is the read model returned by all report queries: the loan dates
// plus slim borrower and book projections.
type LoanView struct {
	CheckoutDate time.Time    `json:"checkoutDate"`
	DueDate      time.Time    `json:"dueDate"`
	ReturnDate   *time.Time   `json:"returnDate"`
	Borrower     BorrowerView `json:"borrower"`
	Book         BookView     `json:"book"`
}

func toLoanViews(loans []entities.Borrowing) []LoanView {
	views := make([]LoanView, 0, len(loans))
	for _, loan := range loans {
		views = append(views, LoanView{
			CheckoutDate: loan.CheckoutDate,
			DueDate:      loan.DueDate,
			ReturnDate:   loan.ReturnDate,
			Borrower: BorrowerView{
				ID:   loan.Borrower.ID,
				Name: loan.Borrower.Name,
			},
			Book: BookView{
				ID:     loan.Book.ID,
				Title:  loan.Book.Title,
				Author: loan.Book.Author,
				ISBN:   loan.Book.ISBN,
			},
		})
	}
	return views
}

// GetAll returns every loan record in insertion order. A limit of -1 means
// unbounded.
func (s *Service) GetAll(limit, offset int) ([]LoanView, error) {
	loans, err := s.loans.GetAll(limit, offset)
	if err != nil {
		return nil, err
	}
	return toLoanViews(loans), nil
}

// GetByBorrowerID returns all loans, open and closed, for one borrower.
func (s *Service) GetByBorrowerID(borrowerID string) ([]LoanView, error) {
	loans, err := s.loans.GetByBorrowerID(borrowerID)
	if err != nil {
		return nil, err
	}
	return toLoanViews(loans), nil
}

// GetByBookID returns the full lending history of one book, open and closed
// loans alike.
func (s *Service) GetByBookID(bookID string) ([]LoanView, error) {
	loans, err := s.loans.GetByBookID(bookID)
	if err != nil {
		return nil, err
	}
	return toLoanViews(loans), nil
}

// GetOverdueBorrowings returns open loans past their due date across all
// borrowers.
func (s *Service) GetOverdueBorrowings() ([]LoanView, error) {
	loans, err := s.loans.GetOverdue(time.Now())
	if err != nil {
		return nil, err
	}
	return toLoanViews(loans), nil
}

// GetBorrowerOverdueBorrowings returns open overdue loans for one borrower.
func (s *Service) GetBorrowerOverdueBorrowings(borrowerID string) ([]LoanView, error) {
	loans, err := s.loans.GetBorrowerOverdue(borrowerID, time.Now())
	if err != nil {
		return nil, err
	}
	return toLoanViews(loans), nil
}

// ReportStatus returns loans whose checkout date falls within [start, end],
// optionally restricted to those currently overdue.
func (s *Service) ReportStatus(start, end time.Time, onlyOverdue bool) ([]LoanView, error) {
	loans, err := s.loans.GetByCheckoutRange(start, end, onlyOverdue, time.Now())
	if err != nil {
		return nil, err
	}
	return toLoanViews(loans), nil
}

// BorrowingsLastNDays is a convenience wrapper over ReportStatus for the
// trailing n-day window ending now.
func (s *Service) BorrowingsLastNDays(days int, onlyOverdue bool) ([]LoanView, error) {
	now := time.Now()
	return s.ReportStatus(now.AddDate(0, 0, -days), now, onlyOverdue)
}
