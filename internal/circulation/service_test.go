package circulation

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/database"
	"librarium/internal/database/books"
	"librarium/internal/database/borrowers"
	"librarium/internal/database/borrowings"
	"librarium/internal/entities"
)

type testEnv struct {
	db        *database.Database
	service   *Service
	books     *books.Repository
	borrowers *borrowers.Repository
	loans     *borrowings.Repository
}

func setupTest(t *testing.T) (*testEnv, func()) {
	dbPath := "./test_circulation_" + t.Name() + ".db"

	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	env := &testEnv{
		db:        db,
		service:   NewService(db),
		books:     books.NewRepository(db.DB),
		borrowers: borrowers.NewRepository(db.DB),
		loans:     borrowings.NewRepository(db.DB),
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return env, cleanup
}

func (e *testEnv) addBook(t *testing.T, title string, quantity int) *entities.Book {
	book, err := e.books.Create(books.CreateInput{
		Title:             title,
		Author:            "Author",
		ISBN:              "isbn-" + title,
		AvailableQuantity: quantity,
	})
	require.NoError(t, err)
	return book
}

func (e *testEnv) addBorrower(t *testing.T, name string) *entities.Borrower {
	borrower, err := e.borrowers.Create(name, name+"@example.com", "hash")
	require.NoError(t, err)
	return borrower
}

func (e *testEnv) quantity(t *testing.T, bookID string) int {
	book, err := e.books.GetByID(bookID)
	require.NoError(t, err)
	return book.AvailableQuantity
}

func inAWeek() time.Time {
	return time.Now().Add(7 * 24 * time.Hour)
}

func TestBorrowABook_Success(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 2)
	borrower := env.addBorrower(t, "ada")
	due := inAWeek()

	result, err := env.service.BorrowABook(borrower.ID, book.ID, due)
	require.NoError(t, err)
	assert.True(t, result.Status)
	assert.Equal(t, KindOK, result.Kind)
	assert.Equal(t, MsgBorrowSuccess, result.Message)

	assert.Equal(t, 1, env.quantity(t, book.ID))

	loan, err := env.loans.FindOpenLoan(book.ID, borrower.ID)
	require.NoError(t, err)
	assert.Nil(t, loan.ReturnDate)
	assert.WithinDuration(t, due, loan.DueDate, time.Second)
	assert.WithinDuration(t, time.Now(), loan.CheckoutDate, 2*time.Second)
}

func TestBorrowABook_UnknownBorrower(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 1)

	result, err := env.service.BorrowABook("nobody", book.ID, inAWeek())
	require.NoError(t, err)
	assert.False(t, result.Status)
	assert.Equal(t, KindUnknownUser, result.Kind)
	assert.Equal(t, MsgUserNotAllowed, result.Message)
	assert.Equal(t, 1, env.quantity(t, book.ID))
}

func TestBorrowABook_AlreadyBorrowing(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 5)
	borrower := env.addBorrower(t, "ada")

	first, err := env.service.BorrowABook(borrower.ID, book.ID, inAWeek())
	require.NoError(t, err)
	require.True(t, first.Status)

	second, err := env.service.BorrowABook(borrower.ID, book.ID, inAWeek())
	require.NoError(t, err)
	assert.False(t, second.Status)
	assert.Equal(t, KindDuplicateLoan, second.Kind)
	assert.Equal(t, MsgAlreadyBorrowing, second.Message)

	// Only the first borrow touched the shelf
	assert.Equal(t, 4, env.quantity(t, book.ID))
}

func TestBorrowABook_UnknownBook(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	borrower := env.addBorrower(t, "ada")

	result, err := env.service.BorrowABook(borrower.ID, "missing", inAWeek())
	require.NoError(t, err)
	assert.False(t, result.Status)
	assert.Equal(t, KindUnknownBook, result.Kind)
	assert.Equal(t, MsgBookMissing, result.Message)
}

func TestBorrowABook_NoCopiesLeft(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 0)
	borrower := env.addBorrower(t, "ada")

	result, err := env.service.BorrowABook(borrower.ID, book.ID, inAWeek())
	require.NoError(t, err)
	assert.False(t, result.Status)
	assert.Equal(t, KindNoCopies, result.Kind)
	assert.Equal(t, MsgNoCopiesLeft, result.Message)
	assert.Equal(t, 0, env.quantity(t, book.ID))
}

func TestBorrowABook_DueDateBoundary(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 3)
	borrower := env.addBorrower(t, "ada")

	// In the past: rejected
	result, err := env.service.BorrowABook(borrower.ID, book.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, result.Status)
	assert.Equal(t, KindInvalidDueDate, result.Kind)
	assert.Equal(t, MsgDueDateInPast, result.Message)

	// Not strictly after now: rejected
	result, err = env.service.BorrowABook(borrower.ID, book.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, result.Status)
	assert.Equal(t, MsgDueDateInPast, result.Message)

	assert.Equal(t, 3, env.quantity(t, book.ID))

	// One second in the future: accepted
	result, err = env.service.BorrowABook(borrower.ID, book.ID, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.True(t, result.Status)
	assert.Equal(t, 2, env.quantity(t, book.ID))
}

func TestBorrowABook_PreconditionOrder(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	// Unknown borrower wins over unknown book
	result, err := env.service.BorrowABook("nobody", "missing", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, MsgUserNotAllowed, result.Message)

	// Duplicate loan wins over the invalid due date
	book := env.addBook(t, "Dune", 2)
	borrower := env.addBorrower(t, "ada")
	first, err := env.service.BorrowABook(borrower.ID, book.ID, inAWeek())
	require.NoError(t, err)
	require.True(t, first.Status)

	result, err = env.service.BorrowABook(borrower.ID, book.ID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, MsgAlreadyBorrowing, result.Message)
}

func TestReturnBook_Success(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 1)
	borrower := env.addBorrower(t, "ada")

	borrowed, err := env.service.BorrowABook(borrower.ID, book.ID, inAWeek())
	require.NoError(t, err)
	require.True(t, borrowed.Status)
	require.Equal(t, 0, env.quantity(t, book.ID))

	returned, err := env.service.ReturnBook(borrower.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, returned.Status)
	assert.Equal(t, MsgReturnSuccess, returned.Message)

	// Round-trip restores the quantity exactly
	assert.Equal(t, 1, env.quantity(t, book.ID))

	loans, err := env.loans.GetByBorrowerID(borrower.ID)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	require.NotNil(t, loans[0].ReturnDate)
	assert.WithinDuration(t, time.Now(), *loans[0].ReturnDate, 2*time.Second)
}

func TestReturnBook_TwiceFailsSecondTime(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 1)
	borrower := env.addBorrower(t, "ada")

	borrowed, err := env.service.BorrowABook(borrower.ID, book.ID, inAWeek())
	require.NoError(t, err)
	require.True(t, borrowed.Status)

	first, err := env.service.ReturnBook(borrower.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, first.Status)

	second, err := env.service.ReturnBook(borrower.ID, book.ID)
	require.NoError(t, err)
	assert.False(t, second.Status)
	assert.Equal(t, KindNoActiveLoan, second.Kind)
	assert.Equal(t, MsgNotBorrowed, second.Message)

	// The double return must not inflate the shelf
	assert.Equal(t, 1, env.quantity(t, book.ID))
}

func TestReturnBook_NeverBorrowed(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 1)
	borrower := env.addBorrower(t, "ada")

	result, err := env.service.ReturnBook(borrower.ID, book.ID)
	require.NoError(t, err)
	assert.False(t, result.Status)
	assert.Equal(t, MsgNotBorrowed, result.Message)
}

func TestBorrowABook_ReborrowAfterReturn(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 1)
	borrower := env.addBorrower(t, "ada")

	borrowed, err := env.service.BorrowABook(borrower.ID, book.ID, inAWeek())
	require.NoError(t, err)
	require.True(t, borrowed.Status)

	returned, err := env.service.ReturnBook(borrower.ID, book.ID)
	require.NoError(t, err)
	require.True(t, returned.Status)

	again, err := env.service.BorrowABook(borrower.ID, book.ID, inAWeek())
	require.NoError(t, err)
	assert.True(t, again.Status, "re-borrowing after a return starts a fresh loan")

	loans, err := env.loans.GetByBorrowerID(borrower.ID)
	require.NoError(t, err)
	assert.Len(t, loans, 2)
}

func TestBorrowABook_ConcurrentLastCopy(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 1)
	x := env.addBorrower(t, "x")
	y := env.addBorrower(t, "y")

	var wg sync.WaitGroup
	results := make([]Result, 2)
	errs := make([]error, 2)

	for i, borrower := range []*entities.Borrower{x, y} {
		wg.Add(1)
		go func(i int, borrowerID string) {
			defer wg.Done()
			results[i], errs[i] = env.service.BorrowABook(borrowerID, book.ID, inAWeek())
		}(i, borrower.ID)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	successes := 0
	for _, r := range results {
		if r.Status {
			successes++
		} else {
			assert.Equal(t, MsgNoCopiesLeft, r.Message)
		}
	}
	assert.Equal(t, 1, successes, "exactly one of the two racing borrows may win the last copy")

	assert.Equal(t, 0, env.quantity(t, book.ID), "the shelf must end at zero, never negative")

	var openLoans int64
	env.db.DB.Model(&entities.Borrowing{}).Where("book_id = ? AND return_date IS NULL", book.ID).Count(&openLoans)
	assert.Equal(t, int64(1), openLoans)
}

func TestBorrowABook_ConcurrentSamePair(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 3)
	ada := env.addBorrower(t, "ada")

	var wg sync.WaitGroup
	results := make([]Result, 2)
	errs := make([]error, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.service.BorrowABook(ada.ID, book.ID, inAWeek())
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	successes := 0
	for _, r := range results {
		if r.Status {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "a pair may hold at most one open loan, however the calls interleave")

	assert.Equal(t, 2, env.quantity(t, book.ID), "the losing attempt must not decrement the shelf")

	var openLoans int64
	env.db.DB.Model(&entities.Borrowing{}).
		Where("book_id = ? AND borrower_id = ? AND return_date IS NULL", book.ID, ada.ID).
		Count(&openLoans)
	assert.Equal(t, int64(1), openLoans, "the partial unique index must leave exactly one open loan for the pair")
}

func TestLendingScenario_TwoCopiesThreeBorrowers(t *testing.T) {
	env, cleanup := setupTest(t)
	defer cleanup()

	book := env.addBook(t, "Dune", 2)
	x := env.addBorrower(t, "x")
	y := env.addBorrower(t, "y")
	z := env.addBorrower(t, "z")
	due := inAWeek()

	rx, err := env.service.BorrowABook(x.ID, book.ID, due)
	require.NoError(t, err)
	require.True(t, rx.Status)
	assert.Equal(t, 1, env.quantity(t, book.ID))

	ry, err := env.service.BorrowABook(y.ID, book.ID, due)
	require.NoError(t, err)
	require.True(t, ry.Status)
	assert.Equal(t, 0, env.quantity(t, book.ID))

	rz, err := env.service.BorrowABook(z.ID, book.ID, due)
	require.NoError(t, err)
	assert.False(t, rz.Status)
	assert.Equal(t, MsgNoCopiesLeft, rz.Message)

	rret, err := env.service.ReturnBook(x.ID, book.ID)
	require.NoError(t, err)
	require.True(t, rret.Status)
	assert.Equal(t, 1, env.quantity(t, book.ID))

	xLoans, err := env.loans.GetByBorrowerID(x.ID)
	require.NoError(t, err)
	require.Len(t, xLoans, 1)
	assert.NotNil(t, xLoans[0].ReturnDate)
}
