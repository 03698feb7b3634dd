package borrowings

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"librarium/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_borrowings_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Borrower{},
		&entities.Borrowing{},
		&entities.OverdueNotice{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func createTestBook(t *testing.T, db *gorm.DB, id, title string) {
	require.NoError(t, db.Create(&entities.Book{
		ID: id, Title: title, Author: "Author", ISBN: "isbn-" + id, AvailableQuantity: 1,
	}).Error)
}

func createTestBorrower(t *testing.T, db *gorm.DB, id, name string) {
	require.NoError(t, db.Create(&entities.Borrower{
		ID: id, Name: name, Email: id + "@example.com", PasswordHash: "hash",
	}).Error)
}

func TestCreateAndFindOpenLoan(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	due := time.Now().Add(7 * 24 * time.Hour)
	loan, err := Create(db, "b1", "u1", due)
	require.NoError(t, err)
	assert.NotZero(t, loan.ID)
	assert.Nil(t, loan.ReturnDate)
	assert.WithinDuration(t, time.Now(), loan.CheckoutDate, 2*time.Second)

	open, err := repo.FindOpenLoan("b1", "u1")
	require.NoError(t, err)
	assert.Equal(t, loan.ID, open.ID)

	_, err = repo.FindOpenLoan("b1", "u2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClose_SetsReturnDateOnce(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	loan, err := Create(db, "b1", "u1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, Close(db, loan))
	require.NotNil(t, loan.ReturnDate)

	// The pair no longer has an open loan
	_, err = repo.FindOpenLoan("b1", "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Closing again is rejected
	assert.ErrorIs(t, Close(db, loan), ErrNotFound)
}

func TestReborrowAfterReturnKeepsHistory(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	first, err := Create(db, "b1", "u1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, Close(db, first))

	second, err := Create(db, "b1", "u1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	all, err := repo.GetAll(-1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetAll_PaginationAndProjections(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestBook(t, db, "b1", "Dune")
	createTestBorrower(t, db, "u1", "Ada")

	for i := 0; i < 3; i++ {
		loan, err := Create(db, "b1", "u1", time.Now().Add(time.Hour))
		require.NoError(t, err)
		require.NoError(t, Close(db, loan))
	}

	all, err := repo.GetAll(-1, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Dune", all[0].Book.Title)
	assert.Equal(t, "Ada", all[0].Borrower.Name)

	page, err := repo.GetAll(2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestGetByBorrowerID(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestBook(t, db, "b1", "Dune")
	createTestBook(t, db, "b2", "Hyperion")
	createTestBorrower(t, db, "u1", "Ada")
	createTestBorrower(t, db, "u2", "Grace")

	_, err := Create(db, "b1", "u1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	closed, err := Create(db, "b2", "u1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, Close(db, closed))
	_, err = Create(db, "b1", "u2", time.Now().Add(time.Hour))
	require.NoError(t, err)

	loans, err := repo.GetByBorrowerID("u1")
	require.NoError(t, err)
	assert.Len(t, loans, 2, "open and closed loans are both reported")
}

func TestGetOverdue_FiltersClosedAndFutureLoans(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestBook(t, db, "b1", "Dune")
	createTestBorrower(t, db, "u1", "Ada")
	createTestBorrower(t, db, "u2", "Grace")
	createTestBorrower(t, db, "u3", "Margaret")

	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)

	// Open and overdue: included
	overdueLoan, err := Create(db, "b1", "u1", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, db.Model(overdueLoan).Update("due_date", yesterday).Error)

	// Past due date but already returned: excluded
	returned, err := Create(db, "b1", "u2", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, db.Model(returned).Update("due_date", yesterday).Error)
	require.NoError(t, Close(db, returned))

	// Open but not yet due: excluded
	_, err = Create(db, "b1", "u3", now.Add(48*time.Hour))
	require.NoError(t, err)

	overdue, err := repo.GetOverdue(time.Now())
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "u1", overdue[0].BorrowerID)

	mine, err := repo.GetBorrowerOverdue("u1", time.Now())
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := repo.GetBorrowerOverdue("u2", time.Now())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetByCheckoutRange(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestBook(t, db, "b1", "Dune")
	createTestBorrower(t, db, "u1", "Ada")
	createTestBorrower(t, db, "u2", "Grace")

	now := time.Now()

	inWindow, err := Create(db, "b1", "u1", now.Add(time.Hour))
	require.NoError(t, err)

	outOfWindow, err := Create(db, "b1", "u2", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, db.Model(outOfWindow).Update("checkout_date", now.Add(-30*24*time.Hour)).Error)

	loans, err := repo.GetByCheckoutRange(now.Add(-7*24*time.Hour), now.Add(time.Minute), false, now)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, inWindow.ID, loans[0].ID)

	// only_overdue intersects with the overdue predicate
	require.NoError(t, db.Model(inWindow).Update("due_date", now.Add(-time.Hour)).Error)
	overdueOnly, err := repo.GetByCheckoutRange(now.Add(-7*24*time.Hour), now.Add(time.Minute), true, now)
	require.NoError(t, err)
	assert.Len(t, overdueOnly, 1)

	require.NoError(t, Close(db, inWindow))
	overdueOnly, err = repo.GetByCheckoutRange(now.Add(-7*24*time.Hour), now.Add(time.Minute), true, now)
	require.NoError(t, err)
	assert.Empty(t, overdueOnly)
}

func TestOverdueNotices(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	createTestBook(t, db, "b1", "Dune")
	createTestBorrower(t, db, "u1", "Ada")

	now := time.Now()
	loan, err := Create(db, "b1", "u1", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, db.Model(loan).Update("due_date", now.Add(-time.Hour)).Error)

	pending, err := repo.GetOverdueWithoutNotice(now)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Dune", pending[0].Book.Title)

	require.NoError(t, repo.RecordNotice(loan.ID, "u1"))
	// Duplicate notices are swallowed by the unique index
	require.NoError(t, repo.RecordNotice(loan.ID, "u1"))

	pending, err = repo.GetOverdueWithoutNotice(now)
	require.NoError(t, err)
	assert.Empty(t, pending)

	var count int64
	db.Model(&entities.OverdueNotice{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
