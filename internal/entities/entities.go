package entities

import (
	"time"
)

// Book is a catalog entry with a finite number of lendable copies.
// AvailableQuantity is owned by the books repository and must never be
// mutated outside of its BorrowCopy/ReturnCopy operations.
type Book struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	Title             string    `gorm:"index;size:512;not null" json:"title"`
	Author            string    `gorm:"index;size:256;not null" json:"author"`
	ISBN              string    `gorm:"uniqueIndex;size:20;not null" json:"isbn"`
	AvailableQuantity int       `gorm:"not null;default:0" json:"available_quantity"`
	ShelfLocation     string    `gorm:"size:100" json:"shelf_location"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsBorrowable reports whether at least one copy is on the shelf.
// Advisory only: the authoritative check is the conditional decrement
// performed inside the borrow transaction.
func (b *Book) IsBorrowable() bool {
	return b.AvailableQuantity > 0
}

// Borrower is a registered patron. The password hash is never serialized.
type Borrower struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Name         string    `gorm:"size:256;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	CreatedAt    time.Time `json:"registrationDate"`
	UpdatedAt    time.Time `json:"-"`
}

// Borrowing is one checkout of one book copy by one borrower. A row with
// ReturnDate == nil is an open loan. The pair (BookID, BorrowerID) may have
// any number of closed rows but at most one open one; the surrogate ID plus
// the partial unique index in the migration carry that constraint.
type Borrowing struct {
	ID           uint       `gorm:"primaryKey" json:"-"`
	BookID       string     `gorm:"index;size:36;not null" json:"book_id"`
	BorrowerID   string     `gorm:"index;size:36;not null" json:"borrower_id"`
	CheckoutDate time.Time  `gorm:"not null" json:"checkout_date"`
	DueDate      time.Time  `gorm:"not null" json:"due_date"`
	ReturnDate   *time.Time `gorm:"index" json:"return_date"`
	Book         Book       `gorm:"foreignKey:BookID" json:"book,omitempty"`
	Borrower     Borrower   `gorm:"foreignKey:BorrowerID" json:"borrower,omitempty"`
	CreatedAt    time.Time  `json:"-"`
	UpdatedAt    time.Time  `json:"-"`
}

func (Borrowing) TableName() string {
	return "borrowings"
}

// IsOverdue reports whether the loan is open and past its due date.
func (b *Borrowing) IsOverdue(now time.Time) bool {
	return b.ReturnDate == nil && b.DueDate.Before(now)
}

// OverdueNotice records that the overdue sweep has notified a borrower
// about one specific loan. One notice per borrowing.
type OverdueNotice struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	BorrowingID uint      `gorm:"uniqueIndex;not null" json:"borrowing_id"`
	BorrowerID  string    `gorm:"index;size:36;not null" json:"borrower_id"`
	SentAt      time.Time `gorm:"not null" json:"sent_at"`
}

func (OverdueNotice) TableName() string {
	return "overdue_notices"
}
