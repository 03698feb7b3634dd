// Package books provides database operations for the catalog and the
// inventory ledger.
//
// The ledger operations BorrowCopy and ReturnCopy are the only code allowed
// to change a book's available quantity. BorrowCopy is a single conditional
// UPDATE so that two transactions racing for the last copy cannot both win.
package books

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"librarium/internal/entities"
)

// ErrNotFound is returned when no book matches the lookup.
var ErrNotFound = errors.New("book not found")

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new book repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateInput carries the fields needed to add a book to the catalog.
type CreateInput struct {
	Title             string
	Author            string
	ISBN              string
	AvailableQuantity int
	ShelfLocation     string
}

// Create adds a new book to the catalog with a generated ID.
func (r *Repository) Create(in CreateInput) (*entities.Book, error) {
	book := &entities.Book{
		ID:                uuid.NewString(),
		Title:             in.Title,
		Author:            in.Author,
		ISBN:              in.ISBN,
		AvailableQuantity: in.AvailableQuantity,
		ShelfLocation:     in.ShelfLocation,
	}
	if err := r.db.Create(book).Error; err != nil {
		return nil, err
	}
	return book, nil
}

// GetByID returns the book with the given ID, or ErrNotFound.
func (r *Repository) GetByID(id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByISBN returns the book with the given ISBN, or ErrNotFound.
func (r *Repository) GetByISBN(isbn string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("isbn = ?", isbn).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns books with pagination. A limit of -1 means unbounded.
func (r *Repository) List(limit, offset int) ([]entities.Book, error) {
	var found []entities.Book
	query := r.db.Order("title ASC")
	if limit > -1 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&found).Error
	return found, err
}

// SearchByTitle returns books whose title contains the given substring.
func (r *Repository) SearchByTitle(title string) ([]entities.Book, error) {
	var found []entities.Book
	err := r.db.Where("title LIKE ?", "%"+title+"%").Order("title ASC").Find(&found).Error
	return found, err
}

// SearchByAuthor returns books whose author contains the given substring.
func (r *Repository) SearchByAuthor(author string) ([]entities.Book, error) {
	var found []entities.Book
	err := r.db.Where("author LIKE ?", "%"+author+"%").Order("title ASC").Find(&found).Error
	return found, err
}

// UpdateInput carries optional catalog fields; nil fields are left as-is.
// AvailableQuantity is deliberately absent: the quantity only moves through
// BorrowCopy and ReturnCopy.
type UpdateInput struct {
	Title         *string
	Author        *string
	ISBN          *string
	ShelfLocation *string
}

// Update modifies the catalog fields of a book.
func (r *Repository) Update(id string, in UpdateInput) (*entities.Book, error) {
	updates := map[string]any{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Author != nil {
		updates["author"] = *in.Author
	}
	if in.ISBN != nil {
		updates["isbn"] = *in.ISBN
	}
	if in.ShelfLocation != nil {
		updates["shelf_location"] = *in.ShelfLocation
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		result := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.GetByID(id)
}

// Delete removes a book and all of its loan records in one transaction.
func (r *Repository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("book_id = ?", id).Delete(&entities.Borrowing{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&entities.Book{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// BorrowCopy atomically claims one copy of the book within the given
// transaction. The decrement is conditioned on a copy still being on the
// shelf, so callers must treat a false return as "no copies left" even if an
// earlier read said otherwise; the earlier read is advisory only.
func BorrowCopy(tx *gorm.DB, bookID string) (bool, error) {
	result := tx.Model(&entities.Book{}).
		Where("id = ? AND available_quantity > 0", bookID).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity - 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ReturnCopy puts one copy of the book back on the shelf within the given
// transaction. There is no upper bound: total copies in circulation are not
// tracked separately.
func ReturnCopy(tx *gorm.DB, bookID string) error {
	result := tx.Model(&entities.Book{}).
		Where("id = ?", bookID).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
