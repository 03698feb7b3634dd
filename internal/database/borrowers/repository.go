// Package borrowers provides database operations for patron accounts.
package borrowers

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"librarium/internal/entities"
)

// ErrNotFound is returned when no borrower matches the lookup.
var ErrNotFound = errors.New("borrower not found")

// Repository handles all borrower database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new borrower repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create registers a new borrower. The caller is responsible for hashing
// the password beforehand (see internal/auth).
func (r *Repository) Create(name, email, passwordHash string) (*entities.Borrower, error) {
	borrower := &entities.Borrower{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := r.db.Create(borrower).Error; err != nil {
		return nil, err
	}
	return borrower, nil
}

// GetByID returns the borrower with the given ID, or ErrNotFound.
func (r *Repository) GetByID(id string) (*entities.Borrower, error) {
	var borrower entities.Borrower
	err := r.db.Where("id = ?", id).First(&borrower).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &borrower, nil
}

// GetByEmail returns the borrower with the given email, or ErrNotFound.
func (r *Repository) GetByEmail(email string) (*entities.Borrower, error) {
	var borrower entities.Borrower
	err := r.db.Where("email = ?", email).First(&borrower).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &borrower, nil
}

// List returns all registered borrowers.
func (r *Repository) List() ([]entities.Borrower, error) {
	var found []entities.Borrower
	err := r.db.Order("name ASC").Find(&found).Error
	return found, err
}

// UpdateInput carries optional account fields; nil fields are left as-is.
type UpdateInput struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// Update modifies a borrower's account fields.
func (r *Repository) Update(id string, in UpdateInput) (*entities.Borrower, error) {
	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.PasswordHash != nil {
		updates["password_hash"] = *in.PasswordHash
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		result := r.db.Model(&entities.Borrower{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.GetByID(id)
}

// Delete removes a borrower and all of their loan records in one
// transaction, per the referential constraint on loan rows.
func (r *Repository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("borrower_id = ?", id).Delete(&entities.Borrowing{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&entities.Borrower{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
