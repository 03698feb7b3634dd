package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"librarium/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	// A busy timeout makes a second writer wait for the current write
	// transaction instead of failing immediately. Without it, overlapping
	// borrow calls would surface as infrastructure errors rather than
	// losing the conditional decrement cleanly.
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_busy_timeout=5000"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

// Migrate creates the schema. Besides the auto-migrated tables it installs
// a partial unique index so that a (book, borrower) pair can hold at most
// one open loan while keeping the full history of closed ones.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.Book{},
		&entities.Borrower{},
		&entities.Borrowing{},
		&entities.OverdueNotice{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_borrowings_open_loan
		ON borrowings(book_id, borrower_id) WHERE return_date IS NULL`).Error
	if err != nil {
		return fmt.Errorf("failed to create open-loan index: %w", err)
	}

	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTransaction runs fn inside a single database transaction. The
// transaction commits when fn returns nil and rolls back when fn returns an
// error or panics, so callers never manage commit/rollback bookkeeping
// themselves.
func (d *Database) WithTransaction(fn func(tx *gorm.DB) error) error {
	return d.DB.Transaction(fn)
}
