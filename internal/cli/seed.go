// Package cli holds the non-server subcommands.
package cli

import (
	"flag"
	"fmt"
	"os"

	"librarium/internal/auth"
	"librarium/internal/config"
	"librarium/internal/database"
	"librarium/internal/database/books"
	"librarium/internal/database/borrowers"
)

// SeedCommand populates a fresh database with a small catalog and two
// borrower accounts for local development.
type SeedCommand struct {
	DatabasePath string
	Password     string
	Verbose      bool
}

func NewSeedCommand() *SeedCommand {
	return &SeedCommand{}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file to seed")
	fs.StringVar(&cmd.Password, "password", "password123", "Password assigned to the seeded borrower accounts")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Populate the database with sample books and borrowers.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

var seedBooks = []books.CreateInput{
	{Title: "The Go Programming Language", Author: "Alan A. A. Donovan", ISBN: "9780134190440", AvailableQuantity: 3, ShelfLocation: "A1"},
	{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: "9781449373320", AvailableQuantity: 2, ShelfLocation: "A2"},
	{Title: "The Pragmatic Programmer", Author: "David Thomas", ISBN: "9780135957059", AvailableQuantity: 1, ShelfLocation: "B1"},
	{Title: "Structure and Interpretation of Computer Programs", Author: "Harold Abelson", ISBN: "9780262510875", AvailableQuantity: 2, ShelfLocation: "B3"},
}

var seedBorrowers = []struct {
	Name  string
	Email string
}{
	{Name: "Ada Lovelace", Email: "ada@example.com"},
	{Name: "Grace Hopper", Email: "grace@example.com"},
}

func (cmd *SeedCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	bookRepo := books.NewRepository(db.DB)
	for _, in := range seedBooks {
		if _, err := bookRepo.GetByISBN(in.ISBN); err == nil {
			if cmd.Verbose {
				fmt.Printf("Book %q already present, skipping\n", in.Title)
			}
			continue
		}
		if _, err := bookRepo.Create(in); err != nil {
			return fmt.Errorf("seed book %q: %w", in.Title, err)
		}
		fmt.Printf("Seeded book %q (%d copies)\n", in.Title, in.AvailableQuantity)
	}

	hash, err := auth.HashPassword(cmd.Password, 10)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	borrowerRepo := borrowers.NewRepository(db.DB)
	for _, b := range seedBorrowers {
		if _, err := borrowerRepo.GetByEmail(b.Email); err == nil {
			if cmd.Verbose {
				fmt.Printf("Borrower %s already present, skipping\n", b.Email)
			}
			continue
		}
		if _, err := borrowerRepo.Create(b.Name, b.Email, hash); err != nil {
			return fmt.Errorf("seed borrower %s: %w", b.Email, err)
		}
		fmt.Printf("Seeded borrower %s <%s>\n", b.Name, b.Email)
	}

	fmt.Println("Seeding complete")
	return nil
}
