package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"circulation-analytics/internal/circulation"
)

// Source tables carry no foreign keys: dangling references are tolerated on
// read and surface as invalid rows in the reports.
var tableDDL = []string{
	`CREATE TABLE IF NOT EXISTS %s (
		isbn TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		pub_year INTEGER,
		publisher_id BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		copy_id BIGINT PRIMARY KEY,
		isbn TEXT NOT NULL,
		branch_id BIGINT NOT NULL,
		barcode TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		loan_id BIGINT PRIMARY KEY,
		copy_id BIGINT NOT NULL,
		patron_id BIGINT NOT NULL,
		loan_ts TIMESTAMP,
		due_ts TIMESTAMP NOT NULL,
		return_ts TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		patron_id BIGINT PRIMARY KEY,
		first_name TEXT,
		last_name TEXT,
		email TEXT,
		patron_type TEXT,
		balance NUMERIC(10,2) DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		fine_id BIGINT PRIMARY KEY,
		patron_id BIGINT NOT NULL,
		amount NUMERIC(10,2) NOT NULL,
		status TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		subject_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		author_id BIGINT PRIMARY KEY,
		first_name TEXT,
		last_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		branch_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		publisher_id BIGINT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		isbn TEXT NOT NULL,
		subject_id BIGINT NOT NULL,
		PRIMARY KEY (isbn, subject_id)
	)`,
	`CREATE TABLE IF NOT EXISTS %s (
		isbn TEXT NOT NULL,
		author_id BIGINT NOT NULL,
		PRIMARY KEY (isbn, author_id)
	)`,
}

var tableNames = []string{
	"books", "copies", "loans", "patrons", "fines", "subjects",
	"authors", "branches", "publishers", "book_subjects", "book_authors",
}

// InitSchema creates the circulation tables when they do not exist yet.
func (s *Store) InitSchema(ctx context.Context) error {
	if s.schema != "" {
		if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+s.schema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	for i, ddl := range tableDDL {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(ddl, s.table(tableNames[i]))); err != nil {
			return fmt.Errorf("create %s: %w", tableNames[i], err)
		}
	}
	return nil
}

// Empty reports whether the books table has no rows.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var count int64
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+s.table("books"))
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// Insert writes every collection of snap in one transaction.
func (s *Store) Insert(ctx context.Context, snap *circulation.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	w := &Store{db: s.db, q: tx, driver: s.driver, schema: s.schema}
	for _, b := range snap.Books {
		if err := w.insert(ctx, "books", []string{"isbn", "title", "pub_year", "publisher_id"},
			b.ISBN, b.Title, b.PubYear, b.PublisherID); err != nil {
			return err
		}
	}
	for _, c := range snap.Copies {
		if err := w.insert(ctx, "copies", []string{"copy_id", "isbn", "branch_id", "barcode"},
			c.CopyID, c.ISBN, c.BranchID, c.Barcode); err != nil {
			return err
		}
	}
	for _, l := range snap.Loans {
		if err := w.insert(ctx, "loans", []string{"loan_id", "copy_id", "patron_id", "loan_ts", "due_ts", "return_ts"},
			l.LoanID, l.CopyID, l.PatronID, nullTime(l.LoanTS), nullTime(l.DueTS), nullTime(l.ReturnTS)); err != nil {
			return err
		}
	}
	for _, p := range snap.Patrons {
		if err := w.insert(ctx, "patrons", []string{"patron_id", "first_name", "last_name", "email", "patron_type", "balance"},
			p.PatronID, p.FirstName, p.LastName, p.Email, p.PatronType, p.Balance); err != nil {
			return err
		}
	}
	for _, f := range snap.Fines {
		if err := w.insert(ctx, "fines", []string{"fine_id", "patron_id", "amount", "status"},
			f.FineID, f.PatronID, f.Amount, f.Status); err != nil {
			return err
		}
	}
	for _, sub := range snap.Subjects {
		if err := w.insert(ctx, "subjects", []string{"subject_id", "name"}, sub.SubjectID, sub.Name); err != nil {
			return err
		}
	}
	for _, a := range snap.Authors {
		if err := w.insert(ctx, "authors", []string{"author_id", "first_name", "last_name"},
			a.AuthorID, a.FirstName, a.LastName); err != nil {
			return err
		}
	}
	for _, b := range snap.Branches {
		if err := w.insert(ctx, "branches", []string{"branch_id", "name"}, b.BranchID, b.Name); err != nil {
			return err
		}
	}
	for _, p := range snap.Publishers {
		if err := w.insert(ctx, "publishers", []string{"publisher_id", "name"}, p.PublisherID, p.Name); err != nil {
			return err
		}
	}
	for _, link := range snap.BookSubjects {
		if err := w.insert(ctx, "book_subjects", []string{"isbn", "subject_id"}, link.ISBN, link.SubjectID); err != nil {
			return err
		}
	}
	for _, link := range snap.BookAuthors {
		if err := w.insert(ctx, "book_authors", []string{"isbn", "author_id"}, link.ISBN, link.AuthorID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) insert(ctx context.Context, table string, columns []string, args ...any) error {
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = s.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.table(table), strings.Join(columns, ", "), strings.Join(marks, ", "))
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t.UTC(), Valid: !t.IsZero()}
}

// Seed creates the schema and fills it with the demo data set when the
// database holds no books yet. It reports whether rows were written.
func (s *Store) Seed(ctx context.Context, today time.Time) (bool, error) {
	if err := s.InitSchema(ctx); err != nil {
		return false, err
	}
	empty, err := s.Empty(ctx)
	if err != nil {
		return false, err
	}
	if !empty {
		return false, nil
	}
	if err := s.Insert(ctx, DemoSnapshot(today)); err != nil {
		return false, err
	}
	return true, nil
}
